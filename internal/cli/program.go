package cli

import (
	"github.com/roach88/inet/internal/compiler"
)

// fail reports err through f and returns it as an ExitError.
func fail(f *OutputFormatter, exitCode int, code, message string, err error) error {
	detail := message
	if err != nil {
		detail = message + ": " + err.Error()
	}
	if outErr := f.Error(code, detail, nil); outErr != nil {
		return WrapExitError(ExitCommandError, "failed to write output", outErr)
	}
	return WrapExitError(exitCode, message, err)
}

// loadAndBuild compiles the program at path and builds its initial net.
func loadAndBuild(f *OutputFormatter, path string) (*compiler.Program, *compiler.Built, error) {
	prog, err := compiler.Load(path)
	if err != nil {
		return nil, nil, fail(f, ExitCommandError, ErrCodeLoad, "failed to load program", err)
	}
	built, err := prog.Build()
	if err != nil {
		return prog, nil, fail(f, ExitCommandError, ErrCodeBuild, "failed to build net", err)
	}
	return prog, built, nil
}
