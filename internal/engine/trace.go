package engine

// StepEvent describes one committed rewrite.
type StepEvent struct {
	Seq     int64
	Worker  int
	Rule    string
	Left    string
	Right   string
	Created int
}

// Recorder receives every committed rewrite. RecordStep is called from
// worker goroutines concurrently and must not block for long.
type Recorder interface {
	RecordStep(ev StepEvent)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ev StepEvent)

// RecordStep calls f(ev).
func (f RecorderFunc) RecordStep(ev StepEvent) { f(ev) }

type nopRecorder struct{}

func (nopRecorder) RecordStep(StepEvent) {}
