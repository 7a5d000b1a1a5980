package inet

import "testing"

// testKinds registers a small kind table used across the package tests.
type testKinds struct {
	*Kinds
	Con, Era, Box KindID
}

func newTestKinds(t *testing.T) testKinds {
	t.Helper()
	k := NewKinds()
	return testKinds{
		Kinds: k,
		Con:   k.MustRegister("Con", 3),
		Era:   k.MustRegister("Era", 1),
		Box:   k.MustRegister("Box", 2),
	}
}

type recordingObserver struct {
	formed []Pair
	broken []Pair
}

func (r *recordingObserver) PairFormed(p Pair) { r.formed = append(r.formed, p) }
func (r *recordingObserver) PairBroken(p Pair) { r.broken = append(r.broken, p) }
