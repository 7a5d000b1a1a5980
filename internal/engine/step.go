package engine

import (
	"errors"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/rule"
)

// StepOutcome is what one reduction attempt did.
type StepOutcome int

const (
	// StepIdle: there was no pending pair.
	StepIdle StepOutcome = iota
	// StepReduced: a rule fired and the rewrite committed.
	StepReduced
	// StepSkipped: the pair was no longer active and was dropped.
	StepSkipped
	// StepDeferred: part of the footprint was claimed by another worker;
	// the pair went back to the tracker.
	StepDeferred
	// StepStuck: no rule matches the pair; it was parked.
	StepStuck
	// StepExhausted: the budget ran out; the pair went back to the tracker.
	StepExhausted
)

func (o StepOutcome) String() string {
	switch o {
	case StepIdle:
		return "idle"
	case StepReduced:
		return "reduced"
	case StepSkipped:
		return "skipped"
	case StepDeferred:
		return "deferred"
	case StepStuck:
		return "stuck"
	case StepExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// worker is one reduction goroutine's private state.
type worker struct {
	e     *Engine
	id    int
	owner inet.Owner
	part  *inet.Participant
	rw    *rewriter
	stats Stats

	held []inet.AgentID
}

func (w *worker) claim(id inet.AgentID) bool {
	if !w.e.net.Claim(id, w.owner) {
		return false
	}
	w.held = append(w.held, id)
	return true
}

func (w *worker) releaseAll() {
	for _, id := range w.held {
		w.e.net.Release(id, w.owner)
	}
	w.held = w.held[:0]
}

// requeue releases the footprint and puts p back for a later attempt.
func (w *worker) requeue(p inet.Pair) {
	w.releaseAll()
	w.e.tracker.Add(p)
}

// reduce runs one active pair through claim, validation, rule lookup and
// rewrite. Only a failed rewrite returns an error.
func (w *worker) reduce(p inet.Pair, b *budget) (StepOutcome, error) {
	e := w.e
	n := e.net
	defer w.releaseAll()

	// Claim the pair. A dead agent means the pair is gone; a live one
	// means another worker holds it as part of its footprint.
	for _, id := range [2]inet.AgentID{p.A, p.B} {
		if !w.claim(id) {
			if !n.Live(id) {
				w.stats.Stale++
				return StepSkipped, nil
			}
			w.stats.Deferred++
			w.requeue(p)
			return StepDeferred, nil
		}
	}

	// Validate: still principal-to-principal.
	if q, err := n.Peer(inet.P(p.A, inet.Principal)); err != nil || q != inet.P(p.B, inet.Principal) {
		w.stats.Stale++
		return StepSkipped, nil
	}

	ka, _ := n.KindOf(p.A)
	kb, _ := n.KindOf(p.B)
	entry, ok := e.table.Lookup(ka, kb)
	if !ok {
		w.stats.Stuck++
		e.tracker.Park(p)
		kinds := n.Kinds()
		e.log.Warn("no rule for active pair",
			"left", kinds.Name(ka),
			"right", kinds.Name(kb),
			"pair", p.String(),
			"event", "stuck",
		)
		return StepStuck, nil
	}

	left, right := p.A, p.B
	lkID, rkID := ka, kb
	if entry.Flipped(ka) {
		left, right = right, left
		lkID, rkID = rkID, lkID
	}
	kinds := n.Kinds()
	lk, err := kinds.Get(lkID)
	if err != nil {
		return StepSkipped, w.fatal(entry, p, lkID, rkID, err)
	}
	rk, err := kinds.Get(rkID)
	if err != nil {
		return StepSkipped, w.fatal(entry, p, lkID, rkID, err)
	}

	rw := w.rw
	if err := rw.capture(left, right, lk, rk); err != nil {
		return StepSkipped, w.fatal(entry, p, lkID, rkID, err)
	}
	for _, id := range rw.neighbors(nil) {
		if !w.claim(id) {
			w.stats.Deferred++
			w.requeue(p)
			return StepDeferred, nil
		}
	}

	if !b.reserve() {
		w.requeue(p)
		return StepExhausted, nil
	}

	if err := w.rewrite(entry.Rule); err != nil {
		b.refund()
		if rbErr := rw.rollback(); rbErr != nil {
			err = &RunError{Code: ErrCodeRollback, Rule: entry.Rule.Name(), Pair: p, Err: errors.Join(err, rbErr)}
			w.heldCreated()
			return StepSkipped, err
		}
		w.heldCreated()
		return StepSkipped, w.fatal(entry, p, lkID, rkID, err)
	}
	w.heldCreated()

	seq := e.clock.Next()
	created := len(rw.created)
	w.stats.fired(entry.Rule.Name(), created)
	e.rec.RecordStep(StepEvent{
		Seq:     seq,
		Worker:  w.id,
		Rule:    entry.Rule.Name(),
		Left:    lk.Name,
		Right:   rk.Name,
		Created: created,
	})
	e.log.Debug("rule fired",
		"seq", seq,
		"rule", entry.Rule.Name(),
		"left", lk.Name,
		"right", rk.Name,
		"created", created,
		"worker", w.id,
		"event", "reduce",
	)
	return StepReduced, nil
}

func (w *worker) rewrite(r rule.Rule) error {
	if err := w.rw.detach(); err != nil {
		return err
	}
	if err := r.Rewrite(w.rw); err != nil {
		return err
	}
	return w.rw.commit()
}

// heldCreated adds agents created by the rewrite to the release set; they
// were born claimed by this worker.
func (w *worker) heldCreated() {
	w.held = append(w.held, w.rw.created...)
}

func (w *worker) fatal(entry rule.Entry, p inet.Pair, left, right inet.KindID, err error) error {
	kinds := w.e.net.Kinds()
	return &RunError{
		Code:  ErrCodeFatalRewrite,
		Rule:  entry.Rule.Name(),
		Pair:  p,
		Kinds: [2]string{kinds.Name(left), kinds.Name(right)},
		Err:   err,
	}
}
