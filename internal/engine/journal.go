package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/inet/internal/inet"
)

// journalEntry is a modification of the net that can be reverted.
type journalEntry interface {
	revert(n *inet.Net) error
}

// journal records every mutation a rewrite performs so that a failed
// rewrite can put its footprint back exactly as it found it.
type journal struct {
	entries []journalEntry
}

func (j *journal) append(e journalEntry) {
	j.entries = append(j.entries, e)
}

func (j *journal) length() int {
	return len(j.entries)
}

func (j *journal) reset() {
	clear(j.entries)
	j.entries = j.entries[:0]
}

// revert undoes every entry, newest first. It keeps going past failures and
// reports all of them.
func (j *journal) revert(n *inet.Net) error {
	var errs []error
	for i := len(j.entries) - 1; i >= 0; i-- {
		if err := j.entries[i].revert(n); err != nil {
			errs = append(errs, err)
		}
	}
	j.reset()
	return errors.Join(errs...)
}

type (
	connectChange struct {
		a, b inet.Port
	}
	disconnectChange struct {
		a, b inet.Port
	}
	createChange struct {
		id inet.AgentID
	}
)

func (ch connectChange) revert(n *inet.Net) error {
	if _, err := n.Disconnect(ch.a); err != nil {
		return fmt.Errorf("undo connect %s-%s: %w", ch.a, ch.b, err)
	}
	return nil
}

func (ch disconnectChange) revert(n *inet.Net) error {
	if err := n.Connect(ch.a, ch.b); err != nil {
		return fmt.Errorf("undo disconnect %s-%s: %w", ch.a, ch.b, err)
	}
	return nil
}

func (ch createChange) revert(n *inet.Net) error {
	if err := n.Erase(ch.id); err != nil {
		return fmt.Errorf("undo create %s: %w", ch.id, err)
	}
	return nil
}
