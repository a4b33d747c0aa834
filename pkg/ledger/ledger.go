// Package ledger holds the conversation history: the live exchanges keyed by
// message id and the archived snapshots of earlier conversations.
//
// Every operation loads the history document, applies its change and saves
// the whole document back. Operations on one Ledger are serialised, so two
// handlers mutating different message ids never lose each other's update.
// Nothing is held across calls: a caller that reads, does slow work and then
// writes (see engine.Engine) races other writers of the same id, and the last
// write wins.
package ledger

import (
	"context"
	"strings"
	"sync"

	"github.com/go-go-golems/chatrelay/pkg/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("exchange not found")

type Ledger struct {
	mu    sync.Mutex
	store store.Store
}

func New(s store.Store) *Ledger {
	return &Ledger{store: s}
}

func (l *Ledger) load(ctx context.Context) (*History, error) {
	h := &History{}
	if err := l.store.Load(ctx, store.KindHistory, h); err != nil {
		return nil, err
	}
	h.normalize()
	return h, nil
}

func (l *Ledger) save(ctx context.Context, h *History) error {
	return l.store.Save(ctx, store.KindHistory, h)
}

// AppendOrReplace stores e under id. An existing entry is overwritten in
// place and keeps its position.
func (l *Ledger) AppendOrReplace(ctx context.Context, id string, e Exchange) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, err := l.load(ctx)
	if err != nil {
		return err
	}
	_, replaced := h.Current.Set(id, e.clone())
	if err := l.save(ctx, h); err != nil {
		return err
	}

	log.Debug().Str("message_id", id).Bool("replaced", replaced).Int("current", h.Current.Len()).Msg("stored exchange")
	return nil
}

// Get returns the exchange stored under id, or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, id string) (Exchange, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, err := l.load(ctx)
	if err != nil {
		return Exchange{}, err
	}
	e, ok := h.Current.Get(id)
	if !ok {
		return Exchange{}, errors.Wrapf(ErrNotFound, "message %s", id)
	}
	return e.clone(), nil
}

// Remove deletes the exchange stored under id and returns it. When there is
// no such exchange it returns ErrNotFound and leaves the document untouched.
func (l *Ledger) Remove(ctx context.Context, id string) (Exchange, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, err := l.load(ctx)
	if err != nil {
		return Exchange{}, err
	}
	e, ok := h.Current.Delete(id)
	if !ok {
		return Exchange{}, errors.Wrapf(ErrNotFound, "message %s", id)
	}
	if err := l.save(ctx, h); err != nil {
		return Exchange{}, err
	}

	log.Debug().Str("message_id", id).Int("current", h.Current.Len()).Msg("removed exchange")
	return e, nil
}

// Reset moves the live conversation into a new archived snapshot and starts
// an empty one. It returns the number of exchanges archived.
func (l *Ledger) Reset(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, err := l.load(ctx)
	if err != nil {
		return 0, err
	}
	n := h.Current.Len()
	h.Archived = append(h.Archived, h.Current)
	h.Current = newExchanges()
	if err := l.save(ctx, h); err != nil {
		return 0, err
	}

	log.Info().Int("archived_exchanges", n).Int("snapshots", len(h.Archived)).Msg("conversation reset")
	return n, nil
}

// Completed returns the answered exchanges of the live conversation in
// insertion order, leaving out excludeID.
func (l *Ledger) Completed(ctx context.Context, excludeID string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	ret := []Entry{}
	for _, entry := range h.Entries() {
		if entry.MessageID == excludeID || !entry.Exchange.HasResponse() {
			continue
		}
		ret = append(ret, entry)
	}
	return ret, nil
}

// Snapshot returns a copy of the whole document.
func (l *Ledger) Snapshot(ctx context.Context) (*History, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return h.Clone(), nil
}

// RenderContext serialises entries into a dialogue transcript, one
// "User: ...\n<name>: ..." block per answered entry, in the given order.
// Entries without a response are skipped.
func RenderContext(personaName string, entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Exchange.HasResponse() {
			continue
		}
		lines = append(lines, "User: "+entry.Exchange.UserInput+"\n"+personaName+": "+entry.Exchange.ResponseText())
	}
	return strings.Join(lines, "\n")
}
