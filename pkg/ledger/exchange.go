package ledger

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Exchange is one user input and, once the model answered, its response.
type Exchange struct {
	UserInput string  `json:"user_input"`
	Response  *string `json:"response,omitempty"`
}

// NewExchange returns a completed exchange.
func NewExchange(userInput string, response string) Exchange {
	return Exchange{UserInput: userInput, Response: &response}
}

// Pending returns an exchange that has no response yet.
func Pending(userInput string) Exchange {
	return Exchange{UserInput: userInput}
}

func (e Exchange) HasResponse() bool {
	return e.Response != nil
}

// ResponseText returns the response, or the empty string when there is none.
func (e Exchange) ResponseText() string {
	if e.Response == nil {
		return ""
	}
	return *e.Response
}

func (e Exchange) clone() Exchange {
	if e.Response == nil {
		return Exchange{UserInput: e.UserInput}
	}
	return NewExchange(e.UserInput, *e.Response)
}

// Entry pairs an exchange with the message id it is stored under.
type Entry struct {
	MessageID string
	Exchange  Exchange
}

// Exchanges is an insertion-ordered mapping from message id to exchange.
type Exchanges = orderedmap.OrderedMap[string, Exchange]

func newExchanges() *Exchanges {
	return orderedmap.New[string, Exchange]()
}

func copyExchanges(src *Exchanges) *Exchanges {
	dst := newExchanges()
	if src == nil {
		return dst
	}
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		dst.Set(pair.Key, pair.Value.clone())
	}
	return dst
}

// History is the persisted conversation document.
//
// Current holds the live conversation. Archived holds one snapshot per
// reset, oldest first; snapshots are never modified once archived.
type History struct {
	Current  *Exchanges   `json:"current"`
	Archived []*Exchanges `json:"archived"`
}

// NewHistory returns an empty history document.
func NewHistory() *History {
	return &History{
		Current:  newExchanges(),
		Archived: []*Exchanges{},
	}
}

func (h *History) normalize() {
	if h.Current == nil {
		h.Current = newExchanges()
	}
	if h.Archived == nil {
		h.Archived = []*Exchanges{}
	}
	for i, a := range h.Archived {
		if a == nil {
			h.Archived[i] = newExchanges()
		}
	}
}

// Entries returns the current exchanges in insertion order.
func (h *History) Entries() []Entry {
	if h == nil || h.Current == nil {
		return nil
	}
	ret := make([]Entry, 0, h.Current.Len())
	for pair := h.Current.Oldest(); pair != nil; pair = pair.Next() {
		ret = append(ret, Entry{MessageID: pair.Key, Exchange: pair.Value.clone()})
	}
	return ret
}

// Clone returns a deep copy of the document.
func (h *History) Clone() *History {
	ret := &History{
		Current:  copyExchanges(h.Current),
		Archived: make([]*Exchanges, 0, len(h.Archived)),
	}
	for _, a := range h.Archived {
		ret.Archived = append(ret.Archived, copyExchanges(a))
	}
	return ret
}
