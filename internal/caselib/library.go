package caselib

import (
	"errors"
	"math/rand"
	"sync"
)

// ErrNoCasesLeft is returned by Draw once every case in the deck has
// been handed out and the deck has not been reset.
var ErrNoCasesLeft = errors.New("no cases left in deck")

// Library holds the loaded cases and a shuffled deck so consecutive
// draws never repeat a case until the deck is reset.
type Library struct {
	mu    sync.Mutex
	cases []*Case
	deck  []*Case
	rng   *rand.Rand
}

// NewLibrary builds a library over cases with a freshly shuffled deck.
func NewLibrary(cases []*Case) *Library {
	l := &Library{
		cases: cases,
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}
	l.reshuffle()
	return l
}

func (l *Library) reshuffle() {
	l.deck = make([]*Case, len(l.cases))
	copy(l.deck, l.cases)
	l.rng.Shuffle(len(l.deck), func(i, j int) {
		l.deck[i], l.deck[j] = l.deck[j], l.deck[i]
	})
}

// Draw takes the next case off the deck.
func (l *Library) Draw() (*Case, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.deck) == 0 {
		return nil, ErrNoCasesLeft
	}
	c := l.deck[len(l.deck)-1]
	l.deck = l.deck[:len(l.deck)-1]
	return c, nil
}

// Reset reshuffles all cases back into the deck.
func (l *Library) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reshuffle()
}

// Remaining reports how many cases are still in the deck.
func (l *Library) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.deck)
}

// ByIndex returns the case with the given load-order index.
func (l *Library) ByIndex(i int) (*Case, bool) {
	if i < 0 || i >= len(l.cases) {
		return nil, false
	}
	return l.cases[i], true
}

// Len reports the total number of loaded cases.
func (l *Library) Len() int { return len(l.cases) }

// Diagnoses returns the distinct diagnoses across the library, in
// load order.
func (l *Library) Diagnoses() []string {
	seen := make(map[string]bool, len(l.cases))
	var out []string
	for _, c := range l.cases {
		if c.Diagnosis == "" || seen[c.Diagnosis] {
			continue
		}
		seen[c.Diagnosis] = true
		out = append(out, c.Diagnosis)
	}
	return out
}
