package session

import (
	"context"
	"sync"
)

// Store serialises every state change through one goroutine. Readers get
// snapshots (State) or a stream of them (Subscribe).
type Store struct {
	actions chan Action
	reads   chan chan State
	subs    chan subscriber
	unsubs  chan chan State
	quit    chan struct{}
	done    chan struct{}

	closeOnce sync.Once
}

type subscriber struct {
	ch chan State
}

// NewStore starts the owning goroutine with initial as the first state.
// Close must be called to stop it.
func NewStore(initial State) *Store {
	s := &Store{
		actions: make(chan Action),
		reads:   make(chan chan State),
		subs:    make(chan subscriber),
		unsubs:  make(chan chan State),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.loop(initial)
	return s
}

func (s *Store) loop(state State) {
	defer close(s.done)

	subs := make(map[chan State]struct{})
	defer func() {
		for ch := range subs {
			close(ch)
		}
	}()

	for {
		select {
		case a := <-s.actions:
			next := Reduce(state, a)
			if next == state {
				continue
			}
			state = next
			for ch := range subs {
				offer(ch, state)
			}
		case reply := <-s.reads:
			reply <- state
		case sub := <-s.subs:
			subs[sub.ch] = struct{}{}
			offer(sub.ch, state)
		case ch := <-s.unsubs:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
		case <-s.quit:
			return
		}
	}
}

// offer replaces whatever is buffered in ch with st, so a slow reader only
// ever sees the latest state and never blocks the loop.
func offer(ch chan State, st State) {
	select {
	case <-ch:
	default:
	}
	ch <- st
}

// Dispatch applies a. It is a no-op after Close.
func (s *Store) Dispatch(a Action) {
	select {
	case s.actions <- a:
	case <-s.quit:
	}
}

// State returns the current state. After Close it returns the zero State.
func (s *Store) State() State {
	reply := make(chan State, 1)
	select {
	case s.reads <- reply:
		return <-reply
	case <-s.quit:
		return State{}
	}
}

// Subscribe returns a channel that first yields the current state and then
// every change. Intermediate states may be skipped when the reader lags. The
// channel is closed when ctx is done or the store is closed.
func (s *Store) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	select {
	case s.subs <- subscriber{ch: ch}:
	case <-s.quit:
		close(ch)
		return ch
	}

	go func() {
		select {
		case <-ctx.Done():
			select {
			case s.unsubs <- ch:
			case <-s.done:
			}
		case <-s.done:
		}
	}()

	return ch
}

// Close stops the store and closes every subscription. It is safe to call
// more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}
