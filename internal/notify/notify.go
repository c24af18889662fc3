// Package notify holds the single transient message shown to the shopper.
package notify

import (
	"sync"
	"time"
)

const DefaultLifetime = 3 * time.Second

type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
)

// Token identifies one Show call. Expiry and Dismiss only act on the
// message that carries their token.
type Token uint64

type Notification struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Token   Token     `json:"token"`
	ShownAt time.Time `json:"shownAt"`
}

type stopper interface {
	Stop() bool
}

// Signal keeps at most one visible notification. A new message replaces the
// current one and restarts the lifetime; nothing is queued.
type Signal struct {
	mu       sync.Mutex
	lifetime time.Duration
	current  *Notification
	timer    stopper
	seq      Token

	afterFunc func(time.Duration, func()) stopper
	now       func() time.Time
}

func NewSignal(lifetime time.Duration) *Signal {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Signal{
		lifetime: lifetime,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
	}
}

func (s *Signal) Success(message string) Token {
	return s.Show(KindSuccess, message)
}

func (s *Signal) Warning(message string) Token {
	return s.Show(KindWarning, message)
}

func (s *Signal) Show(kind Kind, message string) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.seq++
	tok := s.seq
	s.current = &Notification{
		Kind:    kind,
		Message: message,
		Token:   tok,
		ShownAt: s.now(),
	}
	s.timer = s.afterFunc(s.lifetime, func() { s.Dismiss(tok) })
	return tok
}

// Dismiss clears the current notification if it still carries tok.
func (s *Signal) Dismiss(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.Token != tok {
		return false
	}
	s.current = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return true
}

func (s *Signal) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Notification{}, false
	}
	return *s.current, true
}

// Close stops the pending expiry timer.
func (s *Signal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
