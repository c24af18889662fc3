// Package shipping resolves the shopper's postal code to an address.
package shipping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	PostalCodeLength = 8

	MsgNotFound = "CEP não encontrado"
	MsgFailed   = "Erro ao buscar CEP. Tente novamente."
)

// ErrNotFound is returned by a Resolver when the code is well formed but
// unknown.
var ErrNotFound = errors.New("postal code not found")

type Resolver interface {
	Resolve(ctx context.Context, cep string) (*domain.Address, error)
}

// Target holds the postal code and the resolved address. The selection
// state implements it so both survive a reload.
type Target interface {
	PostalCode() string
	Address() *domain.Address
	SetPostalCode(ctx context.Context, cep string)
	SetAddress(ctx context.Context, addr *domain.Address)
}

type Phase int

const (
	Idle Phase = iota
	Loading
	Resolved
	NotFound
	Failed
)

var phaseNames = [...]string{"idle", "loading", "resolved", "not_found", "failed"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown lookup phase %q", b)
}

type View struct {
	Phase      Phase           `json:"phase"`
	PostalCode string          `json:"cep"`
	Address    *domain.Address `json:"address,omitempty"`
	Error      string          `json:"error,omitempty"`
}

func (v View) Loading() bool { return v.Phase == Loading }

// Lookup is the shipping lookup state machine. Every request is tagged with
// a sequence number; a response is applied only while its number and postal
// code are still current, so a late answer never overwrites newer input.
type Lookup struct {
	mu       sync.Mutex
	resolver Resolver
	target   Target
	log      *slog.Logger

	seq    uint64
	phase  Phase
	errMsg string
}

func NewLookup(resolver Resolver, target Target, log *slog.Logger) *Lookup {
	if log == nil {
		log = slog.Default()
	}
	l := &Lookup{resolver: resolver, target: target, log: log}
	// a restored address counts as resolved
	if len(target.PostalCode()) == PostalCodeLength && target.Address() != nil {
		l.phase = Resolved
	}
	return l
}

// Normalize strips everything but digits and keeps at most eight of them.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if b.Len() == PostalCodeLength {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SetPostalCode stores the normalized input. A changed code invalidates any
// request in flight; fewer than eight digits returns the lookup to Idle.
func (l *Lookup) SetPostalCode(ctx context.Context, raw string) View {
	code := Normalize(raw)

	l.mu.Lock()
	defer l.mu.Unlock()

	if code != l.target.PostalCode() {
		l.seq++
		if len(code) < PostalCodeLength || l.phase == Loading {
			l.phase = Idle
			l.errMsg = ""
		}
	}
	l.target.SetPostalCode(ctx, code)
	return l.view()
}

// Lookup resolves the current postal code. It does nothing unless the code
// has exactly eight digits. No lock is held while the resolver runs.
func (l *Lookup) Lookup(ctx context.Context) View {
	l.mu.Lock()
	code := l.target.PostalCode()
	if len(code) != PostalCodeLength {
		v := l.view()
		l.mu.Unlock()
		return v
	}
	l.seq++
	ticket := l.seq
	l.phase = Loading
	l.errMsg = ""
	l.mu.Unlock()

	addr, err := l.resolver.Resolve(ctx, code)

	l.mu.Lock()
	defer l.mu.Unlock()

	if ticket != l.seq || code != l.target.PostalCode() {
		l.log.DebugContext(ctx, "dropping stale postal code response", "cep", code)
		return l.view()
	}

	switch {
	case err == nil && addr != nil && !addr.Erro:
		l.phase = Resolved
		l.target.SetAddress(ctx, addr)
	case errors.Is(err, ErrNotFound) || (err == nil && (addr == nil || addr.Erro)):
		l.phase = NotFound
		l.errMsg = MsgNotFound
		l.target.SetAddress(ctx, nil)
	default:
		l.log.ErrorContext(ctx, "postal code lookup failed", "cep", code, "error", err)
		l.phase = Failed
		l.errMsg = MsgFailed
		l.target.SetAddress(ctx, nil)
	}
	return l.view()
}

func (l *Lookup) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view()
}

func (l *Lookup) view() View {
	v := View{
		Phase:      l.phase,
		PostalCode: l.target.PostalCode(),
		Error:      l.errMsg,
	}
	if l.errMsg == "" {
		v.Address = l.target.Address()
	}
	return v
}
