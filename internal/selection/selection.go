// Package selection tracks the shopper's variant choices, active image and
// shipping input, and keeps a timestamped snapshot of them in the store.
package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/store"
)

const (
	SnapshotKey = "productPageState"

	// DefaultWindow is how long a persisted snapshot may be resumed.
	DefaultWindow = 15 * time.Minute

	PlaceholderImage = "https://via.placeholder.com/600x400?text=Imagem+Indispon%C3%ADvel"
)

var (
	ErrUnknownVariant = errors.New("unknown variant")
	ErrUnavailable    = errors.New("variant value unavailable")
)

type State struct {
	mu      sync.RWMutex
	product *domain.Product
	store   *store.Adapter
	log     *slog.Logger
	now     func() time.Time
	window  time.Duration
	strict  bool

	selection     domain.Selection
	cep           string
	address       *domain.Address
	selectedImage string
}

type Option func(*State)

func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

func WithWindow(d time.Duration) Option {
	return func(s *State) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithStrictAvailability makes SelectVariantValue reject unknown and
// unavailable values instead of storing them.
func WithStrictAvailability(strict bool) Option {
	return func(s *State) { s.strict = strict }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *State) { s.log = l }
}

func New(product *domain.Product, adapter *store.Adapter, opts ...Option) *State {
	s := &State{
		product:       product,
		store:         adapter,
		log:           slog.Default(),
		now:           time.Now,
		window:        DefaultWindow,
		selection:     domain.Selection{},
		selectedImage: product.FirstImageURL(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore applies the persisted snapshot if it is well formed and younger
// than the window. Otherwise the persisted copy is deleted and the defaults
// stay in place. Each field of the snapshot is applied on its own.
func (s *State) Restore(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap domain.Snapshot
	if !s.store.Load(ctx, SnapshotKey, &snap) {
		s.store.Delete(ctx, SnapshotKey)
		return false
	}
	if !snap.Valid() {
		s.log.WarnContext(ctx, "discarding malformed selection snapshot")
		s.store.Delete(ctx, SnapshotKey)
		return false
	}
	if age := snap.Age(s.now()); age >= s.window {
		s.log.InfoContext(ctx, "discarding expired selection snapshot", "age", age)
		s.store.Delete(ctx, SnapshotKey)
		return false
	}

	st := snap.State
	if len(st.SelectedVariants) > 0 {
		s.selection = s.restorable(st.SelectedVariants)
	}
	if st.CEP != "" {
		s.cep = st.CEP
	}
	if st.Address != nil {
		a := *st.Address
		s.address = &a
	}
	if st.SelectedImage != "" {
		s.selectedImage = st.SelectedImage
	}

	s.save(ctx)
	return true
}

func (s *State) restorable(sel domain.Selection) domain.Selection {
	out := make(domain.Selection, len(sel))
	for axis, value := range sel {
		if s.strict && s.validate(axis, value) != nil {
			continue
		}
		out[axis] = value
	}
	return out
}

// SelectVariantValue sets the chosen value of one axis.
func (s *State) SelectVariantValue(ctx context.Context, axisID, valueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.strict {
		if err := s.validate(axisID, valueID); err != nil {
			return err
		}
	}
	s.selection[axisID] = valueID
	s.save(ctx)
	return nil
}

func (s *State) validate(axisID, valueID string) error {
	v, ok := s.product.Variant(axisID)
	if !ok {
		return fmt.Errorf("%w: axis %q", ErrUnknownVariant, axisID)
	}
	val, ok := v.Value(valueID)
	if !ok {
		return fmt.Errorf("%w: %s=%q", ErrUnknownVariant, axisID, valueID)
	}
	if !val.Available {
		return fmt.Errorf("%w: %s", ErrUnavailable, val.Name)
	}
	return nil
}

func (s *State) SetSelectedImage(ctx context.Context, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedImage = url
	s.save(ctx)
}

func (s *State) SetPostalCode(ctx context.Context, cep string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cep = cep
	s.save(ctx)
}

func (s *State) SetAddress(ctx context.Context, addr *domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addr != nil {
		a := *addr
		addr = &a
	}
	s.address = addr
	s.save(ctx)
}

func (s *State) Selection() domain.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.selection)
}

func (s *State) IsSelected(axisID, valueID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection[axisID] == valueID
}

func (s *State) SelectedImage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedImage
}

// DisplayImage is the image to show: the selected one while it belongs to
// the product, then the first product image, then a placeholder.
func (s *State) DisplayImage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selectedImage != "" && s.product.HasImage(s.selectedImage) {
		return s.selectedImage
	}
	if first := s.product.FirstImageURL(); first != "" {
		return first
	}
	return PlaceholderImage
}

func (s *State) PostalCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cep
}

func (s *State) Address() *domain.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.address == nil {
		return nil
	}
	a := *s.address
	return &a
}

func (s *State) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *State) snapshot() domain.Snapshot {
	img := s.selectedImage
	if img == "" {
		img = s.product.FirstImageURL()
	}
	var addr *domain.Address
	if s.address != nil {
		a := *s.address
		addr = &a
	}
	return domain.Snapshot{
		Timestamp: s.now().UnixMilli(),
		State: &domain.PageState{
			SelectedVariants: maps.Clone(s.selection),
			CEP:              s.cep,
			Address:          addr,
			SelectedImage:    img,
		},
	}
}

// save must be called with mu held.
func (s *State) save(ctx context.Context) {
	s.store.Save(ctx, SnapshotKey, s.snapshot())
}
