package cart

import (
	"context"
	"sync"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/watch"
)

// State is the combined cart view: the joined lines and the running
// total.
type State struct {
	Items      []shop.CartWithProduct
	TotalPrice float64
}

// Service combines the live cart stream and the live total into one
// state, the way the original presentation layer consumed them.
type Service struct {
	repo *Repository

	mu       sync.Mutex
	latest   State
	ready    bool
	subs     map[int]chan State
	nextSub  int
	onChange func(State)
}

// NewService creates a new cart service.
func NewService(repo *Repository) *Service {
	return &Service{
		repo: repo,
		subs: make(map[int]chan State),
	}
}

// SetOnChange registers a hook invoked with every recombined state.
func (s *Service) SetOnChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Run drives the combination until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	items := s.repo.ObserveCartWithProducts(ctx)
	totals := s.repo.ObserveTotalPrice(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-items:
			if !ok {
				return
			}
			s.mu.Lock()
			s.latest.Items = snapshot
			s.mu.Unlock()
		case total, ok := <-totals:
			if !ok {
				return
			}
			s.mu.Lock()
			s.latest.TotalPrice = total
			s.mu.Unlock()
		}
		s.emit()
	}
}

// State returns the latest combined state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Subscribe returns a live stream of combined cart states. Latest-wins
// delivery; the channel closes when ctx is cancelled.
func (s *Service) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	if s.ready {
		watch.Push(ch, s.latest)
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// AddOrIncrement adds a product to the cart or bumps its quantity.
func (s *Service) AddOrIncrement(productID int64) error {
	return s.repo.AddOrIncrement(productID)
}

// DecrementOrRemove lowers a line's quantity or removes it at one.
func (s *Service) DecrementOrRemove(line shop.CartItem) error {
	return s.repo.DecrementOrRemove(line)
}

// DeleteLine removes a line outright.
func (s *Service) DeleteLine(line shop.CartItem) error {
	return s.repo.DeleteLine(line)
}

// Clear empties the cart.
func (s *Service) Clear() error {
	return s.repo.Clear()
}

func (s *Service) emit() {
	s.mu.Lock()
	if s.latest.Items == nil {
		s.latest.Items = []shop.CartWithProduct{}
	}
	s.ready = true
	state := s.latest
	for _, ch := range s.subs {
		watch.Push(ch, state)
	}
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(state)
	}
}
