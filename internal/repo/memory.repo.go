package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"coffee-slot-machine/internal/domain"
)

// MemoryStore keeps products, coins and orders in process memory. It
// implements every repository plus Transactor, so the service runs unchanged
// against it. A failed WithinTx restores the state from before the call.
type MemoryStore struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	coins    map[domain.Cents]int
	orders   []*domain.Order
}

type memTxKey struct{}

// NewMemoryStore seeds the store with the given catalog and a depot holding
// coinsPerDenomination of every coin.
func NewMemoryStore(products []domain.Product, coinsPerDenomination int) *MemoryStore {
	s := &MemoryStore{
		products: make(map[int64]domain.Product, len(products)),
		coins:    make(map[domain.Cents]int, len(domain.Denominations)),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	for _, stock := range domain.NewStandardCoinDepot(coinsPerDenomination).Inventory() {
		s.coins[stock.CoinValue] = stock.Amount
	}
	return s
}

func (s *MemoryStore) lock(ctx context.Context) func() {
	if _, inTx := ctx.Value(memTxKey{}).(bool); inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, inTx := ctx.Value(memTxKey{}).(bool); inTx {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coins := make(map[domain.Cents]int, len(s.coins))
	for value, amount := range s.coins {
		coins[value] = amount
	}
	orders := make([]*domain.Order, len(s.orders))
	for i, o := range s.orders {
		orders[i] = cloneOrder(o)
	}

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.coins = coins
		s.orders = orders
		return err
	}
	return nil
}

func (s *MemoryStore) FindAll(ctx context.Context) ([]domain.Product, error) {
	defer s.lock(ctx)()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *MemoryStore) FindProductById(ctx context.Context, id int64) (*domain.Product, error) {
	defer s.lock(ctx)()

	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) LoadDepot(ctx context.Context) (*domain.CoinDepot, error) {
	defer s.lock(ctx)()

	counts := make(map[domain.Cents]int, len(s.coins))
	for value, amount := range s.coins {
		counts[value] = amount
	}
	return domain.NewCoinDepot(counts)
}

func (s *MemoryStore) SaveDepot(ctx context.Context, depot *domain.CoinDepot) error {
	defer s.lock(ctx)()

	for _, stock := range depot.Inventory() {
		s.coins[stock.CoinValue] = stock.Amount
	}
	return nil
}

func (s *MemoryStore) FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	defer s.lock(ctx)()

	for _, o := range s.orders {
		if o.ID == id {
			return cloneOrder(o), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	defer s.lock(ctx)()

	s.orders = append(s.orders, cloneOrder(order))
	return nil
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, order *domain.Order) error {
	defer s.lock(ctx)()

	for i, o := range s.orders {
		if o.ID == order.ID {
			s.orders[i] = cloneOrder(order)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) FindAllWithProduct(ctx context.Context) ([]domain.Order, error) {
	defer s.lock(ctx)()

	orders := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, *cloneOrder(o))
	}
	return orders, nil
}

func (s *MemoryStore) FindStaleOpenOrders(ctx context.Context, olderThan time.Duration) ([]domain.Order, error) {
	defer s.lock(ctx)()

	cutoff := time.Now().Add(-olderThan)
	var orders []domain.Order
	for _, o := range s.orders {
		if o.Status() == domain.OrderOpen && o.UpdatedAt.Before(cutoff) {
			orders = append(orders, *cloneOrder(o))
		}
	}
	return orders, nil
}

// Products exposes the store as a ProductRepo; FindById on MemoryStore
// itself looks up orders.
func (s *MemoryStore) Products() ProductRepo {
	return memoryProducts{s}
}

type memoryProducts struct {
	s *MemoryStore
}

func (p memoryProducts) FindAll(ctx context.Context) ([]domain.Product, error) {
	return p.s.FindAll(ctx)
}

func (p memoryProducts) FindById(ctx context.Context, id int64) (*domain.Product, error) {
	return p.s.FindProductById(ctx, id)
}

func cloneOrder(o *domain.Order) *domain.Order {
	return domain.RestoreOrder(
		o.ID,
		o.Product,
		o.Status(),
		o.InsertedCoins(),
		o.ReturnCoins(),
		o.DonationCents(),
		o.CreatedAt,
		o.UpdatedAt,
	)
}
