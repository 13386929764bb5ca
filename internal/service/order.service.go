package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coffee-slot-machine/internal/domain"
	"coffee-slot-machine/internal/repo"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	// ErrDepotInconsistent means the depot could not pay out coins the change
	// computation saw as available. It is fatal and must not be retried.
	ErrDepotInconsistent = errors.New("coin depot is inconsistent")
)

// OrderService runs one purchase after the other against the coin depot.
type OrderService interface {
	// GetProducts returns all products sorted by name.
	GetProducts(ctx context.Context) ([]domain.Product, error)
	// OrderCoffee opens an order for the product.
	OrderCoffee(ctx context.Context, productID int64) (*domain.Order, error)
	// InsertCoin feeds one coin into the order. When the price is reached the
	// inserted coins go into the depot and the change leaves it.
	InsertCoin(ctx context.Context, orderID uuid.UUID, coin domain.Cents) (*domain.Order, bool, error)
	// GetCoinDepot returns the depot content, largest coin first.
	GetCoinDepot(ctx context.Context) ([]domain.CoinStock, error)
	GetCoinDepotString(ctx context.Context) (string, error)
	GetAllOrdersWithProduct(ctx context.Context) ([]domain.Order, error)
}

type orderService struct {
	tx          repo.Transactor
	productRepo repo.ProductRepo
	coinRepo    repo.CoinRepo
	orderRepo   repo.OrderRepo
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures the order service.
type Option func(*orderService)

// WithClock replaces time.Now for order timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *orderService) {
		s.now = now
	}
}

func NewOrderService(
	tx repo.Transactor,
	productRepo repo.ProductRepo,
	coinRepo repo.CoinRepo,
	orderRepo repo.OrderRepo,
	logger *zap.Logger,
	opts ...Option,
) OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &orderService{
		tx:          tx,
		productRepo: productRepo,
		coinRepo:    coinRepo,
		orderRepo:   orderRepo,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *orderService) GetProducts(ctx context.Context) ([]domain.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *orderService) OrderCoffee(ctx context.Context, productID int64) (*domain.Order, error) {
	product, err := s.productRepo.FindById(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}

	order, err := domain.NewOrder(*product, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order opened",
		zap.Stringer("order_id", order.ID),
		zap.String("product", product.Name),
		zap.Int("price_cents", int(product.PriceCents)),
	)

	return order, nil
}

func (s *orderService) InsertCoin(ctx context.Context, orderID uuid.UUID, coin domain.Cents) (*domain.Order, bool, error) {
	var (
		order     *domain.Order
		completed bool
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.FindById(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}

		depot, err := s.coinRepo.LoadDepot(ctx)
		if err != nil {
			return err
		}

		completed, err = order.InsertCoin(coin, depot)
		if err != nil {
			return err
		}
		order.UpdatedAt = s.now()

		if completed {
			if err := settle(depot, order); err != nil {
				return err
			}
			if err := s.coinRepo.SaveDepot(ctx, depot); err != nil {
				return err
			}
		}

		return s.orderRepo.UpdateOrder(ctx, order)
	})
	if err != nil {
		if errors.Is(err, ErrDepotInconsistent) {
			s.logger.Error("depot settlement failed", zap.Stringer("order_id", orderID), zap.Error(err))
		}
		return nil, false, err
	}

	if completed {
		s.logCompletion(order)
	}

	return order, completed, nil
}

// settle moves the inserted coins into the depot and the return coins out of
// it, one coin at a time.
func settle(depot *domain.CoinDepot, order *domain.Order) error {
	for _, c := range order.InsertedCoins() {
		if err := depot.AddCoin(c); err != nil {
			return errors.Join(ErrDepotInconsistent, err)
		}
	}
	for _, c := range order.ReturnCoins() {
		if err := depot.RemoveCoin(c); err != nil {
			return errors.Join(ErrDepotInconsistent, err)
		}
	}
	return nil
}

func (s *orderService) logCompletion(order *domain.Order) {
	fields := []zap.Field{
		zap.Stringer("order_id", order.ID),
		zap.String("product", order.Product.Name),
		zap.Int("thrown_in_cents", int(order.ThrownInCents())),
		zap.String("return_coins", order.ReturnCoins().String()),
		zap.Int("donation_cents", int(order.DonationCents())),
	}

	switch {
	case order.DonationCents() > 0:
		s.logger.Info(fmt.Sprintf("payment accepted, %d donated", order.DonationCents()), fields...)
	case len(order.ReturnCoins()) > 0:
		s.logger.Info(fmt.Sprintf("payment accepted, returning %s", order.ReturnCoins()), fields...)
	default:
		s.logger.Info("payment accepted", fields...)
	}
}

func (s *orderService) GetCoinDepot(ctx context.Context) ([]domain.CoinStock, error) {
	depot, err := s.coinRepo.LoadDepot(ctx)
	if err != nil {
		return nil, err
	}
	return depot.Inventory(), nil
}

func (s *orderService) GetCoinDepotString(ctx context.Context) (string, error) {
	depot, err := s.coinRepo.LoadDepot(ctx)
	if err != nil {
		return "", err
	}
	return depot.String(), nil
}

func (s *orderService) GetAllOrdersWithProduct(ctx context.Context) ([]domain.Order, error) {
	return s.orderRepo.FindAllWithProduct(ctx)
}
