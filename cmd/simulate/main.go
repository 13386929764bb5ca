package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"coffee-slot-machine/internal/config"
	"coffee-slot-machine/internal/database"
	"coffee-slot-machine/internal/domain"
	"coffee-slot-machine/internal/infrastructure/coinslot"
	"coffee-slot-machine/internal/logging"
	"coffee-slot-machine/internal/repo"
	"coffee-slot-machine/internal/service"
	"coffee-slot-machine/internal/worker"
)

type stores struct {
	tx       repo.Transactor
	products repo.ProductRepo
	coins    repo.CoinRepo
	orders   repo.OrderRepo
	close    func()
}

func main() {
	orderCount := flag.Int("orders", 20, "number of orders to simulate")
	seed := flag.Uint64("seed", 1, "seed for the customer's coin choice")
	asJSON := flag.Bool("json", false, "print receipts and depot as JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *orderCount, *seed, *asJSON); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, orderCount int, seed uint64, asJSON bool) error {
	s, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	orderService := service.NewOrderService(s.tx, s.products, s.coins, s.orders, logger)
	slot := coinslot.NewCoinSlot()
	customer := coinslot.NewCustomer(seed)

	products, err := orderService.GetProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return errors.New("no products to sell")
	}

	if !asJSON {
		depot, err := orderService.GetCoinDepotString(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("--- STARTING SIMULATION (%d ORDERS) ---\n", orderCount)
		fmt.Printf("Depot: %s\n", depot)
	}

	receipts := make([]service.Receipt, 0, orderCount)
	for i := 0; i < orderCount; i++ {
		product := products[(i*7+int(seed%uint64(len(products))))%len(products)]

		order, err := orderService.OrderCoffee(ctx, product.ID)
		if err != nil {
			return err
		}

		for _, coin := range customer.CoinsFor(product.PriceCents) {
			if err := slot.Accept(ctx, coin); err != nil {
				if errors.Is(err, domain.ErrInvalidDenomination) {
					logger.Warn("coin rejected by slot", zap.Stringer("order_id", order.ID), zap.Int("coin", int(coin)))
					continue
				}
				return err
			}

			var completed bool
			order, completed, err = orderService.InsertCoin(ctx, order.ID, coin)
			if err != nil {
				return err
			}
			if completed {
				break
			}
		}

		receipts = append(receipts, service.NewReceipt(order))
		if !asJSON {
			fmt.Printf("[%d] %-10s %3d ct  paid %-14s return %-12s donated %d\n",
				i+1, product.Name, product.PriceCents,
				order.InsertedCoins(), order.ReturnCoins(), order.DonationCents())
		}
	}

	stale, err := worker.NewStaleOrderWorker(s.orders, logger, cfg.Worker.StaleOrderAge, cfg.Worker.Interval).Audit(ctx)
	if err != nil {
		return err
	}

	stocks, err := orderService.GetCoinDepot(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		out, err := service.MarshalReport(receipts, service.NewDepotReport(stocks))
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	depot, err := orderService.GetCoinDepotString(ctx)
	if err != nil {
		return err
	}
	fmt.Println("---------------------------------------------------")
	fmt.Printf("Depot: %s = %d ct\n", depot, service.NewDepotReport(stocks).TotalCents)
	fmt.Printf("Rejected coins: %s\n", slot.Rejected())
	fmt.Printf("Stale open orders: %d\n", stale)
	return nil
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, error) {
	if cfg.Store == config.StoreMemory {
		store := repo.NewMemoryStore(domain.DefaultCatalog(), cfg.Machine.CoinsPerDenomination)
		return stores{tx: store, products: store.Products(), coins: store, orders: store, close: func() {}}, nil
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return stores{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	if err := database.Seed(ctx, db, domain.DefaultCatalog(), cfg.Machine.CoinsPerDenomination); err != nil {
		_ = db.Close()
		return stores{}, err
	}

	logger.Info("connected to postgres",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.Any("health", database.Health(ctx, db)),
	)

	return stores{
		tx:       repo.NewTransactor(db),
		products: repo.NewProductRepo(db),
		coins:    repo.NewCoinRepo(db),
		orders:   repo.NewOrderRepo(db),
		close:    func() { _ = db.Close() },
	}, nil
}
