package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"coffee-slot-machine/internal/domain"
	"coffee-slot-machine/internal/repo"
	"coffee-slot-machine/internal/service"
)

func Test_GetCoinDepot_SixTypes_ThreePerType_1155Cents(t *testing.T) {
	ctx, svc, _ := setupService(t)

	depot, err := svc.GetCoinDepot(ctx)

	require.NoError(t, err)
	assert.Len(t, depot, 6)
	total := 0
	for _, stock := range depot {
		assert.Equal(t, 3, stock.Amount)
		total += int(stock.CoinValue) * stock.Amount
	}
	assert.Equal(t, 1155, total)
}

func Test_GetProducts_NineProducts_FromCappuccinoToRistretto(t *testing.T) {
	ctx, svc, _ := setupService(t)

	products, err := svc.GetProducts(ctx)

	require.NoError(t, err)
	require.Len(t, products, 9)
	assert.Equal(t, "Cappuccino", products[0].Name)
	assert.Equal(t, "Ristretto", products[8].Name)
}

func Test_BuyOneCoffee_OneCoinIsEnough(t *testing.T) {
	// setup
	ctx, svc, _ := setupService(t)
	order := orderProduct(ctx, t, svc, "Cappuccino")

	// act
	updated, completed, err := svc.InsertCoin(ctx, order.ID, 100)

	// assert
	require.NoError(t, err)
	assert.True(t, completed, "100 cents are enough")
	assert.Equal(t, domain.Cents(100), updated.ThrownInCents())
	assert.Equal(t, domain.Cents(35), updated.ChangeDueCents())
	assert.Equal(t, domain.Cents(0), updated.DonationCents())
	assert.Equal(t, "20;10;5", updated.ReturnCoins().String())

	assertDepot(ctx, t, svc, "3*200 + 4*100 + 3*50 + 2*20 + 2*10 + 2*5", 1220)

	orders, err := svc.GetAllOrdersWithProduct(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.Cents(0), orders[0].DonationCents())
	assert.Equal(t, domain.Cents(100), orders[0].ThrownInCents())
	assert.Equal(t, "Cappuccino", orders[0].Product.Name)
}

func Test_BuyOneCoffee_ExactThrowInOneCoin(t *testing.T) {
	ctx, svc, _ := setupService(t)
	order := orderProduct(ctx, t, svc, "Espresso")

	updated, completed, err := svc.InsertCoin(ctx, order.ID, 50)

	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, domain.Cents(50), updated.ThrownInCents())
	assert.Empty(t, updated.ReturnCoins())
	assert.Equal(t, domain.Cents(0), updated.DonationCents())
	assertDepot(ctx, t, svc, "3*200 + 3*100 + 4*50 + 3*20 + 3*10 + 3*5", 1205)
}

func Test_BuyOneCoffee_MoreCoins(t *testing.T) {
	ctx, svc, _ := setupService(t)
	order := orderProduct(ctx, t, svc, "Espresso")

	var (
		updated   *domain.Order
		completed bool
		err       error
	)
	for _, coin := range []domain.Cents{20, 10, 10} {
		updated, completed, err = svc.InsertCoin(ctx, order.ID, coin)
		require.NoError(t, err)
		assert.False(t, completed)
	}
	assertDepot(ctx, t, svc, "3*200 + 3*100 + 3*50 + 3*20 + 3*10 + 3*5", 1155)

	updated, completed, err = svc.InsertCoin(ctx, order.ID, 10)

	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, domain.Cents(50), updated.ThrownInCents())
	assert.Empty(t, updated.ReturnCoins())
	assertDepot(ctx, t, svc, "3*200 + 3*100 + 3*50 + 4*20 + 6*10 + 3*5", 1205)
}

func Test_BuyMoreCoffees_OneCoinEach(t *testing.T) {
	ctx, svc, _ := setupService(t)

	order1 := orderProduct(ctx, t, svc, "Espresso")
	order1, done1, err := svc.InsertCoin(ctx, order1.ID, 50)
	require.NoError(t, err)
	order2 := orderProduct(ctx, t, svc, "Latte")
	order2, done2, err := svc.InsertCoin(ctx, order2.ID, 100)
	require.NoError(t, err)
	order3 := orderProduct(ctx, t, svc, "Espresso")
	order3, done3, err := svc.InsertCoin(ctx, order3.ID, 200)
	require.NoError(t, err)

	assert.True(t, done1)
	assert.True(t, done2)
	assert.True(t, done3)
	assert.Equal(t, "", order1.ReturnCoins().String())
	assert.Equal(t, "50", order2.ReturnCoins().String())
	assert.Equal(t, "100;50", order3.ReturnCoins().String())
	assertDepot(ctx, t, svc, "4*200 + 3*100 + 2*50 + 3*20 + 3*10 + 3*5", 1305)

	orders, err := svc.GetAllOrdersWithProduct(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "Espresso", orders[0].Product.Name)
	assert.Equal(t, "Latte", orders[1].Product.Name)
	assert.Equal(t, "Espresso", orders[2].Product.Name)
	assert.Equal(t, domain.Cents(200), orders[2].ThrownInCents())
}

func Test_BuyMoreCoffees_UntilDonation(t *testing.T) {
	ctx, svc, _ := setupService(t)

	expected := []struct {
		product     string
		returnCoins string
		donation    domain.Cents
	}{
		{"Espresso", "50", 0},
		{"Latte", "50", 0},
		{"Espresso", "50", 0},
		{"Latte", "20;20;10", 0},
		{"Latte", "20;10;10;5;5", 0},
		{"Doppio", "5", 15}, // no 20 or 10 left, only the last 5 goes back
	}

	for i, e := range expected {
		order := orderProduct(ctx, t, svc, e.product)

		updated, completed, err := svc.InsertCoin(ctx, order.ID, 100)

		require.NoError(t, err)
		assert.True(t, completed)
		assert.Equal(t, e.returnCoins, updated.ReturnCoins().String(), "order %d", i+1)
		assert.Equal(t, e.donation, updated.DonationCents(), "order %d", i+1)
		assert.Equal(t,
			updated.ThrownInCents()-updated.Product.PriceCents,
			updated.ReturnCoins().Sum()+updated.DonationCents(),
			"order %d must account for every cent", i+1)
	}

	assertDepot(ctx, t, svc, "3*200 + 9*100 + 0*50 + 0*20 + 0*10 + 0*5", 1500)

	orders, err := svc.GetAllOrdersWithProduct(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 6)
	assert.Equal(t, domain.Cents(15), orders[5].DonationCents())
	assert.Equal(t, "Doppio", orders[5].Product.Name)
}

func Test_FiftiesDrained_ThenFullDonation(t *testing.T) {
	// setup: two 50s and nothing else
	ctx := context.Background()
	store := repo.NewMemoryStore(domain.DefaultCatalog(), 0)
	seedDepot(ctx, t, store, map[domain.Cents]int{50: 2})
	svc := service.NewOrderService(store, store.Products(), store, store, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		order := orderProduct(ctx, t, svc, "Espresso")
		updated, _, err := svc.InsertCoin(ctx, order.ID, 100)
		require.NoError(t, err)
		assert.Equal(t, "50", updated.ReturnCoins().String())
	}

	// act
	order := orderProduct(ctx, t, svc, "Espresso")
	updated, completed, err := svc.InsertCoin(ctx, order.ID, 100)

	// assert
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Empty(t, updated.ReturnCoins())
	assert.Equal(t, domain.Cents(50), updated.DonationCents())
	assertDepot(ctx, t, svc, "0*200 + 3*100 + 0*50 + 0*20 + 0*10 + 0*5", 300)
}

func Test_DepotTotal_GrowsByThrownInMinusReturned(t *testing.T) {
	ctx, svc, _ := setupService(t)

	before := depotTotal(ctx, t, svc)
	order := orderProduct(ctx, t, svc, "Ristretto")
	_, _, err := svc.InsertCoin(ctx, order.ID, 20)
	require.NoError(t, err)
	_, _, err = svc.InsertCoin(ctx, order.ID, 20)
	require.NoError(t, err)
	updated, completed, err := svc.InsertCoin(ctx, order.ID, 50)
	require.NoError(t, err)
	require.True(t, completed)

	after := depotTotal(ctx, t, svc)

	assert.Equal(t, before+int(updated.ThrownInCents())-int(updated.ReturnCoins().Sum()), after)
	assert.Equal(t, "20;20;5", updated.ReturnCoins().String())
}

func Test_InsertCoin_Errors(t *testing.T) {
	ctx, svc, _ := setupService(t)

	t.Run("unknown order", func(t *testing.T) {
		_, _, err := svc.InsertCoin(ctx, uuid.New(), 50)
		assert.ErrorIs(t, err, service.ErrOrderNotFound)
	})

	t.Run("foreign coin leaves order untouched", func(t *testing.T) {
		order := orderProduct(ctx, t, svc, "Latte")

		_, completed, err := svc.InsertCoin(ctx, order.ID, 3)

		assert.ErrorIs(t, err, domain.ErrInvalidDenomination)
		assert.False(t, completed)
		orders, err := svc.GetAllOrdersWithProduct(ctx)
		require.NoError(t, err)
		assert.Empty(t, orders[len(orders)-1].InsertedCoins())
	})

	t.Run("coin into completed order", func(t *testing.T) {
		order := orderProduct(ctx, t, svc, "Latte")
		_, _, err := svc.InsertCoin(ctx, order.ID, 50)
		require.NoError(t, err)
		depotBefore := depotTotal(ctx, t, svc)

		_, _, err = svc.InsertCoin(ctx, order.ID, 50)

		assert.ErrorIs(t, err, domain.ErrInvalidState)
		assert.Equal(t, depotBefore, depotTotal(ctx, t, svc))
	})
}

func Test_OrderCoffee_UnknownProduct(t *testing.T) {
	ctx, svc, _ := setupService(t)

	order, err := svc.OrderCoffee(ctx, 999)

	assert.ErrorIs(t, err, service.ErrProductNotFound)
	assert.Nil(t, order)
}

func Test_OrderCoffee_UsesClock(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryStore(domain.DefaultCatalog(), 3)
	fixed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc := service.NewOrderService(store, store.Products(), store, store, zaptest.NewLogger(t),
		service.WithClock(func() time.Time { return fixed }))

	order, err := svc.OrderCoffee(ctx, 4)

	require.NoError(t, err)
	assert.Equal(t, fixed, order.CreatedAt)
	assert.Equal(t, domain.OrderOpen, order.Status())
}

// Test helper functions

func setupService(t *testing.T) (context.Context, service.OrderService, *repo.MemoryStore) {
	t.Helper()

	store := repo.NewMemoryStore(domain.DefaultCatalog(), 3)
	svc := service.NewOrderService(store, store.Products(), store, store, zaptest.NewLogger(t))

	return context.Background(), svc, store
}

func seedDepot(ctx context.Context, t *testing.T, store *repo.MemoryStore, counts map[domain.Cents]int) {
	t.Helper()

	depot, err := domain.NewCoinDepot(counts)
	require.NoError(t, err)
	require.NoError(t, store.SaveDepot(ctx, depot))
}

func orderProduct(ctx context.Context, t *testing.T, svc service.OrderService, name string) *domain.Order {
	t.Helper()

	products, err := svc.GetProducts(ctx)
	require.NoError(t, err)

	for _, p := range products {
		if p.Name == name {
			order, err := svc.OrderCoffee(ctx, p.ID)
			require.NoError(t, err)
			return order
		}
	}

	t.Fatalf("product %q not in catalog", name)
	return nil
}

func depotTotal(ctx context.Context, t *testing.T, svc service.OrderService) int {
	t.Helper()

	stocks, err := svc.GetCoinDepot(ctx)
	require.NoError(t, err)

	return service.NewDepotReport(stocks).TotalCents
}

func assertDepot(ctx context.Context, t *testing.T, svc service.OrderService, expected string, expectedTotal int) {
	t.Helper()

	depotString, err := svc.GetCoinDepotString(ctx)
	require.NoError(t, err)
	assert.Equal(t, expected, depotString)
	assert.Equal(t, expectedTotal, depotTotal(ctx, t, svc))
}
