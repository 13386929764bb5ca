package coinslot

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"coffee-slot-machine/internal/domain"
)

// CoinSlot is the physical coin acceptor in front of the order service.
type CoinSlot interface {
	// Accept checks a dropped coin. Foreign coins are rejected with
	// domain.ErrInvalidDenomination and fall through to the return tray.
	Accept(ctx context.Context, coin domain.Cents) error
	// Rejected returns every coin that fell through so far.
	Rejected() domain.Coins
}

type coinSlot struct {
	mu       sync.RWMutex
	rejected domain.Coins
}

func NewCoinSlot() CoinSlot {
	return &coinSlot{}
}

func (s *coinSlot) Accept(ctx context.Context, coin domain.Cents) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if domain.IsDenomination(coin) {
		return nil
	}

	s.mu.Lock()
	s.rejected = append(s.rejected, coin)
	s.mu.Unlock()

	return fmt.Errorf("%w: %d", domain.ErrInvalidDenomination, coin)
}

func (s *coinSlot) Rejected() domain.Coins {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(domain.Coins(nil), s.rejected...)
}

// foreignCoins are coins a customer may have in their pocket that the slot
// does not take.
var foreignCoins = []domain.Cents{1, 2}

// Customer picks coins for a purchase. The same seed yields the same coins.
type Customer struct {
	rng *rand.Rand
}

func NewCustomer(seed uint64) *Customer {
	return &Customer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// CoinsFor returns the coins dropped to pay priceCents. The valid coins
// always reach the price; one foreign coin may be mixed in.
func (c *Customer) CoinsFor(priceCents domain.Cents) domain.Coins {
	var coins domain.Coins

	chance := c.rng.IntN(100)
	switch {
	// pays with a single large coin
	case chance < 40:
		coins = append(coins, c.largeCoin(priceCents))

	// digs through the wallet
	case chance < 90:
		var sum domain.Cents
		for sum < priceCents {
			coin := domain.Denominations[c.rng.IntN(len(domain.Denominations))]
			coins = append(coins, coin)
			sum += coin
		}

	// tries a foreign coin first, then pays with one large coin
	default:
		coins = append(coins, foreignCoins[c.rng.IntN(len(foreignCoins))])
		coins = append(coins, c.largeCoin(priceCents))
	}

	return coins
}

func (c *Customer) largeCoin(priceCents domain.Cents) domain.Cents {
	var candidates []domain.Cents
	for _, d := range domain.Denominations {
		if d >= priceCents {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return domain.Denominations[len(domain.Denominations)-1]
	}
	return candidates[c.rng.IntN(len(candidates))]
}
