package domain

import (
	"fmt"
	"strings"
)

// CoinStock is the count on hand for one denomination.
type CoinStock struct {
	CoinValue Cents
	Amount    int
}

// CoinDepot is the machine's coin inventory. Counts never go negative.
type CoinDepot struct {
	counts map[Cents]int
}

// NewCoinDepot builds a depot from the given counts. Denominations that are
// missing from counts start at zero.
func NewCoinDepot(counts map[Cents]int) (*CoinDepot, error) {
	depot := &CoinDepot{counts: make(map[Cents]int, len(Denominations))}
	for _, d := range Denominations {
		depot.counts[d] = 0
	}

	for value, amount := range counts {
		if !IsDenomination(value) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidDenomination, value)
		}
		if amount < 0 {
			return nil, fmt.Errorf("%w: negative amount %d for %d", ErrInsufficientStock, amount, value)
		}
		depot.counts[value] = amount
	}

	return depot, nil
}

// NewStandardCoinDepot fills every denomination with the same count.
func NewStandardCoinDepot(perDenomination int) *CoinDepot {
	if perDenomination < 0 {
		perDenomination = 0
	}
	depot := &CoinDepot{counts: make(map[Cents]int, len(Denominations))}
	for _, d := range Denominations {
		depot.counts[d] = perDenomination
	}
	return depot
}

// Inventory returns the stock per denomination, largest value first.
func (d *CoinDepot) Inventory() []CoinStock {
	stocks := make([]CoinStock, 0, len(Denominations))
	for i := len(Denominations) - 1; i >= 0; i-- {
		value := Denominations[i]
		stocks = append(stocks, CoinStock{CoinValue: value, Amount: d.counts[value]})
	}
	return stocks
}

func (d *CoinDepot) Count(value Cents) int {
	return d.counts[value]
}

func (d *CoinDepot) AddCoin(value Cents) error {
	if !IsDenomination(value) {
		return fmt.Errorf("%w: %d", ErrInvalidDenomination, value)
	}
	d.counts[value]++
	return nil
}

func (d *CoinDepot) RemoveCoin(value Cents) error {
	if !IsDenomination(value) {
		return fmt.Errorf("%w: %d", ErrInvalidDenomination, value)
	}
	if d.counts[value] == 0 {
		return fmt.Errorf("%w: no %d cent coin left", ErrInsufficientStock, value)
	}
	d.counts[value]--
	return nil
}

// TotalValueCents sums value times count over all denominations.
func (d *CoinDepot) TotalValueCents() Cents {
	var total Cents
	for value, amount := range d.counts {
		total += value * Cents(amount)
	}
	return total
}

// Snapshot copies the current counts so change can be computed against a
// state that no later mutation touches.
func (d *CoinDepot) Snapshot() DepotSnapshot {
	counts := make(map[Cents]int, len(d.counts))
	for value, amount := range d.counts {
		counts[value] = amount
	}
	return DepotSnapshot{counts: counts}
}

// String renders the depot as "3*200 + 3*100 + ... + 3*5".
func (d *CoinDepot) String() string {
	parts := make([]string, 0, len(Denominations))
	for _, stock := range d.Inventory() {
		parts = append(parts, fmt.Sprintf("%d*%d", stock.Amount, stock.CoinValue))
	}
	return strings.Join(parts, " + ")
}

// DepotSnapshot is a read-only view of a CoinDepot at one instant.
type DepotSnapshot struct {
	counts map[Cents]int
}

// SnapshotSource hands out depot snapshots. *CoinDepot implements it.
type SnapshotSource interface {
	Snapshot() DepotSnapshot
}

func (s DepotSnapshot) Count(value Cents) int {
	return s.counts[value]
}

// Credit returns a new snapshot that also holds the given coins.
// Values outside the denomination set are ignored.
func (s DepotSnapshot) Credit(coins Coins) DepotSnapshot {
	counts := make(map[Cents]int, len(s.counts))
	for value, amount := range s.counts {
		counts[value] = amount
	}
	for _, c := range coins {
		if IsDenomination(c) {
			counts[c]++
		}
	}
	return DepotSnapshot{counts: counts}
}

// Snapshot lets a snapshot stand in wherever a SnapshotSource is expected.
func (s DepotSnapshot) Snapshot() DepotSnapshot {
	return s
}
