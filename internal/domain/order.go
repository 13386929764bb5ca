package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderOpen      OrderStatus = "OPEN"
	OrderCompleted OrderStatus = "COMPLETED"
)

// Order tracks one purchase from product selection until the price is paid.
// Return coins and donation are fixed once, on completion.
type Order struct {
	ID        uuid.UUID
	Product   Product
	CreatedAt time.Time
	UpdatedAt time.Time

	status        OrderStatus
	insertedCoins Coins
	returnCoins   Coins
	donationCents Cents
}

func NewOrder(product Product, createdAt time.Time) (*Order, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	return &Order{
		ID:        uuid.New(),
		Product:   product,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		status:    OrderOpen,
	}, nil
}

// RestoreOrder rebuilds a persisted order as-is. No change is recomputed.
func RestoreOrder(
	id uuid.UUID,
	product Product,
	status OrderStatus,
	insertedCoins Coins,
	returnCoins Coins,
	donationCents Cents,
	createdAt time.Time,
	updatedAt time.Time,
) *Order {
	return &Order{
		ID:            id,
		Product:       product,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
		status:        status,
		insertedCoins: insertedCoins.clone(),
		returnCoins:   returnCoins.clone(),
		donationCents: donationCents,
	}
}

// InsertCoin takes one coin. It returns true once the inserted total reaches
// the product price; at that moment change is computed against the depot
// snapshot, with this order's inserted coins already credited to it.
func (o *Order) InsertCoin(coin Cents, depot SnapshotSource) (bool, error) {
	if o.status != OrderOpen {
		return false, fmt.Errorf("%w: order %s is %s", ErrInvalidState, o.ID, o.status)
	}
	if !IsDenomination(coin) {
		return false, fmt.Errorf("%w: %d", ErrInvalidDenomination, coin)
	}

	o.insertedCoins = append(o.insertedCoins, coin)

	if o.ThrownInCents() < o.Product.PriceCents {
		return false, nil
	}

	o.finalize(depot.Snapshot().Credit(o.insertedCoins))
	return true, nil
}

func (o *Order) finalize(snapshot DepotSnapshot) {
	change := ComputeChange(o.ChangeDueCents(), snapshot)
	o.returnCoins = change.Coins
	o.donationCents = change.DonationCents
	o.status = OrderCompleted
}

func (o *Order) Status() OrderStatus {
	return o.status
}

func (o *Order) IsCompleted() bool {
	return o.status == OrderCompleted
}

func (o *Order) ThrownInCents() Cents {
	return o.insertedCoins.Sum()
}

// ChangeDueCents is what the customer overpaid, or 0 while the price is not reached.
func (o *Order) ChangeDueCents() Cents {
	due := o.ThrownInCents() - o.Product.PriceCents
	if due < 0 {
		return 0
	}
	return due
}

func (o *Order) InsertedCoins() Coins {
	return o.insertedCoins.clone()
}

func (o *Order) ReturnCoins() Coins {
	return o.returnCoins.clone()
}

func (o *Order) DonationCents() Cents {
	return o.donationCents
}
