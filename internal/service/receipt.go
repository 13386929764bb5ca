package service

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"coffee-slot-machine/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Receipt is the printable summary of an order.
type Receipt struct {
	OrderID       string    `json:"order_id"`
	Product       string    `json:"product"`
	PriceCents    int       `json:"price_cents"`
	Status        string    `json:"status"`
	ThrownInCoins []int     `json:"thrown_in_coins"`
	ThrownInCents int       `json:"thrown_in_cents"`
	ReturnCoins   []int     `json:"return_coins,omitempty"`
	DonationCents int       `json:"donation_cents"`
	CreatedAt     time.Time `json:"created_at"`
}

// DepotReport is the printable depot content.
type DepotReport struct {
	Coins      []DepotLine `json:"coins"`
	TotalCents int         `json:"total_cents"`
}

type DepotLine struct {
	CoinValue int `json:"coin_value"`
	Amount    int `json:"amount"`
}

func NewReceipt(order *domain.Order) Receipt {
	return Receipt{
		OrderID:       order.ID.String(),
		Product:       order.Product.Name,
		PriceCents:    int(order.Product.PriceCents),
		Status:        string(order.Status()),
		ThrownInCoins: toInts(order.InsertedCoins()),
		ThrownInCents: int(order.ThrownInCents()),
		ReturnCoins:   toInts(order.ReturnCoins()),
		DonationCents: int(order.DonationCents()),
		CreatedAt:     order.CreatedAt,
	}
}

func NewDepotReport(stocks []domain.CoinStock) DepotReport {
	report := DepotReport{Coins: make([]DepotLine, 0, len(stocks))}
	for _, s := range stocks {
		report.Coins = append(report.Coins, DepotLine{CoinValue: int(s.CoinValue), Amount: s.Amount})
		report.TotalCents += int(s.CoinValue) * s.Amount
	}
	return report
}

// MarshalReport renders receipts and the depot as indented JSON.
func MarshalReport(receipts []Receipt, depot DepotReport) ([]byte, error) {
	return json.MarshalIndent(struct {
		Orders []Receipt   `json:"orders"`
		Depot  DepotReport `json:"depot"`
	}{Orders: receipts, Depot: depot}, "", "  ")
}

func toInts(coins domain.Coins) []int {
	if len(coins) == 0 {
		return nil
	}
	out := make([]int, len(coins))
	for i, c := range coins {
		out[i] = int(c)
	}
	return out
}
