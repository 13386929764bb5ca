package domain

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrInvalidDenomination = errors.New("invalid denomination")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidState        = errors.New("invalid order state")
	ErrInvalidProduct      = errors.New("invalid product")
)

// Cents is an amount of money in euro cents.
type Cents int

// Denominations lists the legal coin values, smallest first.
var Denominations = []Cents{5, 10, 20, 50, 100, 200}

func IsDenomination(value Cents) bool {
	for _, d := range Denominations {
		if d == value {
			return true
		}
	}
	return false
}

// Coins is an ordered sequence of physical coins, one entry per coin.
type Coins []Cents

func (c Coins) Sum() Cents {
	var total Cents
	for _, v := range c {
		total += v
	}
	return total
}

// String renders the coins joined by ";" (e.g. "20;10;5"), or "" when empty.
func (c Coins) String() string {
	parts := make([]string, 0, len(c))
	for _, v := range c {
		parts = append(parts, strconv.Itoa(int(v)))
	}
	return strings.Join(parts, ";")
}

func (c Coins) clone() Coins {
	if len(c) == 0 {
		return nil
	}
	out := make(Coins, len(c))
	copy(out, c)
	return out
}
