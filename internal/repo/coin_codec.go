package repo

import (
	"fmt"
	"strconv"
	"strings"

	"coffee-slot-machine/internal/domain"
)

// parseCoins reads a ";"-joined coin list as stored in the orders table.
// Empty segments are skipped so both "10;20" and "10;20;" are accepted.
func parseCoins(raw string) (domain.Coins, error) {
	var coins domain.Coins
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDenomination, part)
		}
		if !domain.IsDenomination(domain.Cents(value)) {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidDenomination, value)
		}
		coins = append(coins, domain.Cents(value))
	}
	return coins, nil
}
