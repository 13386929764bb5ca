package domain

import (
	"fmt"
	"strings"
)

type Product struct {
	ID         int64
	Name       string
	PriceCents Cents
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product is not set", ErrInvalidProduct)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("%w: negative price %d for %s", ErrInvalidProduct, p.PriceCents, p.Name)
	}
	return nil
}
