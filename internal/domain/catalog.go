package domain

// DefaultCatalog is the product list a freshly set up machine offers.
func DefaultCatalog() []Product {
	return []Product{
		{ID: 1, Name: "Cappuccino", PriceCents: 65},
		{ID: 2, Name: "Cortado", PriceCents: 55},
		{ID: 3, Name: "Doppio", PriceCents: 80},
		{ID: 4, Name: "Espresso", PriceCents: 50},
		{ID: 5, Name: "Flat White", PriceCents: 70},
		{ID: 6, Name: "Latte", PriceCents: 50},
		{ID: 7, Name: "Lungo", PriceCents: 60},
		{ID: 8, Name: "Macchiato", PriceCents: 55},
		{ID: 9, Name: "Ristretto", PriceCents: 45},
	}
}
