package domain

// Change is the outcome of a change computation: the coins to hand back and
// the part of the amount due that could not be paid out.
type Change struct {
	Coins         Coins
	DonationCents Cents
}

// ComputeChange decides which coins to return for amountDue from the given
// snapshot. It walks the denominations from largest to smallest and takes as
// many coins of each as fit, without backtracking. Whatever cannot be paid out
// stays as a donation; coins already picked are kept.
//
// The snapshot is never mutated. A non-positive amountDue yields no coins and
// no donation.
func ComputeChange(amountDue Cents, snapshot DepotSnapshot) Change {
	if amountDue <= 0 {
		return Change{}
	}

	var coins Coins
	remaining := amountDue

	for i := len(Denominations) - 1; i >= 0 && remaining > 0; i-- {
		value := Denominations[i]
		take := int(remaining / value)
		if available := snapshot.Count(value); take > available {
			take = available
		}
		for k := 0; k < take; k++ {
			coins = append(coins, value)
		}
		remaining -= value * Cents(take)
	}

	return Change{Coins: coins, DonationCents: remaining}
}
