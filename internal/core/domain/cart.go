package domain

// CartLine is one product's quantity entry in the shopping cart. Exactly one
// line exists per ProductID.
type CartLine struct {
	ProductID   int
	Title       string
	UnitPrice   float64
	Quantity    int
	MaxQuantity int
	ImageRef    string
}

// Clamped returns a copy of the line with Quantity forced into
// [0, MaxQuantity]. MaxQuantity is treated as at least 1.
func (l CartLine) Clamped() CartLine {
	if l.MaxQuantity < 1 {
		l.MaxQuantity = 1
	}
	if l.Quantity < 0 {
		l.Quantity = 0
	}
	if l.Quantity > l.MaxQuantity {
		l.Quantity = l.MaxQuantity
	}
	return l
}

// Subtotal is UnitPrice times Quantity for this line.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}
