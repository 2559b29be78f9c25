package cart

import "github.com/shopspring/decimal"

// Line is a read-only view of an entry, safe to hand to events and receipts.
type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

func newLine(e *Entry) Line {
	return Line{
		ProductID: e.Product.ID,
		Name:      e.Product.Name,
		UnitPrice: e.Product.Price,
		Quantity:  e.Quantity,
	}
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the subtotals of lines.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
