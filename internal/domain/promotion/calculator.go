package promotion

import (
	"github.com/shopspring/decimal"
)

// Kind tipo de promoción.
type Kind string

const (
	KindPercentage  Kind = "PERCENTAGE"   // porcentaje sobre el subtotal del carrito
	KindFixedAmount Kind = "FIXED_AMOUNT" // monto fijo sobre el subtotal del carrito
	KindBuyXGetY    Kind = "BUY_X_GET_Y"  // por cada BuyQty unidades de ProductID, FreeQty gratis
)

// Promotion regla de descuento vigente.
type Promotion struct {
	ID          string
	Name        string
	Kind        Kind
	Value       decimal.Decimal // porcentaje (0-100) o monto según Kind
	ProductID   string          // solo BUY_X_GET_Y
	BuyQty      decimal.Decimal
	FreeQty     decimal.Decimal
	MinSubtotal decimal.Decimal // subtotal mínimo para aplicar (0 = sin mínimo)
}

// CartItem línea del carrito al momento del checkout.
type CartItem struct {
	ProductID string
	Qty       decimal.Decimal
	UnitPrice decimal.Decimal
}

// Applied descuento aportado por una promoción.
type Applied struct {
	PromotionID string
	Amount      decimal.Decimal
}

// Result total de descuento y su desglose por promoción.
type Result struct {
	DiscountTotal decimal.Decimal
	Breakdown     []Applied
}

var hundred = decimal.NewFromInt(100)

// ComputeDiscount calcula el descuento del carrito (función pura, sin estado).
// El descuento total nunca supera el subtotal; los montos se redondean a 2 decimales.
func ComputeDiscount(promotions []Promotion, items []CartItem) Result {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Qty.Mul(it.UnitPrice))
	}

	res := Result{DiscountTotal: decimal.Zero}
	remaining := subtotal
	for _, p := range promotions {
		if p.MinSubtotal.IsPositive() && subtotal.LessThan(p.MinSubtotal) {
			continue
		}
		var amount decimal.Decimal
		switch p.Kind {
		case KindPercentage:
			amount = subtotal.Mul(p.Value).Div(hundred)
		case KindFixedAmount:
			amount = p.Value
		case KindBuyXGetY:
			amount = buyXGetY(p, items)
		default:
			continue
		}
		amount = amount.Round(2)
		if !amount.IsPositive() {
			continue
		}
		if amount.GreaterThan(remaining) {
			amount = remaining
		}
		if amount.IsZero() {
			continue
		}
		remaining = remaining.Sub(amount)
		res.DiscountTotal = res.DiscountTotal.Add(amount)
		res.Breakdown = append(res.Breakdown, Applied{PromotionID: p.ID, Amount: amount})
	}
	return res
}

func buyXGetY(p Promotion, items []CartItem) decimal.Decimal {
	group := p.BuyQty.Add(p.FreeQty)
	if !p.BuyQty.IsPositive() || !p.FreeQty.IsPositive() {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, it := range items {
		if it.ProductID != p.ProductID {
			continue
		}
		free := it.Qty.Div(group).Floor().Mul(p.FreeQty)
		total = total.Add(free.Mul(it.UnitPrice))
	}
	return total
}
