package model

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

type Discount struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// Apply возвращает сумму скидки для subtotal (не больше самого subtotal)
func (d Discount) Apply(subtotal float64) float64 {
	var amount float64
	switch d.Type {
	case DiscountPercentage:
		amount = subtotal * d.Value / 100
	case DiscountFlat:
		amount = d.Value
	}
	if amount > subtotal {
		return subtotal
	}
	return amount
}
