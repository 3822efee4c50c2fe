package domain

import "math"

// PlatformFeeRate is the share taken from food subtotals and service prices.
// Delivery fees, tips and booking fees are never subject to it.
const PlatformFeeRate = 0.08

// MinChargeCents is the smallest amount the gateway accepts ($0.50).
const MinChargeCents = 50

// RoundCents rounds half-up at the cent boundary.
func RoundCents(v float64) float64 {
	return float64(ToCents(v)) / 100
}

func ToCents(v float64) int64 {
	return int64(math.Floor(v*100 + 0.5))
}

func FromCents(c int64) float64 {
	return float64(c) / 100
}

// PlatformFee returns the platform cut of amount, rounded to cents.
func PlatformFee(amount float64) float64 {
	return RoundCents(amount * PlatformFeeRate)
}

type OrderTotals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	Tip         float64 `json:"tip"`
	PlatformFee float64 `json:"platformFee"`
	Total       float64 `json:"total"`
}

// ComputeOrderTotals derives the platform fee and total. Arithmetic is done in
// integer cents so total always equals the sum of its parts.
func ComputeOrderTotals(subtotal, deliveryFee, tip float64) OrderTotals {
	sub := ToCents(subtotal)
	del := ToCents(deliveryFee)
	tp := ToCents(tip)
	fee := int64(math.Floor(float64(sub)*PlatformFeeRate + 0.5))
	return OrderTotals{
		Subtotal:    FromCents(sub),
		DeliveryFee: FromCents(del),
		Tip:         FromCents(tp),
		PlatformFee: FromCents(fee),
		Total:       FromCents(sub + del + tp + fee),
	}
}

func (t OrderTotals) TotalCents() int64 { return ToCents(t.Total) }
