package domain

import "time"

type DailyEntry struct {
	Date           string  `json:"date" yaml:"date"`
	Count          int     `json:"count" yaml:"count"`
	ServiceRevenue float64 `json:"serviceRevenue" yaml:"serviceRevenue"`
	BookingFees    float64 `json:"bookingFees" yaml:"bookingFees"`
	Gross          float64 `json:"gross" yaml:"gross"`
	PlatformFee    float64 `json:"platformFee" yaml:"platformFee"`
	NetPayout      float64 `json:"netPayout" yaml:"netPayout"`
}

type ReportTotals struct {
	Count          int     `json:"count" yaml:"count"`
	ServiceRevenue float64 `json:"serviceRevenue" yaml:"serviceRevenue"`
	BookingFees    float64 `json:"bookingFees" yaml:"bookingFees"`
	Gross          float64 `json:"gross" yaml:"gross"`
	PlatformFee    float64 `json:"platformFee" yaml:"platformFee"`
	NetPayout      float64 `json:"netPayout" yaml:"netPayout"`
}

type EntityReport struct {
	ID     string       `json:"id" yaml:"id"`
	Name   string       `json:"name" yaml:"name"`
	Days   []DailyEntry `json:"days" yaml:"days"`
	Totals ReportTotals `json:"totals" yaml:"totals"`
}

type ReportSummary struct {
	TotalGross             float64 `json:"totalGross" yaml:"totalGross"`
	TotalPlatformRevenue   float64 `json:"totalPlatformRevenue" yaml:"totalPlatformRevenue"`
	TotalRestaurantPayouts float64 `json:"totalRestaurantPayouts" yaml:"totalRestaurantPayouts"`
	TotalProviderPayouts   float64 `json:"totalProviderPayouts" yaml:"totalProviderPayouts"`
	TotalPayouts           float64 `json:"totalPayouts" yaml:"totalPayouts"`
}

// FinancialReport is computed on demand and never stored.
type FinancialReport struct {
	Start       time.Time      `json:"start" yaml:"start"`
	End         time.Time      `json:"end" yaml:"end"`
	NumDays     int            `json:"numDays" yaml:"numDays"`
	Restaurants []EntityReport `json:"restaurants" yaml:"restaurants"`
	Providers   []EntityReport `json:"providers" yaml:"providers"`
	Summary     ReportSummary  `json:"summary" yaml:"summary"`
}
