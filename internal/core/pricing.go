// Package core holds the pricing, record, aggregation and export logic for
// driver work sessions. Everything here is pure: no I/O, no clocks beyond the
// values passed in, safe to re-invoke on every keystroke.
package core

// RouteCount is how many route ids a daily-rate day covered. Record
// constructors derive it from the route id list, so only the two declared
// values ever reach the pricing engine.
type RouteCount int

const (
	SingleRoute RouteCount = 1
	DoubleRoute RouteCount = 2
)

// Tier labels shown alongside daily-rate totals. Kept verbatim from the
// drivers' pay sheet.
const (
	TierSingleRoute = "Etapa 1 (1 ID)"
	TierUnder150    = "Etapa 2 (<150 pcts)"
	Tier150To250    = "Etapa 3 (150-250 pcts)"
	TierOver250     = "Etapa 4 (>250 pcts)"
)

// Per-unit and flat rates, in cents.
const (
	parcelRateCents     = 100
	collectionRateCents = 80

	singleRouteCents    = 18000
	doubleRouteLowCents = 26000
	doubleRouteMidCents = 30000
	doubleRouteTopCents = 36000
)

// Two-route tier boundaries. Both bounds are inclusive in the middle tier.
const (
	midTierLower = 150
	midTierUpper = 250
)

// ComputeStandard prices a pay-per-item day: parcels at R$ 1,00 each plus
// collections at R$ 0,80 each. Negative inputs are the caller's problem to
// normalize; this function just multiplies.
func ComputeStandard(parcels, collections int) Money {
	return Money{Cents: int64(parcels)*parcelRateCents + int64(collections)*collectionRateCents}
}

// ComputeDailyRate prices a flat-rate day and names the tier that applied.
// Single-route days pay a fixed amount regardless of parcel volume;
// two-route days step on the combined parcel count.
func ComputeDailyRate(routes RouteCount, parcels int) (Money, string) {
	if routes == SingleRoute {
		return Money{Cents: singleRouteCents}, TierSingleRoute
	}
	switch {
	case parcels < midTierLower:
		return Money{Cents: doubleRouteLowCents}, TierUnder150
	case parcels <= midTierUpper:
		return Money{Cents: doubleRouteMidCents}, Tier150To250
	default:
		return Money{Cents: doubleRouteTopCents}, TierOver250
	}
}
