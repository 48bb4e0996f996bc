package output

// Heat classifies the share of samples a stack or function accounts for.
type Heat string

const (
	HeatHot  Heat = "hot"
	HeatWarm Heat = "warm"
	HeatCold Heat = "cold"
)

// HeatOf returns the heat for a share in [0, 1].
// At least 20% is hot, at least 5% is warm.
func HeatOf(share float64) Heat {
	if share >= 0.20 {
		return HeatHot
	}
	if share >= 0.05 {
		return HeatWarm
	}
	return HeatCold
}

// Share returns count as a fraction of total, 0 when total is 0.
func Share(count, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
