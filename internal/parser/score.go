package parser

import "strings"

// ApproveThreshold is the score at or above which a candidate lands in
// the approve bucket. Tunable, not derived.
const ApproveThreshold = 50

// Per-platform source-reliability constants. Government sources score
// highest, manual entry lowest.
var sourceReliability = map[Platform]int{
	PlatformGCSurplus:      20,
	PlatformAlbertaSurplus: 16,
	PlatformManual:         5,
}

const defaultSourceReliability = 10

// High-liquidity categories move fast at auction; medium still sell.
var (
	highLiquidity = map[Category]bool{
		CategoryVehicles:   true,
		CategoryEquipment:  true,
		CategoryRealEstate: true,
		CategoryIndustrial: true,
	}
	mediumLiquidity = map[Category]bool{
		CategoryElectronics: true,
		CategoryFurniture:   true,
	}
)

// CalculateQualityScore combines completeness, condition, liquidity,
// source, and pricing signals into a 0-100 score. Each sub-score is
// capped, so the total is bounded by construction.
func CalculateQualityScore(data PropertyData, platform Platform) (int, QualityBreakdown) {
	breakdown := QualityBreakdown{
		Completeness: completenessScore(data),
		Condition:    conditionScore(data),
		Liquidity:    liquidityScore(data.Category),
		Source:       sourceScore(platform),
		Pricing:      pricingScore(data),
	}
	return breakdown.Total(), breakdown
}

// DetermineBucket derives the triage bucket from the score. Bucket is
// always a pure function of the score, never set independently.
func DetermineBucket(score int) Bucket {
	if score >= ApproveThreshold {
		return BucketApprove
	}
	return BucketJunk
}

func completenessScore(data PropertyData) int {
	score := 0
	if len(data.Title) > 10 {
		score += 8
	}
	if len(data.Description) > 50 {
		score += 8
	}
	if len(data.Photos) >= 1 {
		score += 5
	}
	if len(data.Location) > 3 {
		score += 4
	}
	if score > 25 {
		score = 25
	}
	return score
}

func conditionScore(data PropertyData) int {
	if condition := strings.ToLower(data.Condition); condition != "" {
		switch {
		case strings.Contains(condition, "new"), strings.Contains(condition, "excellent"):
			return 20
		case strings.Contains(condition, "good"), strings.Contains(condition, "working"):
			return 15
		case strings.Contains(condition, "fair"), strings.Contains(condition, "used"):
			return 10
		default:
			return 5
		}
	}

	description := strings.ToLower(data.Description)
	if description == "" {
		return 0
	}
	for _, keyword := range []string{"running", "runs", "operational", "working", "works", "functional"} {
		if strings.Contains(description, keyword) {
			return 12
		}
	}
	for _, keyword := range []string{"salvage", "as-is", "as is", "parts only", "not working", "scrap"} {
		if strings.Contains(description, keyword) {
			return 5
		}
	}
	return 8
}

func liquidityScore(category Category) int {
	switch {
	case highLiquidity[category]:
		return 15
	case mediumLiquidity[category]:
		return 10
	default:
		return 5
	}
}

func sourceScore(platform Platform) int {
	if score, ok := sourceReliability[platform]; ok {
		return score
	}
	return defaultSourceReliability
}

func pricingScore(data PropertyData) int {
	if data.Price != nil && *data.Price > 0 {
		return 20
	}
	// An auction without a listed reserve still has exploitable signal
	// when we know its closing date.
	if data.ClosingDate != "" {
		return 10
	}
	return 0
}
