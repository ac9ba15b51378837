package tiervalues

// Tier labels, ordered from lowest to highest.
const (
	Unrank      = "UNRANK"
	Bronze      = "BRONZE"
	Silver      = "SILVER"
	Gold        = "GOLD"
	Platinum    = "PLATINUM"
	Diamond     = "DIAMOND"
	Master      = "MASTER"
	Grandmaster = "GRANDMASTER"
	Challenger  = "CHALLENGER"
)

// Pre-sorted slice holding the tier order.
var tierNames = []string{Unrank, Bronze, Silver, Gold, Platinum, Diamond, Master, Grandmaster, Challenger}

// Score threshold (exclusive upper bound) for each tier above UNRANK.
// A tier applies while the score is strictly below its threshold.
var tierThresholds = []struct {
	tier  string
	below int
}{
	{Bronze, 1000},
	{Silver, 2000},
	{Gold, 3000},
	{Platinum, 4000},
	{Diamond, 5000},
	{Master, 6000},
	{Grandmaster, 7000},
}

var displayNames = map[string]string{
	Unrank:      "언랭크",
	Bronze:      "브론즈",
	Silver:      "실버",
	Gold:        "골드",
	Platinum:    "플래티넘",
	Diamond:     "다이아몬드",
	Master:      "마스터",
	Grandmaster: "그랜드마스터",
	Challenger:  "챌린저",
}

var colorCodes = map[string]string{
	Unrank:      "#9E9E9E",
	Bronze:      "#CD7F32",
	Silver:      "#C0C0C0",
	Gold:        "#FFD700",
	Platinum:    "#40E0D0",
	Diamond:     "#B9F2FF",
	Master:      "#9370DB",
	Grandmaster: "#DC143C",
	Challenger:  "#F4C430",
}

// CalculateTier maps a total score to its tier. Zero is always UNRANK.
func CalculateTier(totalScore int) string {
	if totalScore == 0 {
		return Unrank
	}

	for _, t := range tierThresholds {
		if totalScore < t.below {
			return t.tier
		}
	}

	return Challenger
}

// NumericValue returns the position of a tier in the ordering, 0 for UNRANK.
// Unknown labels also map to 0.
func NumericValue(tier string) int {
	for i, name := range tierNames {
		if name == tier {
			return i
		}
	}
	return 0
}

// DisplayName returns the localized tier name shown in notifications.
func DisplayName(tier string) string {
	if name, exists := displayNames[tier]; exists {
		return name
	}
	return displayNames[Unrank]
}

// ColorCode returns the hex color associated with a tier.
func ColorCode(tier string) string {
	if code, exists := colorCodes[tier]; exists {
		return code
	}
	return colorCodes[Unrank]
}
