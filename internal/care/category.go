package care

import "strings"

// Category is the coarse class of a care action
type Category string

const (
	CategoryWatering    Category = "watering"
	CategoryFertilizing Category = "fertilizing"
	CategoryRepotting   Category = "repotting"
	CategoryPestDisease Category = "pest_disease"
	CategoryPruning     Category = "pruning"
	CategoryOther       Category = "other"
)

// checked in order; the first match wins
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryRepotting, []string{"repot", "substrate change", "re-pot"}},
	{CategoryFertilizing, []string{"fertil", "feed", "nutrient"}},
	{CategoryWatering, []string{"water", "flush", "soak", "mist"}},
	{CategoryPestDisease, []string{"pest", "insect", "mite", "thrip", "scale", "fung", "disease", "root rot", "spray"}},
	{CategoryPruning, []string{"prun", "trim", "cut"}},
}

// Classify maps a free-text action label onto a Category by substring match
func Classify(action string) Category {
	action = strings.ToLower(action)
	for _, c := range categoryKeywords {
		for _, k := range c.keywords {
			if strings.Contains(action, k) {
				return c.category
			}
		}
	}
	return CategoryOther
}
