package flowering

import (
	"fmt"
	"strconv"
	"strings"
)

// Summary renders a prediction as a short paragraph
func Summary(pred Prediction) string {
	var parts []string

	switch {
	case pred.LikelyNextCycle == nil || pred.DaysUntilNextCycle == nil:
		parts = append(parts, "Insufficient data to predict the next flowering cycle.")
	case *pred.DaysUntilNextCycle <= 0:
		parts = append(parts, "Next flowering cycle may begin any time now.")
	default:
		parts = append(parts, fmt.Sprintf("Next flowering cycle predicted in ~%d days.", *pred.DaysUntilNextCycle))
	}

	if w := pred.PollinationWindow; w.Optimal != nil && w.DaysFromNow != nil && *w.DaysFromNow > 0 {
		parts = append(parts, fmt.Sprintf("Optimal pollination window: %d days from now.", *w.DaysFromNow))
	}

	if cpy := pred.Statistics.CyclesPerYear; cpy != nil {
		parts = append(parts, fmt.Sprintf("Average: %s cycles per year.", strconv.FormatFloat(*cpy, 'f', -1, 64)))
	}

	return strings.Join(parts, " ")
}
