package health

import (
	"fmt"
	"strings"
)

// Summary renders a trajectory as a short paragraph
func Summary(t Trajectory) string {
	var parts []string

	switch t.Trajectory {
	case Improving:
		parts = append(parts, "Substrate health is improving.")
	case Stable:
		parts = append(parts, "Substrate health is stable.")
	case Declining:
		parts = append(parts, "Substrate health is declining and needs attention.")
	case Critical:
		parts = append(parts, "CRITICAL: substrate needs immediate intervention.")
	}

	switch {
	case t.PredictedScore30d < t.CurrentScore-10:
		parts = append(parts, fmt.Sprintf("Projected to decline from %d to %d over 30 days.", t.CurrentScore, t.PredictedScore30d))
	case t.PredictedScore30d > t.CurrentScore+10:
		parts = append(parts, fmt.Sprintf("Projected to improve from %d to %d over 30 days.", t.CurrentScore, t.PredictedScore30d))
	}

	var concerns []string
	for _, r := range t.RiskFactors {
		if r.Severity == SeverityHigh || r.Severity == SeverityCritical {
			concerns = append(concerns, r.Description)
		}
	}
	if len(concerns) > 0 {
		parts = append(parts, fmt.Sprintf("Key concerns: %s.", strings.Join(concerns, "; ")))
	}

	return strings.Join(parts, " ")
}
