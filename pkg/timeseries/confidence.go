package timeseries

// Confidence is a coarse three-level reliability label. It is derived from
// sample size, fit quality and volatility and is not a calibrated probability.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Score maps a confidence onto high=3, medium=2, low=1. Unknown labels score 1.
func (c Confidence) Score() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	}
	return 1
}

// ModelConfidence scores the reliability of a fitted model. More samples, a
// better fit and fewer anomalies each raise the score, and the result is
// monotonic in every argument with the others held fixed.
func ModelConfidence(sampleCount int, fitQuality, anomalyRate float64) Confidence {
	score := 0

	switch {
	case sampleCount >= 20:
		score += 3
	case sampleCount >= 10:
		score += 2
	case sampleCount >= 5:
		score += 1
	}

	switch {
	case fitQuality >= 0.7:
		score += 3
	case fitQuality >= 0.4:
		score += 2
	case fitQuality >= 0.2:
		score += 1
	}

	switch {
	case anomalyRate < 0.05:
		score += 2
	case anomalyRate < 0.15:
		score += 1
	}

	switch {
	case score >= 6:
		return ConfidenceHigh
	case score >= 3:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// OverallConfidence averages the scores of cs and rounds back onto a label:
// >= 2.5 is high, >= 1.5 is medium, anything lower is low.
func OverallConfidence(cs ...Confidence) Confidence {
	if len(cs) == 0 {
		return ConfidenceLow
	}

	var total int
	for _, c := range cs {
		total += c.Score()
	}
	avg := float64(total) / float64(len(cs))

	switch {
	case avg >= 2.5:
		return ConfidenceHigh
	case avg >= 1.5:
		return ConfidenceMedium
	}
	return ConfidenceLow
}
