package analyzer

// Thresholds maps a score to a level: score <= LowMax is low, score <=
// MediumMax is medium, anything above is high.
type Thresholds struct {
	LowMax    int
	MediumMax int
}

// Level classifies score against the thresholds
func (t Thresholds) Level(score int) Level {
	switch {
	case score <= t.LowMax:
		return LevelLow
	case score <= t.MediumMax:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// URL and email diverge at the medium bound; they are separate contracts.
var (
	urlThresholds   = Thresholds{LowMax: 2, MediumMax: 5}
	emailThresholds = Thresholds{LowMax: 2, MediumMax: 6}
)

// ClassifyURL returns the risk level for a URL score
func ClassifyURL(score int) Level {
	return urlThresholds.Level(score)
}

// ClassifyEmail returns the risk level for an email score
func ClassifyEmail(score int) Level {
	return emailThresholds.Level(score)
}

// Classify dispatches to the threshold table of kind. Unknown kinds use the
// URL table.
func Classify(kind Kind, score int) Level {
	if kind == KindEmail {
		return ClassifyEmail(score)
	}
	return ClassifyURL(score)
}
