package analyzer

import (
	"fmt"
	"strings"
)

// wording holds the kind-specific phrases of an explanation
type wording struct {
	noun    string
	safe    string
	caution map[Level]string
}

var explanations = map[Kind]wording{
	KindURL: {
		noun: "URL",
		safe: "This URL appears to be safe with no obvious phishing indicators detected.",
		caution: map[Level]string{
			LevelHigh:   "Exercise extreme caution before visiting this link.",
			LevelMedium: "Proceed with caution and verify the source.",
			LevelLow:    "This appears to be a relatively safe URL, but always verify the sender.",
		},
	},
	KindEmail: {
		noun: "email",
		safe: "This email appears to be safe with no obvious phishing indicators detected.",
		caution: map[Level]string{
			LevelHigh:   "This email is likely a phishing attempt - do not click any links or provide personal information.",
			LevelMedium: "This email shows concerning patterns - verify the sender before taking any action.",
			LevelLow:    "This email shows some minor concerns but appears relatively safe.",
		},
	},
}

// SafeExplanation returns the fixed message used when nothing fired
func SafeExplanation(kind Kind) string {
	return wordingFor(kind).safe
}

// Explain summarizes the indicators. Only the first two indicator texts are
// quoted; the rest are referred to as "among others".
func Explain(kind Kind, indicators []string, level Level) string {
	w := wordingFor(kind)
	if len(indicators) == 0 {
		return w.safe
	}

	shown := indicators
	if len(shown) > 2 {
		shown = shown[:2]
	}
	more := ""
	if len(indicators) > 2 {
		more = " among others"
	}

	return fmt.Sprintf("This %s shows %s risk indicators. The analysis detected %d potential phishing signals including %s%s. %s",
		w.noun, level, len(indicators), strings.Join(shown, " and "), more, w.caution[level])
}

func wordingFor(kind Kind) wording {
	if w, ok := explanations[kind]; ok {
		return w
	}
	return explanations[KindURL]
}
