package search

// ThresholdFunc maps the query length in runes to the minimum trigram
// similarity a fallback match must exceed.
type ThresholdFunc func(queryLength int) float64

// AdaptiveThreshold holds longer queries to a stricter similarity bar:
// they carry more discriminating signal, while short queries need a low bar
// to match anything at all.
func AdaptiveThreshold(queryLength int) float64 {
	switch {
	case queryLength >= 10:
		return 0.5
	case queryLength >= 7:
		return 0.4
	case queryLength >= 5:
		return 0.2
	default:
		return 0.15
	}
}

// FixedThreshold returns a ThresholdFunc that ignores query length.
func FixedThreshold(threshold float64) ThresholdFunc {
	return func(int) float64 { return threshold }
}
