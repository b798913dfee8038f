package certificate

import "pintcert/internal/layout"

// Helvetica advance widths in thousandths of an em for the characters that
// actually occur in certificate text. Anything not listed uses the average
// lowercase advance; the approximation only has to be good enough for line
// breaking, the renderer draws with real metrics.
var helveticaWidths = map[rune]float64{
	' ': 278, '.': 278, ',': 278, ':': 278, ';': 278, '!': 278,
	'i': 222, 'j': 222, 'l': 222, 'í': 222, 'ì': 222,
	'f': 278, 't': 278, 'r': 333, '(': 333, ')': 333, '-': 333,
	'a': 556, 'b': 556, 'c': 500, 'd': 556, 'e': 556, 'g': 556,
	'h': 556, 'k': 500, 'n': 556, 'o': 556, 'p': 556, 'q': 556,
	's': 500, 'u': 556, 'v': 500, 'x': 500, 'y': 500, 'z': 500,
	'á': 556, 'â': 556, 'ã': 556, 'à': 556, 'é': 556, 'ê': 556,
	'ó': 556, 'ô': 556, 'õ': 556, 'ú': 556, 'ç': 500,
	'm': 833, 'w': 722,
	'A': 667, 'B': 667, 'C': 722, 'D': 722, 'E': 667, 'F': 611,
	'G': 778, 'H': 722, 'I': 278, 'J': 500, 'K': 667, 'L': 556,
	'M': 833, 'N': 722, 'O': 778, 'P': 667, 'Q': 778, 'R': 722,
	'S': 667, 'T': 611, 'U': 722, 'V': 667, 'W': 944, 'X': 667,
	'Y': 667, 'Z': 611,
	'0': 556, '1': 556, '2': 556, '3': 556, '4': 556,
	'5': 556, '6': 556, '7': 556, '8': 556, '9': 556,
	'/': 278, '?': 556, '=': 584,
}

const (
	defaultAdvance = 556.0
	// Helvetica-Bold advances run a few percent wider than the regular cut.
	boldFactor = 1.08
)

// Measure returns a layout.MeasureFunc approximating Helvetica metrics at
// the given point size.
func Measure(size float64) layout.MeasureFunc {
	return func(text string, bold bool) float64 {
		var units float64
		for _, r := range text {
			if w, ok := helveticaWidths[r]; ok {
				units += w
			} else {
				units += defaultAdvance
			}
		}
		width := units / 1000 * size
		if bold {
			width *= boldFactor
		}
		return width
	}
}
