// Package layout packs styled text runs into lines bounded by a maximum
// width. The algorithm is backend-agnostic: the caller supplies the width
// measurement, so the same flow works for any font backend.
package layout

import "strings"

// Run is a contiguous span of text sharing one emphasis and color.
type Run struct {
	Text  string
	Bold  bool
	Color string
}

// Line is an ordered list of runs drawn left to right.
type Line []Run

// Text returns the concatenated text of the line's runs.
func (l Line) Text() string {
	var b strings.Builder
	for _, r := range l {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Width returns the line's accumulated width under the given measure.
func (l Line) Width(measure MeasureFunc) float64 {
	var w float64
	for _, r := range l {
		w += measure(r.Text, r.Bold)
	}
	return w
}

// MeasureFunc reports the rendered width of text at the given emphasis.
type MeasureFunc func(text string, bold bool) float64

// Runs narrower than this fraction of the line width are moved whole to the
// next line when they do not fit, instead of being split word by word.
const wholeRunMoveFraction = 0.6

// Flow packs runs into lines no wider than maxWidth using greedy first-fit
// with word-level fallback for long runs.
//
// The concatenation of all fragment texts, in order, always equals the
// concatenation of the input run texts: when a run is split, the space at
// the break stays attached to the fragment before it. Every fragment keeps
// the emphasis and color of its originating run.
//
// The only case allowed to exceed maxWidth is a single token that is wider
// than the line by itself and contains no space to split on. It is placed
// alone and overflows, since there is no valid alternative.
func Flow(runs []Run, maxWidth float64, measure MeasureFunc) []Line {
	var (
		lines   []Line
		current Line
		width   float64
	)

	flush := func() {
		if len(current) > 0 {
			lines = append(lines, current)
			current = nil
			width = 0
		}
	}

	for _, run := range runs {
		if run.Text == "" {
			continue
		}

		w := measure(run.Text, run.Bold)
		if width+w <= maxWidth {
			current = append(current, run)
			width += w
			continue
		}

		if !strings.Contains(run.Text, " ") || w < wholeRunMoveFraction*maxWidth {
			// Short enough to move whole, or unbreakable. A lone
			// unbreakable token wider than the line overflows here.
			flush()
			current = Line{run}
			width = w
			continue
		}

		// Long run with internal whitespace: place it word by word,
		// wrapping onto fresh lines as the width runs out.
		tokens := strings.Split(run.Text, " ")
		start := 0
		for start < len(tokens) {
			end := start
			for end < len(tokens) {
				candidate := fragment(tokens, start, end+1)
				if width+measure(candidate, run.Bold) > maxWidth && (end > start || len(current) > 0) {
					break
				}
				end++
			}
			if end == start {
				// Nothing fit after existing content; retry on a
				// fresh line.
				flush()
				continue
			}

			frag := fragment(tokens, start, end)
			current = append(current, Run{Text: frag, Bold: run.Bold, Color: run.Color})
			width += measure(frag, run.Bold)
			start = end
			if start < len(tokens) {
				flush()
			}
		}
	}

	flush()
	return lines
}

// fragment joins tokens[start:end] with spaces, keeping the separator that
// follows the fragment when more tokens remain. This is what preserves the
// original text byte-for-byte across splits.
func fragment(tokens []string, start, end int) string {
	frag := strings.Join(tokens[start:end], " ")
	if end < len(tokens) {
		frag += " "
	}
	return frag
}
