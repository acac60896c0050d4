package webvtt

import (
	"bufio"
	"io"
	"math"

	"cuetrack/internal/cue"
	"cuetrack/internal/resolver"
)

// OpenEnd (99:59:59.999) marks a cue whose end is not known yet.
const OpenEnd = 99*3600 + 59*60 + 59.999

// Encode writes cues as a WebVTT document. An open-ended cue is written
// ending where the next later cue starts; one still open at the end of the
// document gets OpenEnd, which Parse reads back as open-ended.
func Encode(w io.Writer, cues []cue.Cue) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(header + "\n"); err != nil {
		return err
	}
	for i, c := range cues {
		end := resolver.EffectiveEnd(cues, i)
		if math.IsInf(end, 1) {
			end = OpenEnd
		}
		line := "\n" + cue.FormatTimestamp(c.Start) + " " + arrow + " " + cue.FormatTimestamp(end) + "\n" + c.Text + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
