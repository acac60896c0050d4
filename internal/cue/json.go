package cue

import (
	"encoding/json"
	"math"
)

type jsonCue struct {
	Start float64  `json:"start"`
	End   *float64 `json:"end"`
	Text  string   `json:"text"`
}

// MarshalJSON encodes an open-ended cue with a null end, since JSON has no
// infinity.
func (c Cue) MarshalJSON() ([]byte, error) {
	out := jsonCue{Start: c.Start, Text: c.Text}
	if !c.OpenEnded() {
		end := c.End
		out.End = &end
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON.
func (c *Cue) UnmarshalJSON(data []byte) error {
	var in jsonCue
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Start, c.Text = in.Start, in.Text
	c.End = math.Inf(1)
	if in.End != nil {
		c.End = *in.End
	}
	return nil
}
