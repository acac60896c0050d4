package cue

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCueJSONOpenEnded(t *testing.T) {
	data, err := json.Marshal([]Cue{{Start: 1, End: 2, Text: "a"}, Open(2, "b")})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[{"start":1,"end":2,"text":"a"},{"start":2,"end":null,"text":"b"}]`
	if string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}

	var back []Cue
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back[0] != (Cue{Start: 1, End: 2, Text: "a"}) || !math.IsInf(back[1].End, 1) {
		t.Fatalf("decoded = %+v", back)
	}
}
