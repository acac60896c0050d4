package loading

import (
	"encoding/json"
	"testing"
)

func TestStateJSONRoundTrip(t *testing.T) {
	in := State{Phase: Partial, Count: 4}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"phase":"partial","count":4}` {
		t.Fatalf("json = %s", data)
	}
	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestPhaseUnmarshalRejectsUnknown(t *testing.T) {
	var p Phase
	if err := p.UnmarshalText([]byte("loading")); err == nil {
		t.Fatal("expected error")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{State{}, "empty"},
		{State{Phase: Partial, Count: 5}, "partial(5)"},
		{State{Phase: Stable, Count: 2}, "stable(2)"},
		{State{Phase: Failed}, "failed"},
		{State{Unavailable: true}, "unavailable"},
	}
	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("%+v.String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}
