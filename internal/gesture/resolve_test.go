package gesture

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestResolveEmpty(t *testing.T) {
	got := Resolve(nil, DefaultParams())
	if got == nil || len(got) != 0 {
		t.Errorf("Resolve(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		cands []Candidate
		want  []Label
	}{
		{
			name:  "single flip survives with zero magnitude",
			cands: []Candidate{{Flip, 7, 0}},
			want:  []Label{Flip},
		},
		{
			name:  "single survivor after flip filter",
			cands: []Candidate{{Right, 11, 6}, {Flip, 10, 0}},
			want:  []Label{Flip},
		},
		{
			name:  "everything filtered except flips",
			cands: []Candidate{{Down, 9, 10}, {Flip, 10, 0}, {Right, 12, 5}},
			want:  []Label{Flip},
		},
		{
			name:  "local maximum wins",
			cands: []Candidate{{Right, 2, 5}, {Forward, 3, 9}},
			want:  []Label{Forward},
		},
		{
			name:  "ties keep the earliest",
			cands: []Candidate{{Right, 0, 5}, {Left, 1, 5}},
			want:  []Label{Right},
		},
		{
			name:  "unsorted input is ordered by index",
			cands: []Candidate{{Up, 20, 6}, {Left, 2, 7}, {Forward, 11, 5}},
			want:  []Label{Left, Forward, Up},
		},
		{
			name:  "flip tolerance is strict",
			cands: []Candidate{{Flip, 10, 0}, {Right, 14, 6}},
			want:  []Label{Flip, Right},
		},
		{
			name:  "shake before the flip is discarded",
			cands: []Candidate{{Up, 7, 8}, {Flip, 10, 0}, {Backward, 3, 6}},
			want:  []Label{Backward, Flip},
		},
		{
			name:  "candidate near two flips is discarded once",
			cands: []Candidate{{Flip, 10, 0}, {Right, 11, 6}, {Flip, 12, 0}, {Forward, 30, 5}},
			want:  []Label{Flip, Forward},
		},
		{
			name:  "window is anchored at the first member",
			cands: []Candidate{{Right, 0, 1}, {Left, 2, 2}, {Up, 4, 3}, {Down, 6, 4}},
			want:  []Label{Left, Down},
		},
		{
			name:  "window edge is inclusive",
			cands: []Candidate{{Right, 5, 4.5}, {Forward, 8, 6}, {Left, 9, 7}},
			want:  []Label{Forward, Left},
		},
		{
			name:  "duplicate label and index are kept apart",
			cands: []Candidate{{Right, 4, 6}, {Right, 4, 6}, {Right, 20, 6}},
			want:  []Label{Right, Right},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.cands, DefaultParams())
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveKeepsStrongestMember(t *testing.T) {
	cands := []Candidate{{Right, 2, 5}, {Right, 3, 9}}

	got := resolveCandidates(cands, DefaultParams())
	want := []Candidate{{Right, 3, 9}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("kept = %+v, want %+v", got, want)
	}
}

func TestResolveDoesNotReorderInput(t *testing.T) {
	cands := []Candidate{{Up, 20, 6}, {Left, 2, 7}}
	before := append([]Candidate(nil), cands...)

	Resolve(cands, DefaultParams())
	if !reflect.DeepEqual(cands, before) {
		t.Errorf("input = %+v, want %+v", cands, before)
	}
}

func TestResolveCustomWindow(t *testing.T) {
	p := DefaultParams()
	p.ClusterWindow = 0
	cands := []Candidate{{Right, 2, 5}, {Left, 3, 9}, {Left, 3, 2}}

	got := Resolve(cands, p)
	want := []Label{Right, Left}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestLabelNames(t *testing.T) {
	for _, l := range Labels() {
		parsed, err := ParseLabel(l.String())
		if err != nil {
			t.Fatalf("ParseLabel(%q): %v", l.String(), err)
		}
		if parsed != l {
			t.Errorf("ParseLabel(%q) = %v, want %v", l.String(), parsed, l)
		}
	}

	if got, err := ParseLabel(" backward "); err != nil || got != Backward {
		t.Errorf("ParseLabel(backward) = %v, %v", got, err)
	}
	if _, err := ParseLabel("SIDEWAYS"); err == nil {
		t.Error("ParseLabel(SIDEWAYS) succeeded, want error")
	}
	if got := Label(42).String(); got != "Label(42)" {
		t.Errorf("String = %q, want %q", got, "Label(42)")
	}
}

func TestLabelJSON(t *testing.T) {
	data, err := json.Marshal([]Label{Flip, Up, Backward})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["FLIP","UP","BACKWARD"]` {
		t.Errorf("json = %s", data)
	}

	var got []Label
	if err := json.Unmarshal([]byte(`["down","LEFT"]`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, []Label{Down, Left}) {
		t.Errorf("labels = %v, want [DOWN LEFT]", got)
	}

	if err := json.Unmarshal([]byte(`["SPIN"]`), &got); err == nil {
		t.Error("unmarshal of unknown label succeeded, want error")
	}
}
