package services

import "testing"

func TestMatchScore(t *testing.T) {
	cases := []struct {
		name                  string
		teaches, wants        []string
		candTeaches, candWants []string
		want                  int
	}{
		{
			name: "no overlap",
			teaches: []string{"go"}, wants: []string{"rust"},
			candTeaches: []string{"painting"}, candWants: []string{"piano"},
			want: 0,
		},
		{
			name: "one directional overlap",
			teaches: []string{"guitar"}, wants: []string{"python"},
			candTeaches: []string{"python"}, candWants: []string{"cooking"},
			want: 25,
		},
		{
			name: "reciprocal pair scores 50",
			teaches: []string{"guitar"}, wants: []string{"python"},
			candTeaches: []string{"python"}, candWants: []string{"guitar"},
			want: 50,
		},
		{
			name: "saturates at 100",
			teaches: []string{"a", "b", "c"}, wants: []string{"d", "e", "f"},
			candTeaches: []string{"d", "e", "f"}, candWants: []string{"a", "b", "c"},
			want: 100,
		},
		{
			name: "case and whitespace insensitive",
			teaches: []string{" Guitar "}, wants: []string{"PYTHON"},
			candTeaches: []string{"python"}, candWants: []string{"guitar"},
			want: 50,
		},
		{
			name: "duplicate candidate skills count once",
			teaches: nil, wants: []string{"python"},
			candTeaches: []string{"python", "Python", " python "}, candWants: nil,
			want: 25,
		},
		{
			name: "empty sets",
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MatchScore(tc.teaches, tc.wants, tc.candTeaches, tc.candWants)
			if got != tc.want {
				t.Errorf("MatchScore = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMatchScoreSymmetry(t *testing.T) {
	aTeaches, aWants := []string{"guitar", "go"}, []string{"python"}
	bTeaches, bWants := []string{"python"}, []string{"guitar"}

	ab := MatchScore(aTeaches, aWants, bTeaches, bWants)
	ba := MatchScore(bTeaches, bWants, aTeaches, aWants)
	if ab != ba {
		t.Errorf("score not symmetric: %d vs %d", ab, ba)
	}
}

func TestParseSkillList(t *testing.T) {
	got := ParseSkillList(" guitar, , python ,go")
	want := []string{"guitar", "python", "go"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if ParseSkillList("") != nil {
		t.Error("empty input must return nil")
	}
}
