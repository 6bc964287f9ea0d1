package domain

import "testing"

func TestCanonicalDifficulty(t *testing.T) {
	cases := []struct {
		raw  string
		want Difficulty
	}{
		{"Easy", DifficultyEasy},
		{"Medium", DifficultyMedium},
		{"Hard", DifficultyHard},
		{"easy", DifficultyUnknown},
		{"Very Hard", DifficultyUnknown},
		{"", DifficultyUnknown},
	}
	for _, tc := range cases {
		if got := CanonicalDifficulty(tc.raw); got != tc.want {
			t.Fatalf("CanonicalDifficulty(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestIsRefusal(t *testing.T) {
	refusal := &StructuredAnswer{Subject: SubjectNonEducational}
	if !refusal.IsRefusal() {
		t.Fatalf("Non-Educational answer should be a refusal")
	}
	normal := &StructuredAnswer{Subject: "Maths"}
	if normal.IsRefusal() {
		t.Fatalf("educational answer should not be a refusal")
	}
}
