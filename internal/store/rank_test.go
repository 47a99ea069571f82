package store

import (
	"math"
	"testing"
)

func TestTrigrams(t *testing.T) {
	got := trigrams("gimp")
	want := []string{"gim", "imp"}
	if len(got) != len(want) {
		t.Fatalf("trigrams(gimp) = %v, want %v", got, want)
	}
	for _, w := range want {
		if _, ok := got[w]; !ok {
			t.Errorf("trigrams(gimp) missing %q", w)
		}
	}
}

func TestTrigramsShortString(t *testing.T) {
	got := trigrams("ls")
	if len(got) != 1 {
		t.Fatalf("trigrams(ls) = %v, want single entry", got)
	}
	if _, ok := got["ls"]; !ok {
		t.Errorf("short strings are their own trigram, got %v", got)
	}

	if len(trigrams("")) != 0 {
		t.Error("empty string has no trigrams")
	}
}

func TestTrigramSimilarity(t *testing.T) {
	a := trigrams("gimp")
	b := trigrams("gimp")
	if sim := trigramSimilarity(a, b); sim != 1.0 {
		t.Errorf("identical sets similarity = %v, want 1.0", sim)
	}

	c := trigrams("xyzzy")
	if sim := trigramSimilarity(a, c); sim != 0 {
		t.Errorf("disjoint sets similarity = %v, want 0", sim)
	}

	// "gimp" vs "gimp image editor": both query trigrams appear in the name
	d := trigrams("gimp image editor")
	sim := trigramSimilarity(a, d)
	wantUnion := float64(len(d)) // a is a subset of d
	if math.Abs(sim-2.0/wantUnion) > 1e-9 {
		t.Errorf("similarity = %v, want %v", sim, 2.0/wantUnion)
	}
	if sim <= similarityThreshold {
		t.Errorf("similarity %v should clear the threshold %v", sim, similarityThreshold)
	}
}

func TestTokenScore(t *testing.T) {
	tests := []struct {
		tokens     []string
		searchname string
		want       float64
	}{
		{nil, "firefox", 0},
		{[]string{"fire"}, "firefox", 1.5},              // prefix of whole name
		{[]string{"web"}, "firefox web browser", 1.3},   // prefix of an inner word
		{[]string{"refo"}, "firefox", 1.0},              // plain substring
		{[]string{"zz"}, "firefox", 0},                  // no match
		{[]string{"fire", "zz"}, "firefox", 0.75},       // (1.5 + 0) / 2
		{[]string{"fire", "brow"}, "firefox browser", 1.4}, // (1.5 + 1.3) / 2
	}
	for _, tt := range tests {
		got := tokenScore(tt.tokens, tt.searchname)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("tokenScore(%v, %q) = %v, want %v", tt.tokens, tt.searchname, got, tt.want)
		}
	}
}
