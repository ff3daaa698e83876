package match

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"StopWordsDropped", "Grand Hotel Plaza", "plaza"},
		{"WordOrderPreserved", "Paradise Sun Siyam", "paradise sun siyam"},
		{"DiacriticsStripped", "Hôtel Étoile", "etoile"},
		{"PunctuationRemoved", "One&Only Reethi Rah", "one only reethi rah"},
		{"DigitsSpelledOut", "Park 5 Residence", "park five residence"},
		{"DuplicatesCollapsed", "Plaza Plaza", "plaza"},
		{"ShortWordsDropped", "W Maldives", "maldives"},
		{"Empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.want {
				t.Fatalf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractBrand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Four Seasons Resort Maldives", "four seasons"},
		{"Hilton Garden Inn Warsaw", "hilton"},
		{"Sunny Beach Apartments", ""},
	}
	for _, tt := range tests {
		if got := ExtractBrand(tt.in); got != tt.want {
			t.Fatalf("ExtractBrand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWordOverlap(t *testing.T) {
	if got := wordOverlap("four seasons kuda huraa", "four seasons kuda huraa"); got != 1 {
		t.Fatalf("identical sets should overlap fully, got %f", got)
	}
	if got := wordOverlap("alpha beta", "gamma delta"); got != 0 {
		t.Fatalf("disjoint sets should not overlap, got %f", got)
	}
	if got := wordOverlap("", "alpha"); got != 0 {
		t.Fatalf("empty input should yield zero, got %f", got)
	}
}
