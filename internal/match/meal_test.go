package match

import "testing"

func TestNormalizeMealCodes(t *testing.T) {
	n := NewMealNormalizer()

	tests := []struct {
		provider string
		code     string
		want     MealPlan
	}{
		{"rate_hawk", "nomeal", MealRoomOnly},
		{"rate_hawk", "breakfast-for-2", MealBreakfast},
		{"rate_hawk", "ultra-all-inclusive", MealAllInclusive},
		{"rate_hawk", "half-board", MealHalfBoard},
		{"goglobal", "RO", MealRoomOnly},
		{"goglobal", "BB", MealBreakfast},
		{"goglobal", "HB", MealHalfBoard},
		{"goglobal", "FB", MealFullBoard},
		{"goglobal", "AI", MealAllInclusive},
		{"tbo", "Room Only", MealRoomOnly},
		{"tbo", "BreakFast", MealBreakfast},
		{"tbo", "All Inclusive", MealAllInclusive},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.provider, tt.code); got != tt.want {
			t.Errorf("Normalize(%s, %q) = %s, want %s", tt.provider, tt.code, got, tt.want)
		}
	}
}

func TestNormalizeUnknownCodeFallsBackToUnknown(t *testing.T) {
	n := NewMealNormalizer()

	if got := n.Normalize("tbo", "Special Meal Deal"); got != MealUnknown {
		t.Fatalf("unrecognized code must map to unknown, got %s", got)
	}
	if got := n.Normalize("rate_hawk", ""); got != MealUnknown {
		t.Fatalf("empty code must map to unknown, got %s", got)
	}
}

func TestNormalizeGenericFallbackForNewProvider(t *testing.T) {
	n := NewMealNormalizer()

	if got := n.Normalize("someprov", "BB"); got != MealBreakfast {
		t.Fatalf("generic table should cover conventional codes, got %s", got)
	}
}

func TestApplyOverrides(t *testing.T) {
	n := NewMealNormalizer()
	n.ApplyOverrides(map[string]map[string]string{
		"tbo": {
			"Special Meal Deal": "half_board",
			"Nonsense":          "banquet",
		},
	})

	if got := n.Normalize("tbo", "Special Meal Deal"); got != MealHalfBoard {
		t.Fatalf("override should pin the code, got %s", got)
	}
	if got := n.Normalize("tbo", "Nonsense"); got != MealUnknown {
		t.Fatalf("invalid override category must be ignored, got %s", got)
	}

	// built-in tables of other instances stay untouched
	if got := NewMealNormalizer().Normalize("tbo", "Special Meal Deal"); got != MealUnknown {
		t.Fatalf("overrides leaked into a fresh normalizer: %s", got)
	}
}

func TestParseMealPlan(t *testing.T) {
	if plan, ok := ParseMealPlan(" Half_Board "); !ok || plan != MealHalfBoard {
		t.Fatalf("expected half_board, got %s ok=%v", plan, ok)
	}
	if _, ok := ParseMealPlan("banquet"); ok {
		t.Fatal("unexpected accept of invalid category")
	}
}
