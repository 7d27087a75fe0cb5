package validate

import "testing"

func TestLettersOnly(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"single word", "Alice", true},
		{"two words", "Mary Jane", true},
		{"three words", "Anna Maria Lopez", true},
		{"lower case", "bob", true},
		{"accented composed", "José", true},
		{"accented decomposed", "Jose\u0301", true},
		{"non latin", "Дарья", true},
		{"devanagari vowel signs", "हिन्दी", true},
		{"devanagari two words", "नई दिल्ली", true},
		{"leading combining mark", "\u0301Jose", false},
		{"combining mark after space", "Jose \u0301", false},
		{"empty", "", false},
		{"only space", " ", false},
		{"leading space", " Alice", false},
		{"trailing space", "Alice ", false},
		{"double space", "Mary  Jane", false},
		{"tab", "Mary\tJane", false},
		{"digit", "Alice2", false},
		{"only digits", "123", false},
		{"hyphen", "Mary-Jane", false},
		{"apostrophe", "O'Neil", false},
		{"punctuation", "Alice!", false},
		{"newline", "Alice\n", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LettersOnly(tc.input); got != tc.want {
				t.Errorf("LettersOnly(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Jose\u0301", "Jos\u00e9"},
		{"  Ada ", "Ada"},
		{"हिन्दी", "हिन्दी"},
	}
	for _, tc := range tests {
		if got := Normalize(tc.input); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestName(t *testing.T) {
	if err := Name("Alice"); err != nil {
		t.Errorf("expected valid name, got %v", err)
	}

	err := Name("4lice")
	if err == nil {
		t.Fatal("expected error for digit in name")
	}
	if err.Field != "name" {
		t.Errorf("Field = %s, want name", err.Field)
	}
	if err.Error() != "Enter a valid name (letters only)." {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestLocation(t *testing.T) {
	if err := Location("New York"); err != nil {
		t.Errorf("expected valid location, got %v", err)
	}
	if err := Location(""); err == nil {
		t.Error("expected error for empty location")
	}
}
