package util

import (
	"testing"
)

func TestSanitizeFileNameStripsUnsafeRunes(t *testing.T) {
	cases := map[string]string{
		"Chair":            "Chair",
		`a/b\c:d*e?f"g<h>`: "abcdefgh",
		"tab\there":        "tabhere",
		"椅子|木製":            "椅子木製",
		"":                 "",
		"///":              "",
	}

	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFileNameNormalizesComposition(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	if SanitizeFileName(composed) != SanitizeFileName(decomposed) {
		t.Fatalf("composed and decomposed spellings should sanitize to the same key")
	}
}

func TestSplitTerms(t *testing.T) {
	got := SplitTerms("  Wood   CHAIR ")
	if len(got) != 2 || got[0] != "wood" || got[1] != "chair" {
		t.Fatalf("unexpected terms: %#v", got)
	}
}
