package language

import (
	"slices"
	"testing"
)

func TestForIndexer(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "auto"},
		{"AUTO", "auto"},
		{"en-US", "en-US"},
		{"en_us", "en-US"},
		{"fr-ca", "fr-CA"},
		{"english", "en"},
		{"not a language!", "auto"},
	}
	for _, tt := range tests {
		if got := ForIndexer(tt.input); got != tt.expected {
			t.Errorf("ForIndexer(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"en-US", "en"},
		{"eng", "en"},
		{"fra", "fr"},
		{"deu", "de"},
		{"spanish", "es"},
		{"", ""},
		{"!!", ""},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "Unknown"},
		{"en", "English"},
		{"de", "German"},
		{"ja", "Japanese"},
		{"!!", "!!"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"en-US", "eng", "", "fr", "bogus!!", "en-GB", "german"})
	want := []string{"en", "fr", "de"}
	if !slices.Equal(got, want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	if NormalizeList(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
