package service

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTextColorFor(t *testing.T) {
	tests := []struct {
		name       string
		background string
		want       string
	}{
		{"white background gets black text", "#FFFFFF", "#000000"},
		{"black background gets white text", "#000000", "#FFFFFF"},
		{"leading hash is optional", "FFFFFF", "#000000"},
		{"lowercase digits parse", "#ffffff", "#000000"},
		{"mid gray is treated as dark", "#969696", "#FFFFFF"},
		{"light gray is treated as light", "#979797", "#000000"},
		{"saturated red gets white text", "#FF0000", "#FFFFFF"},
		{"saturated green gets black text", "#00FF00", "#000000"},
		{"wrong length falls back to black text", "bad", "#000000"},
		{"empty string falls back to black text", "", "#000000"},
		{"seven digits fall back to black text", "#1234567", "#000000"},
		{"six digits without hash parse", "123456", "#FFFFFF"},
		{"malformed channel parses as zero", "#ZZZZZZ", "#FFFFFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TextColorFor(tt.background); got != tt.want {
				t.Errorf("TextColorFor(%q) = %q, want %q", tt.background, got, tt.want)
			}
		})
	}
}

func TestProperty_TextColorIsAlwaysBlackOrWhite(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("any input yields black or white", prop.ForAll(
		func(input string) bool {
			got := TextColorFor(input)
			return got == "#000000" || got == "#FFFFFF"
		},
		gen.AnyString(),
	))

	properties.Property("brightness cutoff is respected for valid colors", prop.ForAll(
		func(r, g, b int) bool {
			hex := "#" + hexByte(r) + hexByte(g) + hexByte(b)
			brightness := (299*r + 587*g + 114*b) / 1000

			got := TextColorFor(hex)
			if brightness > 150 {
				return got == "#000000"
			}
			return got == "#FFFFFF"
		},
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func hexByte(v int) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[v>>4], digits[v&0xf]})
}
