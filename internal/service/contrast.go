package service

import (
	"strconv"
	"strings"
)

const (
	blackText = "#000000"
	whiteText = "#FFFFFF"

	// brightnessCutoff separates light backgrounds (black text) from dark
	// and mid-tone backgrounds (white text).
	brightnessCutoff = 150
)

// TextColorFor returns a readable text color for the given background color.
// The input is a hex string with an optional leading '#'. Anything that is
// not exactly six hex digits falls back to black text; a malformed channel
// pair parses as zero. This is a total function with no error path.
func TextColorFor(backgroundHex string) string {
	hex := strings.TrimPrefix(backgroundHex, "#")
	if len(hex) != 6 {
		return blackText
	}

	r := parseChannel(hex[0:2])
	g := parseChannel(hex[2:4])
	b := parseChannel(hex[4:6])

	// Perceived brightness, integer-truncated
	brightness := (299*r + 587*g + 114*b) / 1000

	if brightness > brightnessCutoff {
		return blackText
	}
	return whiteText
}

func parseChannel(pair string) int {
	v, err := strconv.ParseUint(pair, 16, 8)
	if err != nil {
		return 0
	}
	return int(v)
}
