// Package mask hides the middle of player names shown on the public board.
package mask

import "strings"

const (
	Placeholder = "Player"
	Marker      = "****"
)

// Mask obfuscates name deterministically. Lengths are counted in runes.
// Names of up to six runes keep max(1, n/3) runes at each end around the
// marker; longer names keep (n-4)/2 leading runes and everything after the
// four runes the marker replaces.
func Mask(name string) string {
	if name == "" {
		return Placeholder
	}
	r := []rune(name)
	n := len(r)

	var b strings.Builder
	if n <= 6 {
		keep := max(1, n/3)
		b.WriteString(string(r[:keep]))
		b.WriteString(Marker)
		b.WriteString(string(r[n-keep:]))
		return b.String()
	}

	left := (n - 4) / 2
	b.WriteString(string(r[:left]))
	b.WriteString(Marker)
	b.WriteString(string(r[left+4:]))
	return b.String()
}
