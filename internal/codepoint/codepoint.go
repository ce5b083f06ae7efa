// Package codepoint is the normalization routine external to the lattice
// model: it turns a raw UTF-8 chunk into an NFC-normalized codepoint
// sequence, the unit boundaries and node spans are counted in.
package codepoint

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalize validates s as UTF-8 and returns its NFC-normalized runes.
func Normalize(s string) ([]rune, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("codepoint: invalid UTF-8 input %q", s)
	}
	return []rune(norm.NFC.String(s)), nil
}
