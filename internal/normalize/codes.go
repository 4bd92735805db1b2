package normalize

import (
	"regexp"
	"strings"
)

var codeSeparators = regexp.MustCompile(`[.\-_/ \t]`)

// NormalizeCode strips separator characters (dots, dashes, underscores,
// slashes, spaces, tabs) from a procedure code so that "85.010-0" and
// "850100" map to the same key. When stripZeros is set, leading zeros are
// removed as well. Idempotent: normalizing an already-normalized code is a
// no-op.
func NormalizeCode(code string, stripZeros bool) string {
	s := codeSeparators.ReplaceAllString(code, "")
	s = strings.TrimSpace(s)
	if stripZeros {
		s = strings.TrimLeft(s, "0")
	}
	return s
}

var nonDigits = regexp.MustCompile(`[^\d]`)

// DigitsOnly keeps only decimal digits. Used to clean denial-reason codes
// that arrive formatted as numbers (e.g. "2,012" -> "2012").
func DigitsOnly(s string) string {
	return strings.TrimSpace(nonDigits.ReplaceAllString(s, ""))
}

// JoinKey composes a lookup key from a guide number and a normalized
// procedure code, using the literal double-underscore separator shared by
// both the billed and the statement side.
func JoinKey(guideNumber, codeNorm string) string {
	return strings.TrimSpace(guideNumber) + "__" + strings.TrimSpace(codeNorm)
}
