// Package address canonicalizes Bluetooth hardware addresses.
//
// Different fact sources report the same address in different shapes
// ("aa-bb-cc-dd-ee-ff", "AA:BB:CC:DD:EE:FF", "aabbccddeeff"). All matching is
// done on the normalized form returned by Normalize.
package address

import "strings"

var separators = strings.NewReplacer(":", "", "-", "")

// Normalize strips ':' and '-' separators and upper-cases hex digits.
// An empty input yields an empty output.
func Normalize(addr string) string {
	return strings.ToUpper(separators.Replace(strings.TrimSpace(addr)))
}

// WithColons returns the normalized address with ':' inserted every two characters.
func WithColons(addr string) string {
	return group(Normalize(addr), ':')
}

// WithHyphens returns the normalized address with '-' inserted every two characters.
func WithHyphens(addr string) string {
	return group(Normalize(addr), '-')
}

// Equal reports whether a and b name the same hardware address.
// Empty addresses never match anything, including each other.
func Equal(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

func group(s string, sep byte) string {
	if len(s) <= 2 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/2)
	for i := 0; i < len(s); i++ {
		if i > 0 && i%2 == 0 {
			b.WriteByte(sep)
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
