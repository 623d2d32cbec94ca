package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"aa:bb:cc:dd:ee:ff":   "AABBCCDDEEFF",
		"AA-BB-CC-DD-EE-FF":   "AABBCCDDEEFF",
		"aabbccddeeff":        "AABBCCDDEEFF",
		" a1:B2-c3:d4:e5:f6 ": "A1B2C3D4E5F6",
		"":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"aa:bb:cc:dd:ee:ff", "0a-1b-2c", "", "xyz", "AABBCCDDEEFF"} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestWithSeparators_RoundTrip(t *testing.T) {
	in := "aa-bb-cc-dd-ee-ff"
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", WithColons(in))
	assert.Equal(t, "AA-BB-CC-DD-EE-FF", WithHyphens(in))
	assert.Equal(t, Normalize(in), Normalize(WithColons(Normalize(in))))
	assert.Equal(t, Normalize(in), Normalize(WithHyphens(Normalize(in))))
}

func TestWithColons_Short(t *testing.T) {
	assert.Equal(t, "", WithColons(""))
	assert.Equal(t, "AB", WithColons("ab"))
	assert.Equal(t, "AB:C", WithColons("abc"))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("aabbccddeeff", "AA:BB:CC:DD:EE:FF"))
	assert.False(t, Equal("aabbccddeeff", "AA:BB:CC:DD:EE:00"))
	assert.False(t, Equal("", ""))
	assert.False(t, Equal("", "AA:BB"))
}
