package numfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePrefersCustomFormat(t *testing.T) {
	assert.Equal(t, "0.0%", Resolve(9, "0.0%"))
}

func TestResolveFallsBackToBuiltIn(t *testing.T) {
	assert.Equal(t, "m/d/yy", Resolve(14, ""))
}

func TestResolveUnknownIndexIsGeneral(t *testing.T) {
	assert.Equal(t, "General", Resolve(9999, ""))
}

func TestIsDateBuiltinRanges(t *testing.T) {
	assert.True(t, IsDate(14, ""))
	assert.True(t, IsDate(46, ""))
	assert.False(t, IsDate(2, ""))
	assert.False(t, IsDate(9, ""))
}

func TestIsDateCustomMask(t *testing.T) {
	assert.True(t, IsDate(0, "yyyy-mm-dd"))
	assert.False(t, IsDate(0, "#,##0.00"))
}

func TestScanForDateTokensIgnoresQuotedAndBracketedLiterals(t *testing.T) {
	assert.False(t, scanForDateTokens(`"day" 0`))
	assert.False(t, scanForDateTokens(`[Red]0.00`))
	assert.True(t, scanForDateTokens(`[$-409]h:mm AM/PM`))
}
