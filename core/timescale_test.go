package core

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jdOf(y int, m time.Month, d int) float64 {
	return JulianDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestJulianDate(t *testing.T) {
	assert.Equal(t, J2000, JulianDate(time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2441499.5, jdOf(1972, time.July, 1))
	assert.Equal(t, 2459530.5, jdOf(2021, time.November, 12))
}

func TestTAIMinusUTC(t *testing.T) {
	tbl := DefaultLeapSeconds()
	require.Equal(t, 27, tbl.Len())

	tests := []struct {
		jd   float64
		want float64
	}{
		{jdOf(1970, time.January, 1), 10},
		{jdOf(1972, time.June, 30), 10},
		{jdOf(1972, time.July, 1), 11},
		{jdOf(1999, time.January, 1), 32},
		{jdOf(2016, time.December, 31), 36},
		{jdOf(2017, time.January, 1), 37},
		{jdOf(2021, time.November, 12), 37},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tbl.TAIMinusUTC(tt.jd), "jd %.1f", tt.jd)
	}
}

func TestUTCToTT(t *testing.T) {
	jd := jdOf(2021, time.November, 12)
	assert.InDelta(t, jd+(37+32.184)/86400, UTCToTT(jd), 1e-9)
	assert.InDelta(t, J2000+64.184/86400, UTCToTT(J2000), 1e-9)

	c := CenturiesSinceJ2000(time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC))
	assert.InDelta(t, 64.184/86400/DaysPerCentury, c, 1e-15)
}

func TestParseLeapSecondTable(t *testing.T) {
	f, err := os.Open("testdata/leap_seconds.yaml")
	require.NoError(t, err)
	defer f.Close()

	tbl, err := ParseLeapSecondTable(f)
	require.NoError(t, err)
	assert.InDeltaSlice(t, DefaultLeapSeconds().epochs, tbl.epochs, 1e-9)
}

func TestParseLeapSecondTableErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":      "",
		"bad date":   "leap_seconds: [1972-13-01]",
		"unordered":  "leap_seconds: [1973-01-01, 1972-07-01]",
		"duplicated": "leap_seconds: [1973-01-01, 1973-01-01]",
		"not yaml":   "leap_seconds: [",
	} {
		_, err := ParseLeapSecondTable(strings.NewReader(doc))
		assert.Error(t, err, name)
	}
}

func TestExtendLeapSeconds(t *testing.T) {
	base := DefaultLeapSeconds()
	next := jdOf(2030, time.January, 1)

	ext, err := base.Extend(next)
	require.NoError(t, err)
	assert.Equal(t, 28, ext.Len())
	assert.Equal(t, 27, base.Len(), "original table must not change")
	assert.Equal(t, 38.0, ext.TAIMinusUTC(next))
	assert.Equal(t, 37.0, base.TAIMinusUTC(next))
	assert.Equal(t, next, ext.Last())

	_, err = base.Extend(jdOf(2010, time.January, 1))
	assert.Error(t, err)
}

func TestInstallLeapSeconds(t *testing.T) {
	orig := LeapSeconds()
	t.Cleanup(func() { InstallLeapSeconds(orig) })

	next := jdOf(2030, time.January, 1)
	ext, err := orig.Extend(next)
	require.NoError(t, err)

	InstallLeapSeconds(ext)
	assert.InDelta(t, next+(38+32.184)/86400, UTCToTT(next), 1e-9)

	InstallLeapSeconds(nil)
	assert.Same(t, ext, LeapSeconds())
}
