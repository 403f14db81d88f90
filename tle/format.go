package tle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/satobs/model"
)

// Format renders an element set as two canonical element lines, each
// terminated by a freshly computed checksum digit. It is the inverse of Parse
// for every value representable at TLE precision.
func Format(es *model.ElementSet) (line1, line2 string, err error) {
	num, err := formatCatalogNumber(es.CatalogNumber)
	if err != nil {
		return "", "", err
	}
	ndot, err := formatMeanMotionDot(es.MeanMotionDot)
	if err != nil {
		return "", "", err
	}
	nddot, err := formatAssumedDecimal(es.MeanMotionDDot)
	if err != nil {
		return "", "", fmt.Errorf("tle: mean motion second derivative: %w", err)
	}
	bstar, err := formatAssumedDecimal(es.BStar)
	if err != nil {
		return "", "", fmt.Errorf("tle: bstar: %w", err)
	}
	ecc, err := formatEccentricity(es.Eccentricity)
	if err != nil {
		return "", "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "1 %s%s %-8s %s %s %s %s %d %4d",
		num,
		es.Classification.Code(),
		formatDesignator(es.Designator),
		formatEpoch(es),
		ndot,
		nddot,
		bstar,
		es.EphemerisType%10,
		es.ElementSetNumber%10000,
	)
	line1 = withChecksum(b.String())

	b.Reset()
	fmt.Fprintf(&b, "2 %s %8.4f %8.4f %s %8.4f %8.4f %11.8f%5d",
		num,
		es.Inclination.Degrees,
		es.RightAscension.Degrees,
		ecc,
		es.ArgOfPerigee.Degrees,
		es.MeanAnomaly.Degrees,
		es.MeanMotion,
		es.RevolutionCount%100000,
	)
	line2 = withChecksum(b.String())

	if len(line1) != LineLength || len(line2) != LineLength {
		return "", "", fmt.Errorf("tle: element set %d does not fit the fixed columns", es.CatalogNumber)
	}
	return line1, line2, nil
}

func withChecksum(line string) string {
	return line + strconv.Itoa(Checksum(line))
}

func formatCatalogNumber(n int) (string, error) {
	switch {
	case n < 0 || n > 339999:
		return "", fmt.Errorf("tle: catalog number %d out of range", n)
	case n < 100000:
		return fmt.Sprintf("%05d", n), nil
	default:
		return fmt.Sprintf("%c%04d", alpha5Letter(n/10000), n%10000), nil
	}
}

func formatDesignator(d model.Designator) string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d%03d%s", d.LaunchYear%100, d.LaunchNumber%1000, d.Piece)
}

func formatEpoch(es *model.ElementSet) string {
	t := es.Epoch.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	frac := t.Sub(midnight).Seconds() / 86400
	year := t.Year()
	days := math.Round((float64(t.YearDay())+frac)*1e8) / 1e8
	// The last instants of a year round up to day N+1; carry them into day 1.
	if last := float64(time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC).YearDay()); days >= last+1 {
		year++
		days -= last
	}
	return fmt.Sprintf("%02d%012.8f", year%100, days)
}

// formatMeanMotionDot renders "-.00007551" style values, sign column
// included.
func formatMeanMotionDot(v float64) (string, error) {
	a := math.Abs(v)
	if a >= 1 {
		return "", fmt.Errorf("tle: mean motion first derivative %g out of range", v)
	}
	s := strconv.FormatFloat(a, 'f', 8, 64)
	return signChar(v) + strings.TrimPrefix(s, "0"), nil
}

// formatAssumedDecimal is the inverse of parseAssumedDecimal.
func formatAssumedDecimal(v float64) (string, error) {
	if v == 0 {
		return " 00000-0", nil
	}
	a := math.Abs(v)
	exp := int(math.Floor(math.Log10(a))) + 1
	mant := int(math.Round(a / math.Pow10(exp) * 1e5))
	if mant >= 100000 {
		mant /= 10
		exp++
	}
	if exp < -9 || exp > 9 {
		return "", fmt.Errorf("value %g out of range", v)
	}
	expSign := "+"
	if exp < 0 {
		expSign = "-"
	}
	return fmt.Sprintf("%s%05d%s%d", signChar(v), mant, expSign, absInt(exp)), nil
}

func formatEccentricity(e float64) (string, error) {
	if e < 0 || e >= 1 {
		return "", fmt.Errorf("tle: eccentricity %g out of range", e)
	}
	n := int(math.Round(e * 1e7))
	if n > 9999999 {
		n = 9999999
	}
	return fmt.Sprintf("%07d", n), nil
}

func signChar(v float64) string {
	if v < 0 {
		return "-"
	}
	return " "
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
