package tle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/signalsfoundry/satobs/model"
)

// Two-digit epoch years up to yearPivot belong to the 2000s.
const yearPivot = 56

var errNotDigits = errors.New("expected decimal digits")

// Checksum returns the modulo-10 checksum of the first 68 columns of an
// element line: digits count at face value, '-' counts as 1.
func Checksum(line string) int {
	n := len(line)
	if n > 68 {
		n = 68
	}
	sum := 0
	for i := 0; i < n; i++ {
		switch c := line[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

func verifyChecksum(field, line string) error {
	want := line[68]
	if want < '0' || want > '9' {
		return fieldError(field+" checksum", string(want), errNotDigits)
	}
	if got := Checksum(line); got != int(want-'0') {
		return &ParseError{
			Kind:  ChecksumMismatch,
			Field: field,
			Raw:   line,
			Err:   fmt.Errorf("computed %d, record says %c", got, want),
		}
	}
	return nil
}

func parseInt(field, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fieldError(field, raw, err)
	}
	return v, nil
}

var errNotFixedPoint = errors.New("not a fixed-point decimal")

func parseFloat(field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if !isFixedPoint(s) {
		return 0, fieldError(field, raw, errNotFixedPoint)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fieldError(field, raw, err)
	}
	return v, nil
}

// isFixedPoint reports whether s is an optional sign followed by digits with
// at most one decimal point. At least one digit is required, so ".5" and "5."
// pass while "NaN", "1e2" and "0x1p8" do not.
func isFixedPoint(s string) bool {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return false
	}
	return (whole == "" || allDigits(whole)) && (frac == "" || allDigits(frac))
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseAssumedDecimal decodes the "SNNNNNSE" notation: a sign column, five
// mantissa digits with an implied leading decimal point, then a sign column
// and a one-digit power of ten. "-13101-3" is -0.13101e-3. A blank sign
// column means positive.
func parseAssumedDecimal(field, raw string) (float64, error) {
	if len(raw) != 8 {
		return 0, fieldError(field, raw, fmt.Errorf("width %d, want 8", len(raw)))
	}
	if !isSignColumn(raw[0]) || !isSignColumn(raw[6]) {
		return 0, fieldError(field, raw, errors.New("sign must be '+', '-' or blank"))
	}
	if !allDigits(raw[1:6]) || !allDigits(raw[7:]) {
		return 0, fieldError(field, raw, errNotDigits)
	}
	m, err := strconv.ParseFloat("0."+raw[1:6], 64)
	if err != nil {
		return 0, fieldError(field, raw, err)
	}
	e := int(raw[7] - '0')
	if raw[0] == '-' {
		m = -m
	}
	if raw[6] == '-' {
		e = -e
	}
	return m * math.Pow10(e), nil
}

func isSignColumn(c byte) bool {
	return c == ' ' || c == '+' || c == '-'
}

// parseEccentricity decodes the seven digits that follow an implied "0.".
func parseEccentricity(raw string) (float64, error) {
	digits := strings.TrimSpace(raw)
	if !allDigits(digits) {
		return 0, fieldError("eccentricity", raw, errNotDigits)
	}
	v, err := strconv.ParseFloat("0."+digits, 64)
	if err != nil {
		return 0, fieldError("eccentricity", raw, err)
	}
	return v, nil
}

// parseCatalogNumber accepts plain five-digit numbers as well as Alpha-5
// numbers where a leading letter (I and O skipped) stands for 10..33.
func parseCatalogNumber(field, raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fieldError(field, raw, errNotDigits)
	}
	if c := s[0]; c >= 'A' && c <= 'Z' {
		if c == 'I' || c == 'O' || len(s) != 5 || !allDigits(s[1:]) {
			return 0, fieldError(field, raw, errors.New("invalid Alpha-5 catalog number"))
		}
		rest, _ := strconv.Atoi(s[1:])
		return alpha5Value(c)*10000 + rest, nil
	}
	if !allDigits(s) {
		return 0, fieldError(field, raw, errNotDigits)
	}
	v, _ := strconv.Atoi(s)
	return v, nil
}

func alpha5Value(c byte) int {
	idx := int(c - 'A')
	if c > 'I' {
		idx--
	}
	if c > 'O' {
		idx--
	}
	return 10 + idx
}

func alpha5Letter(v int) byte {
	c := byte('A' + v - 10)
	if c >= 'I' {
		c++
	}
	if c >= 'O' {
		c++
	}
	return c
}

func parseClassification(raw string) (model.Classification, error) {
	c, ok := model.ClassificationFromCode(raw)
	if !ok {
		return 0, &ParseError{Kind: UnknownClassification, Field: "classification", Raw: raw}
	}
	return c, nil
}

// parseDesignator decodes YYNNNPPP. A blank designator is valid and yields
// the zero value.
func parseDesignator(raw string) (model.Designator, error) {
	if strings.TrimSpace(raw) == "" {
		return model.Designator{}, nil
	}
	year, err := parseInt("designator year", raw[0:2])
	if err != nil {
		return model.Designator{}, err
	}
	num, err := parseInt("designator launch number", raw[2:5])
	if err != nil {
		return model.Designator{}, err
	}
	return model.Designator{
		LaunchYear:   year,
		LaunchNumber: num,
		Piece:        strings.TrimSpace(raw[5:]),
	}, nil
}

// parseEpoch decodes YYDDD.DDDDDDDD into a UTC time. The integer part is the
// 1-based day of year and the fraction is the elapsed part of that day.
func parseEpoch(raw string) (time.Time, error) {
	yy := raw[0:2]
	if !allDigits(yy) {
		return time.Time{}, fieldError("epoch year", raw, errNotDigits)
	}
	year, _ := strconv.Atoi(yy)
	if year <= yearPivot {
		year += 2000
	} else {
		year += 1900
	}

	days, err := parseFloat("epoch day", raw[2:])
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return time.Time{}, fieldError("epoch day", raw, errNotFixedPoint)
	}
	leap := julian.LeapYearGregorian(year)
	daysInYear := 365
	if leap {
		daysInYear = 366
	}
	doy := math.Floor(days)
	if doy < 1 || doy > float64(daysInYear) {
		return time.Time{}, &ParseError{
			Kind:  DateOutOfRange,
			Field: "epoch",
			Raw:   raw,
			Err:   fmt.Errorf("day %v outside 1..%d of %d", doy, daysInYear, year),
		}
	}

	month, day := julian.DayOfYearToCalendar(int(doy), leap)
	tod := time.Duration(math.Round((days-doy)*86400e6)) * time.Microsecond
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Add(tod), nil
}
