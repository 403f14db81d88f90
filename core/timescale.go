package core

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"gopkg.in/yaml.v3"
)

const (
	// J2000 is the Julian date of the J2000.0 epoch.
	J2000 = 2451545.0
	// DaysPerCentury is the length of a Julian century.
	DaysPerCentury = 36525.0

	secondsPerDay = 86400.0
	// baseTAIMinusUTC is TAI-UTC on 1972-01-01, before the first leap second.
	baseTAIMinusUTC = 10.0
	// ttMinusTAI is the fixed offset between TT and TAI in seconds.
	ttMinusTAI = 32.184
)

// defaultLeapSeconds lists the UTC dates at which each leap second took
// effect, through 2017-01-01.
var defaultLeapSeconds = []float64{
	2441499.5, 2441683.5, 2442048.5, 2442413.5, 2442778.5, 2443144.5,
	2443509.5, 2443874.5, 2444239.5, 2444786.5, 2445151.5, 2445516.5,
	2446247.5, 2447161.5, 2447892.5, 2448257.5, 2448804.5, 2449169.5,
	2449534.5, 2450083.5, 2450630.5, 2451179.5, 2453736.5, 2454832.5,
	2456109.5, 2457204.5, 2457754.5,
}

// LeapSecondTable is an ordered, append-only list of Julian dates (UTC) at
// which a leap second was introduced. A table is never modified after it is
// built; Extend returns a new version.
type LeapSecondTable struct {
	epochs []float64
}

// DefaultLeapSeconds returns the built-in table.
func DefaultLeapSeconds() *LeapSecondTable {
	return &LeapSecondTable{epochs: append([]float64(nil), defaultLeapSeconds...)}
}

// NewLeapSecondTable validates that epochs are strictly increasing.
func NewLeapSecondTable(epochs []float64) (*LeapSecondTable, error) {
	for i := 1; i < len(epochs); i++ {
		if epochs[i] <= epochs[i-1] {
			return nil, fmt.Errorf("core: leap second epoch %.1f is not after %.1f", epochs[i], epochs[i-1])
		}
	}
	return &LeapSecondTable{epochs: append([]float64(nil), epochs...)}, nil
}

// Len reports the number of leap seconds in the table.
func (t *LeapSecondTable) Len() int { return len(t.epochs) }

// Last returns the most recent entry, or 0 for an empty table.
func (t *LeapSecondTable) Last() float64 {
	if len(t.epochs) == 0 {
		return 0
	}
	return t.epochs[len(t.epochs)-1]
}

// Extend returns a new table with epochs appended. Appended entries must be
// later than every existing one.
func (t *LeapSecondTable) Extend(epochs ...float64) (*LeapSecondTable, error) {
	merged := make([]float64, 0, len(t.epochs)+len(epochs))
	merged = append(merged, t.epochs...)
	merged = append(merged, epochs...)
	return NewLeapSecondTable(merged)
}

// TAIMinusUTC returns TAI-UTC in seconds at the UTC Julian date jd: the base
// offset plus one second per table entry at or before jd.
func (t *LeapSecondTable) TAIMinusUTC(jd float64) float64 {
	n := sort.Search(len(t.epochs), func(i int) bool { return t.epochs[i] > jd })
	return baseTAIMinusUTC + float64(n)
}

// UTCToTT converts a UTC Julian date to Terrestrial Time.
func (t *LeapSecondTable) UTCToTT(jd float64) float64 {
	return jd + (t.TAIMinusUTC(jd)+ttMinusTAI)/secondsPerDay
}

type leapSecondFile struct {
	LeapSeconds []string `yaml:"leap_seconds"`
}

// ParseLeapSecondTable reads a YAML document of the form
//
//	leap_seconds:
//	  - 1972-07-01
//	  - 1973-01-01
//
// Each date is the first UTC day on which the new offset applies.
func ParseLeapSecondTable(r io.Reader) (*LeapSecondTable, error) {
	var f leapSecondFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("core: leap second file is empty")
		}
		return nil, fmt.Errorf("core: decode leap second file: %w", err)
	}
	epochs := make([]float64, 0, len(f.LeapSeconds))
	for _, s := range f.LeapSeconds {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, fmt.Errorf("core: leap second date %q: %w", s, err)
		}
		epochs = append(epochs, JulianDate(d))
	}
	return NewLeapSecondTable(epochs)
}

var leapSeconds atomic.Pointer[LeapSecondTable]

func init() {
	leapSeconds.Store(DefaultLeapSeconds())
}

// LeapSeconds returns the process-wide table.
func LeapSeconds() *LeapSecondTable {
	return leapSeconds.Load()
}

// InstallLeapSeconds replaces the process-wide table. It is meant to be
// called once at startup, after loading a newer table from disk.
func InstallLeapSeconds(t *LeapSecondTable) {
	if t == nil {
		return
	}
	leapSeconds.Store(t)
}

// UTCToTT converts a UTC Julian date to Terrestrial Time using the
// process-wide leap second table.
func UTCToTT(jd float64) float64 {
	return LeapSeconds().UTCToTT(jd)
}

// JulianDate returns the Julian date of t on its own time scale.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// CenturiesSinceJ2000 returns Julian centuries of TT elapsed since J2000 for
// the UTC instant t.
func CenturiesSinceJ2000(t time.Time) float64 {
	return (UTCToTT(JulianDate(t)) - J2000) / DaysPerCentury
}
