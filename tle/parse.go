// Package tle decodes and encodes two-line element sets.
//
// Records are column-exact: every field is read from a fixed half-open byte
// range of the 69-character element lines. A record is validated in full
// (line length, checksums, line numbers, then every field) before an
// ElementSet is returned, so callers never see a partially decoded set.
package tle

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/satobs/model"
)

// LineLength is the exact width of an element line.
const LineLength = 69

// ParseLines decodes a three-line record: name, line 1, line 2.
func ParseLines(lines []string) (*model.ElementSet, error) {
	if len(lines) != 3 {
		return nil, fieldError("record", strings.Join(lines, "\n"),
			fmt.Errorf("expected 3 lines, got %d", len(lines)))
	}
	return Parse(lines[0], lines[1], lines[2])
}

// Parse decodes a record from its name line and two element lines.
func Parse(name, line1, line2 string) (*model.ElementSet, error) {
	line1 = strings.TrimRight(line1, " \t\r\n")
	line2 = strings.TrimRight(line2, " \t\r\n")

	if len(line1) != LineLength {
		return nil, fieldError("line 1", line1, fmt.Errorf("length %d, want %d", len(line1), LineLength))
	}
	if len(line2) != LineLength {
		return nil, fieldError("line 2", line2, fmt.Errorf("length %d, want %d", len(line2), LineLength))
	}

	if err := verifyChecksum("line 1", line1); err != nil {
		return nil, err
	}
	if err := verifyChecksum("line 2", line2); err != nil {
		return nil, err
	}

	if line1[0] != '1' {
		return nil, &ParseError{Kind: LineNumberMismatch, Field: "line 1", Raw: line1[0:1]}
	}
	if line2[0] != '2' {
		return nil, &ParseError{Kind: LineNumberMismatch, Field: "line 2", Raw: line2[0:1]}
	}

	es := &model.ElementSet{
		Name: cleanName(name),
		Source: model.Record{
			Name:  strings.TrimRight(name, " \t\r\n"),
			Line1: line1,
			Line2: line2,
		},
	}
	if err := decodeLine1(line1, es); err != nil {
		return nil, err
	}
	if err := decodeLine2(line2, es); err != nil {
		return nil, err
	}
	return es, nil
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	// 3LE files prefix the name with a "0 " line number.
	if strings.HasPrefix(name, "0 ") {
		name = strings.TrimSpace(name[2:])
	}
	return name
}

func decodeLine1(l string, es *model.ElementSet) error {
	var err error
	if es.CatalogNumber, err = parseCatalogNumber("satellite number", l[2:7]); err != nil {
		return err
	}
	if es.Classification, err = parseClassification(l[7:8]); err != nil {
		return err
	}
	if es.Designator, err = parseDesignator(l[9:17]); err != nil {
		return err
	}
	if es.Epoch, err = parseEpoch(l[18:32]); err != nil {
		return err
	}
	if es.MeanMotionDot, err = parseFloat("mean motion first derivative", l[33:43]); err != nil {
		return err
	}
	if es.MeanMotionDDot, err = parseAssumedDecimal("mean motion second derivative", l[44:52]); err != nil {
		return err
	}
	if es.BStar, err = parseAssumedDecimal("bstar", l[53:61]); err != nil {
		return err
	}
	if l[62] != ' ' {
		if es.EphemerisType, err = parseInt("ephemeris type", l[62:63]); err != nil {
			return err
		}
	}
	if es.ElementSetNumber, err = parseInt("element set number", l[64:68]); err != nil {
		return err
	}
	return nil
}

func decodeLine2(l string, es *model.ElementSet) error {
	num, err := parseCatalogNumber("satellite number (line 2)", l[2:7])
	if err != nil {
		return err
	}
	if num != es.CatalogNumber {
		return fieldError("satellite number (line 2)", l[2:7],
			fmt.Errorf("line 1 has %d", es.CatalogNumber))
	}

	deg, err := parseFloat("inclination", l[8:16])
	if err != nil {
		return err
	}
	es.Inclination = model.AngleFromDegrees(deg)

	if deg, err = parseFloat("right ascension", l[17:25]); err != nil {
		return err
	}
	es.RightAscension = model.AngleFromDegrees(deg)

	if es.Eccentricity, err = parseEccentricity(l[26:33]); err != nil {
		return err
	}

	if deg, err = parseFloat("argument of perigee", l[34:42]); err != nil {
		return err
	}
	es.ArgOfPerigee = model.AngleFromDegrees(deg)

	if deg, err = parseFloat("mean anomaly", l[43:51]); err != nil {
		return err
	}
	es.MeanAnomaly = model.AngleFromDegrees(deg)

	if es.MeanMotion, err = parseFloat("mean motion", l[52:63]); err != nil {
		return err
	}
	if es.RevolutionCount, err = parseInt("revolution number", l[63:68]); err != nil {
		return err
	}
	return nil
}
