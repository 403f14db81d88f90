package tle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/satobs/model"
)

// Reader decodes a stream of records. Both three-line records (name first)
// and bare two-line records are accepted; blank lines are skipped.
type Reader struct {
	sc   *bufio.Scanner
	line int

	pending    string
	hasPending bool
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	return &Reader{sc: bufio.NewScanner(r)}
}

func (r *Reader) nextLine() (string, int, bool) {
	if r.hasPending {
		r.hasPending = false
		return r.pending, r.line, true
	}
	for r.sc.Scan() {
		r.line++
		l := strings.TrimRight(r.sc.Text(), " \t\r")
		if l == "" {
			continue
		}
		return l, r.line, true
	}
	return "", r.line, false
}

func isElementLine(l string, n byte) bool {
	return len(l) == LineLength && l[0] == n && l[1] == ' '
}

// Next returns the next element set. It returns io.EOF once the stream is
// exhausted. A malformed record yields an error wrapping the ParseError; the
// Reader stays usable and continues with the following record.
func (r *Reader) Next() (*model.ElementSet, error) {
	first, start, ok := r.nextLine()
	if !ok {
		if err := r.sc.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	name := ""
	line1 := first
	if !isElementLine(first, '1') {
		name = first
		if line1, _, ok = r.nextLine(); !ok {
			return nil, fmt.Errorf("tle: record at line %d: %w", start, io.ErrUnexpectedEOF)
		}
	}
	line2, _, ok := r.nextLine()
	if !ok {
		return nil, fmt.Errorf("tle: record at line %d: %w", start, io.ErrUnexpectedEOF)
	}
	if !strings.HasPrefix(line2, "2") {
		// line2 most likely opens the next record; leave it for the next call.
		r.pending, r.hasPending = line2, true
		return nil, fmt.Errorf("tle: record at line %d: %w", start,
			&ParseError{Kind: LineNumberMismatch, Field: "line 2", Raw: line2[:1]})
	}

	es, err := Parse(name, line1, line2)
	if err != nil {
		return nil, fmt.Errorf("tle: record at line %d: %w", start, err)
	}
	return es, nil
}

// ReadAll decodes every record in r. Records that fail to parse are skipped
// and their errors joined into the returned error.
func ReadAll(r io.Reader) ([]*model.ElementSet, error) {
	rd := NewReader(r)
	var (
		sets []*model.ElementSet
		errs []error
	)
	for {
		es, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				errs = append(errs, err)
				break
			}
			errs = append(errs, err)
			continue
		}
		sets = append(sets, es)
	}
	return sets, errors.Join(errs...)
}
