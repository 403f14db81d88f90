package tle

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderMixedRecords(t *testing.T) {
	input := strings.Join([]string{
		issName,
		issLine1,
		issLine2,
		"",
		arianeLine1, // two-line record without a name
		arianeLine2,
		"0 ISS (ZARYA)",
		issOctLine1,
		issOctLine2,
	}, "\r\n")

	r := NewReader(strings.NewReader(input))

	es, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "ISS (ZARYA)", es.Name)

	es, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 25543, es.CatalogNumber)
	assert.Empty(t, es.Name)

	es, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "ISS (ZARYA)", es.Name)
	assert.Equal(t, 288, es.Epoch.YearDay())

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadAllSkipsBadRecords(t *testing.T) {
	input := strings.Join([]string{
		issName,
		issLine1[:68] + "7",
		issLine2,
		arianeName,
		arianeLine1,
		arianeLine2,
	}, "\n")

	sets, err := ReadAll(strings.NewReader(input))
	require.Len(t, sets, 1)
	assert.Equal(t, 25543, sets[0].CatalogNumber)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &ParseError{Kind: ChecksumMismatch}))
	assert.Contains(t, err.Error(), "record at line 1")
}

func TestReaderRealignsAfterMissingLine(t *testing.T) {
	input := strings.Join([]string{
		issName,
		issLine1,
		arianeName, // line 2 of the ISS record is missing
		arianeLine1,
		arianeLine2,
	}, "\n")

	sets, err := ReadAll(strings.NewReader(input))
	require.Len(t, sets, 1)
	assert.Equal(t, "deb Ariane", sets[0].Name)
	assert.Equal(t, LineNumberMismatch, KindOf(err))
}

func TestReaderTruncatedRecord(t *testing.T) {
	sets, err := ReadAll(strings.NewReader(issName + "\n" + issLine1 + "\n"))
	assert.Empty(t, sets)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
