package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationsFile = "testdata/stations.tle"

// run executes the CLI with a config path that does not exist, so every
// test starts from the built-in defaults.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func decodeObservations(t *testing.T, stdout string) []observationJSON {
	t.Helper()
	var out []observationJSON
	sc := bufio.NewScanner(strings.NewReader(stdout))
	for sc.Scan() {
		var o observationJSON
		require.NoError(t, json.Unmarshal(sc.Bytes(), &o), sc.Text())
		out = append(out, o)
	}
	return out
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func TestParseCommand(t *testing.T) {
	stdout, stderr, err := run(t, "parse", stationsFile)
	require.NoError(t, err)

	var sets []elementSetJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &sets))
	require.Len(t, sets, 2)
	assert.Equal(t, "ISS (ZARYA)", sets[0].Name)
	assert.Equal(t, 25544, sets[0].CatalogNumber)
	assert.Equal(t, "98067A", sets[0].Designator)
	assert.InDelta(t, 0.7180051, sets[1].Eccentricity, 1e-12)

	assert.Contains(t, stderr, "skipping element set")
	assert.Contains(t, stderr, "checksum_mismatch")
}

func TestObserveCommand(t *testing.T) {
	stdout, _, err := run(t, "observe", stationsFile,
		"--at", "2021-11-12T14:00:00Z", "--name", "zarya")
	require.NoError(t, err)

	obs := decodeObservations(t, stdout)
	require.Len(t, obs, 1)
	assert.Equal(t, 25544, obs[0].CatalogNumber)
	assert.Equal(t, "GCRF", obs[0].Frame)
	assert.Nil(t, obs[0].Look)
	assert.InDelta(t, 6780, norm(obs[0].PositionKm), 60)
	assert.InDelta(t, 7.66, norm(obs[0].VelocityKmS), 0.1)
}

func TestObserveLookAngles(t *testing.T) {
	stdout, _, err := run(t, "observe", stationsFile,
		"--at", "2021-11-12T14:00:00Z", "--name", "25544", "--lat", "51.5", "--lon", "-0.1")
	require.NoError(t, err)

	obs := decodeObservations(t, stdout)
	require.Len(t, obs, 1)
	require.NotNil(t, obs[0].Look)
	look := obs[0].Look
	assert.GreaterOrEqual(t, look.AzimuthDeg, 0.0)
	assert.Less(t, look.AzimuthDeg, 360.0)
	assert.GreaterOrEqual(t, look.ElevationDeg, -90.0)
	assert.LessOrEqual(t, look.ElevationDeg, 90.0)
	assert.Greater(t, look.RangeKm, 300.0)
	assert.Equal(t, look.ElevationDeg > 0, look.Visible)
}

func TestObserveNoMatch(t *testing.T) {
	_, _, err := run(t, "observe", stationsFile, "--name", "hubble")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no element set matches")
}

func TestImportThenTrackFromDB(t *testing.T) {
	db := filepath.Join(t.TempDir(), "catalog.db")

	stdout, _, err := run(t, "import", stationsFile, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "imported 2 element sets")

	t.Setenv("SATOBS_CATALOG_DB", db)
	stdout, _, err = run(t, "track", "--from-db", "--accelerated",
		"--start", "2021-11-12T14:00:00Z", "--tick", "1m", "--duration", "3m")
	require.NoError(t, err)

	var iss []observationJSON
	for _, o := range decodeObservations(t, stdout) {
		if o.CatalogNumber == 25544 {
			iss = append(iss, o)
		}
	}
	require.Len(t, iss, 3)
	assert.Equal(t, "2021-11-12T14:01:00Z", iss[0].Time.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, "2021-11-12T14:03:00Z", iss[2].Time.Format("2006-01-02T15:04:05Z07:00"))
}

func TestTrackRequiresInput(t *testing.T) {
	_, _, err := run(t, "track")
	require.Error(t, err)

	_, _, err = run(t, "track", stationsFile, "--accelerated")
	require.Error(t, err, "accelerated tracking without a duration never ends")
}
