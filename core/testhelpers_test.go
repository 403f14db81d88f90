package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/satobs/model"
	"github.com/signalsfoundry/satobs/tle"
)

const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   21316.58314353 -.00007551  00000-0 -13101-3 0  9994"
	issLine2 = "2 25544  51.6442 328.9484 0004731 186.1225 318.0089 15.48559922311590"
)

func issElementSet(t *testing.T) *model.ElementSet {
	t.Helper()
	es, err := tle.Parse(issName, issLine1, issLine2)
	require.NoError(t, err)
	return es
}
