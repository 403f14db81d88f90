package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/satobs/model"
	"github.com/signalsfoundry/satobs/tle"
)

const (
	issName     = "ISS (ZARYA)"
	issLine1    = "1 25544U 98067A   21316.58314353 -.00007551  00000-0 -13101-3 0  9994"
	issLine2    = "2 25544  51.6442 328.9484 0004731 186.1225 318.0089 15.48559922311590"
	issOctLine1 = "1 25544U 98067A   21288.70144628  .00006635  00000-0  12985-3 0  9991"
	issOctLine2 = "2 25544  51.6430 106.8285 0003768 107.2156 352.5939 15.48692786307278"
	arianeName  = "deb Ariane"
	arianeLine1 = "1 25543U 88109K   21289.14855083 -.00000085  00000-0  56178-3 0  9995"
	arianeLine2 = "2 25543   6.5884 186.8092 7180051 173.3283 207.9933  2.29560923197418"
)

func mustParse(t *testing.T, name, l1, l2 string) *model.ElementSet {
	t.Helper()
	es, err := tle.Parse(name, l1, l2)
	require.NoError(t, err)
	return es
}

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLatest(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	n, err := s.Save(ctx, []*model.ElementSet{
		mustParse(t, issName, issOctLine1, issOctLine2),
		mustParse(t, issName, issLine1, issLine2),
		mustParse(t, arianeName, arianeLine1, arianeLine2),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 25543, latest[0].CatalogNumber)
	assert.Equal(t, "deb Ariane", latest[0].Name)
	assert.Equal(t, 25544, latest[1].CatalogNumber)
	assert.Equal(t, issLine1, latest[1].Source.Line1)
}

func TestSaveReplacesSameEpoch(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	es := mustParse(t, issName, issLine1, issLine2)
	_, err := s.Save(ctx, []*model.ElementSet{es})
	require.NoError(t, err)
	_, err = s.Save(ctx, []*model.ElementSet{es})
	require.NoError(t, err)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHistoryOrderedByEpoch(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	_, err := s.Save(ctx, []*model.ElementSet{
		mustParse(t, issName, issLine1, issLine2),
		mustParse(t, issName, issOctLine1, issOctLine2),
	})
	require.NoError(t, err)

	hist, err := s.History(ctx, 25544)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.True(t, hist[0].Epoch.Before(hist[1].Epoch))

	none, err := s.History(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveEncodesRecordsWithoutSource(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	es := *mustParse(t, issName, issLine1, issLine2)
	es.Source = model.Record{}
	_, err := s.Save(ctx, []*model.ElementSet{&es})
	require.NoError(t, err)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, issLine1, latest[0].Source.Line1)
	assert.Equal(t, issLine2, latest[0].Source.Line2)
}

func TestOpenFilePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Save(ctx, []*model.ElementSet{mustParse(t, issName, issLine1, issLine2)})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, path, s.Path())
}
