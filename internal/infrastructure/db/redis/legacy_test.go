package redis

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports/storetest"
)

func TestLegacyScanner_Scan(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewDatasetStore(client, zerolog.Nop())

	require.NoError(t, store.Create(context.Background(), storetest.NewDataset(t, "current", 0)))
	require.NoError(t, mr.Set("dataset:colors", `{"description":"Design colors","data":["red","blue"]}`))
	require.NoError(t, mr.Set("dataset:cities", `{"data":["Paris"]}`))
	require.NoError(t, mr.Set("dataset:broken", `not json`))

	var got []domain.LegacyDataset
	skipped, err := NewLegacyScanner(client, zerolog.Nop()).Scan(context.Background(), func(d domain.LegacyDataset) error {
		got = append(got, d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)

	sort.Slice(got, func(i, j int) bool { return got[i].Name < got[j].Name })
	assert.Equal(t, []domain.LegacyDataset{
		{Name: "cities", Data: []string{"Paris"}},
		{Name: "colors", Description: "Design colors", Data: []string{"red", "blue"}},
	}, got)
}

func TestLegacyScanner_StopsOnVisitError(t *testing.T) {
	mr, client := newTestClient(t)
	require.NoError(t, mr.Set("dataset:colors", `{"data":["red"]}`))

	boom := errors.New("boom")
	_, err := NewLegacyScanner(client, zerolog.Nop()).Scan(context.Background(), func(domain.LegacyDataset) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
