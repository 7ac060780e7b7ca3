package mongo

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
	"github.com/fmtdata/datafill/internal/core/ports/storetest"
)

func TestBuildListFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter ports.ListDatasetsFilter
		want   bson.M
	}{
		{
			name:   "empty",
			filter: ports.ListDatasetsFilter{Page: 1, Limit: 10},
			want:   bson.M{},
		},
		{
			name:   "category only",
			filter: ports.ListDatasetsFilter{Category: "names"},
			want:   bson.M{"category": "names"},
		},
		{
			name:   "search is escaped",
			filter: ports.ListDatasetsFilter{Search: "a.b(c"},
			want: bson.M{"$or": bson.A{
				bson.M{"name": primitive.Regex{Pattern: `a\.b\(c`, Options: "i"}},
				bson.M{"description": primitive.Regex{Pattern: `a\.b\(c`, Options: "i"}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildListFilter(tt.filter))
		})
	}
}

func TestBuildUpdate(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	name := "First-Names"
	data := []string{"Ann"}

	got := buildUpdate(domain.DatasetPatch{Name: &name, Data: &data, UpdatedAt: at})

	assert.Equal(t, bson.M{"$set": bson.M{
		"updated_at": at,
		"name":       "First-Names",
		"name_key":   "first-names",
		"data":       []string{"Ann"},
	}}, got)
}

func TestBuildUpdate_OnlyTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, bson.M{"$set": bson.M{"updated_at": at}}, buildUpdate(domain.DatasetPatch{UpdatedAt: at}))
}

func TestDatasetDocument_RoundTrip(t *testing.T) {
	d := storetest.NewDataset(t, "Colors", 0)
	doc := newDatasetDocument(d)

	assert.Equal(t, "colors", doc.NameKey)
	assert.Equal(t, d, doc.toDomain())
}

// TestDatasetRepository_Conformance runs the shared store suite against a
// live server when MONGO_TEST_URI is set. Each subtest uses its own database.
func TestDatasetRepository_Conformance(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	storetest.Run(t, func(t *testing.T) ports.DatasetStore {
		ctx := context.Background()
		dbName := "datafill_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

		client, db, err := Connect(ctx, Config{URI: uri, Database: dbName})
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = db.Drop(context.Background())
			_ = Disconnect(context.Background(), client)
		})

		repo := NewDatasetRepository(db)
		require.NoError(t, repo.EnsureIndexes(ctx))
		return repo
	})
}
