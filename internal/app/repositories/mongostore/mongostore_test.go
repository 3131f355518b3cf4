package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/app/repositories/storetest"
	"github.com/swipeattend/backend/internal/db"
)

// Set ATTENDANCE_TEST_MONGO_URI to a replica set (teacher remap needs
// transactions), e.g. mongodb://localhost:27017/?replicaSet=rs0
const mongoURIEnv = "ATTENDANCE_TEST_MONGO_URI"

func TestMongoContract(t *testing.T) {
	uri := os.Getenv(mongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set", mongoURIEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	mdb := &db.MongoDB{
		Client:   client,
		Database: client.Database("attendance_test_" + uuid.NewString()[:8]),
	}
	t.Cleanup(func() {
		_ = mdb.Database.Drop(context.Background())
		_ = mdb.Close(context.Background())
	})
	require.NoError(t, mdb.EnsureIndexes(ctx))

	repos := New(mdb, 5*time.Second)
	storetest.Run(t, func(*testing.T) *repositories.Repositories { return repos })
}
