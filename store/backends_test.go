package store_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/enetx/fsmodel"
	"github.com/enetx/fsmodel/internal/testutil"
	"github.com/enetx/fsmodel/store"
)

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		newStore: func(t *testing.T) store.Store { return newTestPostgresStore(t) },
	})
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		newStore: func(t *testing.T) store.Store { return newTestRedisStore(t) },
	})
}

func TestMongoStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{
		newStore: func(t *testing.T) store.Store { return newTestMongoStore(t) },
	})
}

func newTestPostgresStore(t *testing.T) *store.PostgresStore {
	t.Helper()

	dsn := testutil.GetPostgresDSN(t)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	st, err := store.NewPostgresStore(db)
	require.NoError(t, err)

	_, err = db.Exec(`TRUNCATE models`)
	require.NoError(t, err)

	return st
}

func newTestRedisStore(t *testing.T) *store.RedisStore {
	t.Helper()

	addr := testutil.GetRedisAddress(t)
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	// One key space per test.
	prefix := "fsmodel:test:" + t.Name() + ":"
	flush := func() {
		keys, err := client.Keys(ctx, prefix+"*").Result()
		require.NoError(t, err)
		if len(keys) > 0 {
			require.NoError(t, client.Del(ctx, keys...).Err())
		}
	}

	flush()
	t.Cleanup(func() {
		flush()
		_ = client.Close()
	})

	return store.NewRedisStore(client, prefix)
}

func newTestMongoStore(t *testing.T) *store.MongoStore {
	t.Helper()

	uri := testutil.GetMongoURI(t)
	ctx := context.Background()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	require.NoError(t, client.Database("fsmodel_test").Collection("models").Drop(ctx))

	return store.NewMongoStore(client, "fsmodel_test", "models")
}

func TestRedisStore_DefaultPrefix(t *testing.T) {
	addr := testutil.GetRedisAddress(t)
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	st := store.NewRedisStore(client, "")

	m := fsmodel.New("prefixed")
	_, err := st.Save(ctx, m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Delete(ctx, "prefixed") })

	n, err := client.Exists(ctx, "fsmodel:model:prefixed").Result()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	ok, err := client.SIsMember(ctx, "fsmodel:idx:models", "prefixed").Result()
	require.NoError(t, err)
	require.True(t, ok)
}
