package store

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enetx/fsmodel"
)

// RedisStore is a Store backed by Redis. It uses the key layout:
//
//	<prefix>model:<name>  => HASH {revision, updated_at, document}
//	<prefix>idx:models    => SET of stored model names
//
// updated_at holds Unix nanoseconds.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore. prefix is optional and defaults to
// "fsmodel:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "fsmodel:"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) keyModel(name string) string { return r.prefix + "model:" + name }

func (r *RedisStore) keyIndex() string { return r.prefix + "idx:models" }

func (r *RedisStore) Save(ctx context.Context, m *fsmodel.Model) (Record, error) {
	name, doc, err := encode(m)
	if err != nil {
		return Record{}, err
	}

	now := r.now().UTC()
	key := r.keyModel(name)

	pipe := r.client.TxPipeline()
	rev := pipe.HIncrBy(ctx, key, "revision", 1)
	pipe.HSet(ctx, key, "updated_at", now.UnixNano(), "document", doc)
	pipe.SAdd(ctx, r.keyIndex(), name)

	if _, err := pipe.Exec(ctx); err != nil {
		return Record{}, err
	}

	return Record{Name: name, Revision: int(rev.Val()), UpdatedAt: now, Document: doc}, nil
}

func (r *RedisStore) Load(ctx context.Context, name string, m *fsmodel.Model) error {
	return load(ctx, r, name, m)
}

func (r *RedisStore) Get(ctx context.Context, name string) (Record, error) {
	fields, err := r.client.HGetAll(ctx, r.keyModel(name)).Result()
	if err != nil {
		return Record{}, err
	}

	if len(fields) == 0 {
		return Record{}, ErrModelNotFound
	}

	rec, err := redisRecord(name, fields["revision"], fields["updated_at"])
	if err != nil {
		return Record{}, err
	}

	rec.Document = []byte(fields["document"])

	return rec, nil
}

func (r *RedisStore) List(ctx context.Context) ([]Record, error) {
	names, err := r.client.SMembers(ctx, r.keyIndex()).Result()
	if err != nil {
		return nil, err
	}

	slices.Sort(names)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HMGet(ctx, r.keyModel(name), "revision", "updated_at")
	}

	if len(names) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	records := make([]Record, 0, len(names))

	for i, cmd := range cmds {
		vals := cmd.Val()
		rev, ok1 := vals[0].(string)
		updated, ok2 := vals[1].(string)
		if !ok1 || !ok2 {
			// Index entry left behind by a concurrent Delete.
			continue
		}

		rec, err := redisRecord(names[i], rev, updated)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (r *RedisStore) Delete(ctx context.Context, name string) error {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.keyModel(name))
	pipe.SRem(ctx, r.keyIndex(), name)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	if del.Val() == 0 {
		return ErrModelNotFound
	}

	return nil
}

func redisRecord(name, revision, updated string) (Record, error) {
	rev, err := strconv.Atoi(revision)
	if err != nil {
		return Record{}, err
	}

	nanos, err := strconv.ParseInt(updated, 10, 64)
	if err != nil {
		return Record{}, err
	}

	return Record{Name: name, Revision: rev, UpdatedAt: time.Unix(0, nanos).UTC()}, nil
}
