package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/arvednova/qtables/core/errs"
	"github.com/arvednova/qtables/core/schema"
)

// RedisCache is the out-of-process cache, grounded on the teacher's
// RedisCacher and extended to the full contract: transactional Set,
// SADD/SREM/SMEMBERS for the reverse index's native set type, and SCAN for
// Clear. Key layout (spec §4.5): q:<sql-hash>, t:<table>, schema.
type RedisCache struct {
	client   *goredis.Client
	ttl      time.Duration
	eternal  bool
	disabled bool
}

func NewRedisCache(client *goredis.Client, ttl time.Duration, eternal bool) *RedisCache {
	return &RedisCache{
		client:   client,
		ttl:      ttl,
		eternal:  eternal,
		disabled: ttl <= 0 && !eternal,
	}
}

func (r *RedisCache) Enabled() bool { return !r.disabled }

type redisEntry struct {
	Rows      []Row    `json:"rows"`
	MapFields []string `json:"map_fields"`
	Tables    []string `json:"tables"`
}

func sqlHash(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return hex.EncodeToString(sum[:])
}

func qKey(hash string) string   { return "q:" + hash }
func tKey(table string) string  { return "t:" + table }

const schemaKey = "schema"

func (r *RedisCache) Get(ctx context.Context, sql string) ([]Row, []string, bool, error) {
	if r.disabled {
		return nil, nil, false, nil
	}
	raw, err := r.client.Get(ctx, qKey(sqlHash(sql))).Bytes()
	if err == goredis.Nil {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, nil, false, err
	}
	return e.Rows, e.MapFields, true, nil
}

func (r *RedisCache) Set(ctx context.Context, sql string, rows []Row, mapFields []string, tables []string) error {
	if r.disabled {
		return nil
	}
	hash := sqlHash(sql)
	payload, err := json.Marshal(redisEntry{Rows: rows, MapFields: mapFields, Tables: tables})
	if err != nil {
		return err
	}
	ttl := r.ttl
	if r.eternal {
		ttl = 0
	}
	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, qKey(hash), payload, ttl)
		for _, t := range tables {
			pipe.SAdd(ctx, tKey(t), hash)
		}
		return nil
	})
	return err
}

func (r *RedisCache) Delete(ctx context.Context, sql string) error {
	return r.client.Del(ctx, qKey(sqlHash(sql))).Err()
}

// DeleteByTable scans t:<table> for its member hashes, deletes each
// referenced entry along with its back-references from any other table's
// set, then clears t:<table> itself (spec §4.5).
func (r *RedisCache) DeleteByTable(ctx context.Context, table string) error {
	hashes, err := r.client.SMembers(ctx, tKey(table)).Result()
	if err != nil {
		return err
	}
	for _, hash := range hashes {
		raw, err := r.client.Get(ctx, qKey(hash)).Bytes()
		if err == nil {
			var e redisEntry
			if jsonErr := json.Unmarshal(raw, &e); jsonErr == nil {
				for _, t := range e.Tables {
					if t == table {
						continue
					}
					r.client.SRem(ctx, tKey(t), hash)
				}
			}
		}
		r.client.Del(ctx, qKey(hash))
	}
	return r.client.Del(ctx, tKey(table)).Err()
}

// Clear deletes every key beginning with q:, t:, or schema.
func (r *RedisCache) Clear(ctx context.Context) error {
	for _, pattern := range []string{"q:*", "t:*"} {
		iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	return r.client.Del(ctx, schemaKey).Err()
}

func (r *RedisCache) GetSchemaStruct(ctx context.Context) (schema.Struct, bool, error) {
	raw, err := r.client.Get(ctx, schemaKey).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var s schema.Struct
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (r *RedisCache) SetSchemaStruct(ctx context.Context, s schema.Struct) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, schemaKey, payload, 0).Err()
}

func (r *RedisCache) Mutate(ctx context.Context, sql string, fn func(rows []Row, mapFields []string) ([]Row, error)) error {
	if r.disabled {
		return errs.CacheDisabledErr()
	}
	hash := sqlHash(sql)
	raw, err := r.client.Get(ctx, qKey(hash)).Bytes()
	if err == goredis.Nil {
		return fmt.Errorf("no cache entry for key")
	}
	if err != nil {
		return err
	}
	var e redisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return err
	}
	newRows, err := fn(e.Rows, e.MapFields)
	if err != nil {
		return err
	}
	e.Rows = newRows
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, qKey(hash), payload, goredis.KeepTTL).Err()
}
