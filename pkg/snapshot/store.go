package snapshot

import (
	"context"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
)

// Store abstracts where a snapshot lives. File and Redis backends have
// identical semantics; the loader does not care which one it reads.
type Store interface {
	// Read returns the raw snapshot bytes.
	Read() ([]byte, error)
	// Write replaces the stored snapshot bytes.
	Write(data []byte) error
	// Name identifies the store for error messages and logs.
	Name() string
}

// FileStore keeps the snapshot in a file on local disk.
type FileStore struct {
	Path string
}

// NewFileStore creates a file-backed store.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Read returns the file contents.
func (s *FileStore) Read() ([]byte, error) {
	return os.ReadFile(s.Path)
}

// Write atomically replaces the file via a temp-file rename.
func (s *FileStore) Write(data []byte) error {
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

// Name returns the file path.
func (s *FileStore) Name() string {
	return s.Path
}

// RedisStore keeps the snapshot in a Redis string key, the way SONiC-style
// platforms keep warm restart state in the state database.
type RedisStore struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(addr string, db int, key string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
		key: key,
		ctx: context.Background(),
	}
}

// Connect tests the connection.
func (s *RedisStore) Connect() error {
	return s.client.Ping(s.ctx).Err()
}

// Close closes the connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Read returns the snapshot bytes stored under the key.
func (s *RedisStore) Read() ([]byte, error) {
	data, err := s.client.Get(s.ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("key %s does not exist", s.key)
	}
	return data, err
}

// Write replaces the snapshot bytes under the key.
func (s *RedisStore) Write(data []byte) error {
	return s.client.Set(s.ctx, s.key, data, 0).Err()
}

// Name returns the Redis key.
func (s *RedisStore) Name() string {
	return "redis:" + s.key
}
