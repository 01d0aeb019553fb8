package cache

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	bolt "go.etcd.io/bbolt"
)

// dbFile is the bbolt file name inside the cache directory.
const dbFile = "findings.db"

var bucketFindings = []byte("findings")

// Entry represents a cached per-file analysis result.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	TTL       int       `json:"ttl"`
}

func (e Entry) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CreatedAt) > time.Duration(e.TTL)*time.Second
}

// Cache stores analysis results in a bbolt database keyed by content hash.
// It is safe for concurrent use.
type Cache struct {
	db         *bolt.DB
	dir        string
	ttlSeconds int
	enabled    bool
}

// New opens the cache. If dir is empty, uses the default cache directory. A
// disabled cache opens nothing and every operation is a no-op.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, dbFile), 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFindings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache bucket: %w", err)
	}

	return &Cache{
		db:         db,
		dir:        dir,
		ttlSeconds: ttlSeconds,
		enabled:    true,
	}, nil
}

// Close releases the database. Safe to call on a disabled cache.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Get retrieves a cached value by key. Returns ("", false) on miss. Expired
// entries are removed on read.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled || c.db == nil {
		return "", false
	}
	hashed := []byte(HashKey(key))

	var entry Entry
	var found bool
	_ = c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketFindings).Get(hashed)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if !found {
		return "", false
	}

	if entry.expired(time.Now()) {
		_ = c.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketFindings).Delete(hashed)
		})
		return "", false
	}
	return entry.Value, true
}

// Put stores a value in the cache.
func (c *Cache) Put(key, value string) error {
	if !c.enabled || c.db == nil {
		return nil
	}
	hashed := HashKey(key)
	entry := Entry{
		Key:       hashed,
		Value:     value,
		CreatedAt: time.Now(),
		TTL:       c.ttlSeconds,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFindings).Put([]byte(hashed), data)
	})
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled || c.db == nil {
		return nil
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketFindings); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("clearing cache: %w", err)
		}
		_, err := tx.CreateBucket(bucketFindings)
		return err
	})
}

// Prune deletes expired entries and returns how many were removed.
// Entries that fail to decode are treated as expired.
func (c *Cache) Prune() (int, error) {
	if !c.enabled || c.db == nil {
		return 0, nil
	}
	now := time.Now()
	var removed int
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFindings)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var entry Entry
			if json.Unmarshal(v, &entry) != nil || entry.expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return removed, nil
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled || c.db == nil {
		return stats, nil
	}
	now := time.Now()
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFindings).ForEach(func(_, v []byte) error {
			stats.Entries++
			stats.TotalBytes += int64(len(v))
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			if entry.expired(now) {
				stats.Expired++
			}
			return nil
		})
	})
	if err != nil {
		return stats, fmt.Errorf("reading cache: %w", err)
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "patchguard"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "patchguard"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "patchguard", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "patchguard", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "patchguard"), nil
	}
}
