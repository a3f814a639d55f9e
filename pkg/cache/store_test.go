package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"mercator-hq/mdast/pkg/config"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func entryAt(key string, offset time.Duration) *Entry {
	return &Entry{
		ID:           uuid.NewString(),
		Key:          key,
		BundleDigest: "digest",
		Payload:      []byte(`{"type":"root","children":[]}`),
		CreatedAt:    base.Add(offset),
	}
}

// runStoreSuite exercises the Store contract against one backend.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	t.Run("get missing", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(context.Background(), "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("put and get", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		want := entryAt("k1", 0)
		if err := s.Put(ctx, want); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, err := s.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.ID != want.ID || got.BundleDigest != want.BundleDigest {
			t.Errorf("Get() = %+v, want %+v", got, want)
		}
		if string(got.Payload) != string(want.Payload) {
			t.Errorf("Payload = %s, want %s", got.Payload, want.Payload)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
		}
	})

	t.Run("put replaces", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		first := entryAt("k1", 0)
		second := entryAt("k1", time.Minute)
		second.Payload = []byte(`{"type":"root","children":[{"type":"thematicBreak"}]}`)

		for _, e := range []*Entry{first, second} {
			if err := s.Put(ctx, e); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
		}

		got, err := s.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.ID != second.ID {
			t.Errorf("ID = %s, want %s", got.ID, second.ID)
		}
		if n, _ := s.Count(ctx); n != 1 {
			t.Errorf("Count() = %d, want 1", n)
		}
	})

	t.Run("delete before", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		for i, key := range []string{"a", "b", "c", "d"} {
			if err := s.Put(ctx, entryAt(key, time.Duration(i)*time.Hour)); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
		}

		deleted, err := s.DeleteBefore(ctx, base.Add(2*time.Hour))
		if err != nil {
			t.Fatalf("DeleteBefore() error = %v", err)
		}
		if deleted != 2 {
			t.Errorf("DeleteBefore() = %d, want 2", deleted)
		}
		for key, want := range map[string]bool{"a": false, "b": false, "c": true, "d": true} {
			_, err := s.Get(ctx, key)
			if got := err == nil; got != want {
				t.Errorf("Get(%q) present = %v, want %v", key, got, want)
			}
		}
	})

	t.Run("delete oldest", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		// Inserted out of order to check ordering is by CreatedAt.
		offsets := map[string]time.Duration{"c": 3 * time.Hour, "a": time.Hour, "d": 4 * time.Hour, "b": 2 * time.Hour}
		for key, off := range offsets {
			if err := s.Put(ctx, entryAt(key, off)); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
		}

		deleted, err := s.DeleteOldest(ctx, 3)
		if err != nil {
			t.Fatalf("DeleteOldest() error = %v", err)
		}
		if deleted != 3 {
			t.Errorf("DeleteOldest() = %d, want 3", deleted)
		}
		if _, err := s.Get(ctx, "d"); err != nil {
			t.Errorf("newest entry was deleted: %v", err)
		}
		if n, _ := s.Count(ctx); n != 1 {
			t.Errorf("Count() = %d, want 1", n)
		}

		deleted, err = s.DeleteOldest(ctx, 0)
		if err != nil || deleted != 0 {
			t.Errorf("DeleteOldest(0) = %d, %v; want 0, nil", deleted, err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, entryAt("k", 0)); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, "k")
	got.Payload[0] = 'X'

	again, _ := s.Get(ctx, "k")
	if again.Payload[0] != '{' {
		t.Error("mutating a returned entry changed the stored payload")
	}
}

func openSQLite(t *testing.T, driver string) Store {
	t.Helper()

	cfg := &config.SQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "cache.db"),
		Driver:      driver,
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
	}
	s, err := NewSQLiteStore(context.Background(), cfg, nil)
	if err != nil {
		if driver == DriverCGO && strings.Contains(err.Error(), "cgo") {
			t.Skipf("sqlite3 driver unavailable: %v", err)
		}
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	for _, driver := range []string{DriverModernc, DriverCGO} {
		t.Run(driver, func(t *testing.T) {
			runStoreSuite(t, func(t *testing.T) Store {
				return openSQLite(t, driver)
			})
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	cfg := &config.SQLiteConfig{
		Path:   filepath.Join(t.TempDir(), "cache.db"),
		Driver: DriverModernc,
	}

	s, err := NewSQLiteStore(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := s.Put(ctx, entryAt("k", 0)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if _, err := s.Get(ctx, "k"); err != nil {
		t.Errorf("entry lost after reopen: %v", err)
	}
	if s.Path() != cfg.Path {
		t.Errorf("Path() = %q, want %q", s.Path(), cfg.Path)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("MDAST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MDAST_TEST_POSTGRES_DSN not set")
	}

	runStoreSuite(t, func(t *testing.T) Store {
		ctx := context.Background()
		s, err := NewPostgresStore(ctx, &config.PostgresConfig{DSN: dsn, MaxOpenConns: 2}, nil)
		if err != nil {
			t.Fatalf("NewPostgresStore() error = %v", err)
		}
		if _, err := s.DeleteBefore(ctx, time.Now().Add(100*365*24*time.Hour)); err != nil {
			t.Fatalf("clear table: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestPostgresStore_RequiresDSN(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), &config.PostgresConfig{}, nil)
	if err == nil {
		t.Fatal("expected error for empty DSN")
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Backend != BackendPostgres {
		t.Errorf("error = %v, want postgres StorageError", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("MDAST_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MDAST_TEST_REDIS_ADDR not set")
	}

	runStoreSuite(t, func(t *testing.T) Store {
		cfg := &config.RedisConfig{Addr: addr, Prefix: "mdast-test:" + uuid.NewString() + ":"}
		s, err := NewRedisStore(context.Background(), cfg, 0, nil)
		if err != nil {
			t.Fatalf("NewRedisStore() error = %v", err)
		}
		t.Cleanup(func() {
			s.DeleteOldest(context.Background(), 1<<20)
			s.Close()
		})
		return s
	})
}

func TestKey(t *testing.T) {
	tests := []struct {
		name      string
		a, b      [2]string
		wantEqual bool
	}{
		{"same inputs", [2]string{"d1", "# Hi"}, [2]string{"d1", "# Hi"}, true},
		{"different input", [2]string{"d1", "# Hi"}, [2]string{"d1", "# Ho"}, false},
		{"different digest", [2]string{"d1", "# Hi"}, [2]string{"d2", "# Hi"}, false},
		{"separator prevents shifting", [2]string{"ab", "c"}, [2]string{"a", "bc"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := Key(tt.a[0], tt.a[1])
			kb := Key(tt.b[0], tt.b[1])
			if (ka == kb) != tt.wantEqual {
				t.Errorf("Key equality = %v, want %v", ka == kb, tt.wantEqual)
			}
			if len(ka) != 64 {
				t.Errorf("len(Key) = %d, want 64", len(ka))
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.CacheConfig
		want    string
		wantErr bool
	}{
		{name: "memory", cfg: config.CacheConfig{Backend: "memory"}, want: BackendMemory},
		{name: "empty defaults to memory", cfg: config.CacheConfig{}, want: BackendMemory},
		{
			name: "sqlite",
			cfg: config.CacheConfig{Backend: "sqlite", SQLite: config.SQLiteConfig{
				Path:   filepath.Join(t.TempDir(), "c.db"),
				Driver: DriverModernc,
			}},
			want: BackendSQLite,
		},
		{name: "unknown", cfg: config.CacheConfig{Backend: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, &tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Close()
			if s.Backend() != tt.want {
				t.Errorf("Backend() = %q, want %q", s.Backend(), tt.want)
			}
		})
	}
}

func TestDollarPlaceholders(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "plain",
			query: "SELECT a FROM t WHERE x = ? AND y < ? LIMIT ?",
			want:  "SELECT a FROM t WHERE x = $1 AND y < $2 LIMIT $3",
		},
		{
			name:  "literal kept",
			query: "SELECT a FROM t WHERE x = '?' AND y = ?",
			want:  "SELECT a FROM t WHERE x = '?' AND y = $1",
		},
		{
			name:  "escaped quote",
			query: "UPDATE t SET note = 'it''s ?' WHERE id = ?",
			want:  "UPDATE t SET note = 'it''s ?' WHERE id = $1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dollarPlaceholders(tt.query); got != tt.want {
				t.Errorf("dollarPlaceholders() = %q, want %q", got, tt.want)
			}
		})
	}
}
