package cache

// SchemaVersion is the current cache schema version.
const SchemaVersion = 1

// sqliteSchema creates the cache tables in SQLite.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS parse_cache (
    key TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    bundle_digest TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_parse_cache_created_at ON parse_cache(created_at);
CREATE INDEX IF NOT EXISTS idx_parse_cache_bundle_digest ON parse_cache(bundle_digest);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// postgresSchema creates the cache tables in PostgreSQL.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS parse_cache (
    key TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    bundle_digest TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_parse_cache_created_at ON parse_cache(created_at);
CREATE INDEX IF NOT EXISTS idx_parse_cache_bundle_digest ON parse_cache(bundle_digest);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at BIGINT NOT NULL
);
`

// Statements shared by both SQL backends. They use "?" placeholders;
// the PostgreSQL store rebinds them to "$n".
const (
	insertSchemaVersion = `INSERT INTO schema_version (version, applied_at) VALUES (?, ?) ON CONFLICT (version) DO NOTHING`
	getSchemaVersion    = `SELECT MAX(version) FROM schema_version`

	getEntry = `SELECT id, key, bundle_digest, payload, created_at FROM parse_cache WHERE key = ?`

	putEntry = `INSERT INTO parse_cache (key, id, bundle_digest, payload, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    id = excluded.id,
    bundle_digest = excluded.bundle_digest,
    payload = excluded.payload,
    created_at = excluded.created_at`

	countEntries = `SELECT COUNT(*) FROM parse_cache`

	deleteBefore = `DELETE FROM parse_cache WHERE created_at < ?`

	deleteOldest = `DELETE FROM parse_cache WHERE key IN (
    SELECT key FROM parse_cache ORDER BY created_at ASC, id ASC LIMIT ?
)`
)
