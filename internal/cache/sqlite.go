// Package cache is the persistent coordinate cache for analysis results.
// Entries are keyed by (domain, rounded latitude, rounded longitude) and are
// write-once in spirit: geophysical atlases do not change between calls, so
// there is no TTL and no delete, and a repeated Set simply overwrites.
package cache

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/renewintel/site-assessment/internal/common"
)

// Store is a SQLite-backed coordinate cache.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the cache database at path and applies the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps concurrent analyzer writes from blocking reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Println("cache: warning: could not set WAL mode:", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS cache (
        key TEXT PRIMARY KEY,
        value TEXT,
        timestamp TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Get returns the cached document for (domain, lat, lon), or false on a miss.
// Any storage error is treated as a miss so the caller degrades to recompute.
func (s *Store) Get(domain string, lat, lon float64) (json.RawMessage, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM cache WHERE key = ?`, Key(domain, lat, lon)).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("cache: get error for %s: %v", domain, err)
		}
		return nil, false
	}
	return json.RawMessage(value), true
}

// Set stores the document for (domain, lat, lon), overwriting silently on key
// collision. Failure to cache is not a request failure: errors are logged and
// swallowed.
func (s *Store) Set(domain string, lat, lon float64, doc any) {
	value, err := json.Marshal(doc)
	if err != nil {
		log.Printf("cache: marshal error for %s: %v", domain, err)
		return
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO cache(key, value, timestamp) VALUES(?,?,?)`,
		Key(domain, lat, lon), string(value), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("cache: set error for %s: %v", domain, err)
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key derives the cache key: an md5 digest of the domain tag and the
// coordinates rounded to 4 decimal places (~11 m). Two requests within
// rounding tolerance of the same point map to the same key.
func Key(domain string, lat, lon float64) string {
	input := fmt.Sprintf("%s_%s_%s",
		domain,
		strconv.FormatFloat(common.Round4(lat), 'f', -1, 64),
		strconv.FormatFloat(common.Round4(lon), 'f', -1, 64),
	)
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
