package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/contre95/bandpass/src/music"
	_ "github.com/mattn/go-sqlite3"
)

// SqliteCache is a SQLite implementation of the music.MetadataCache interface.
// Rows are keyed by file path and are only valid for the modification time they were read at.
type SqliteCache struct {
	db *sql.DB
}

// NewSqliteCache opens (or creates) the cache database at path.
func NewSqliteCache(path string) (*SqliteCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; one connection avoids "database is locked" under parallel scans.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Metadata cache opened", "path", path)
	return &SqliteCache{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS track_metadata (
			path TEXT PRIMARY KEY,
			mod_time INTEGER NOT NULL,
			title TEXT,
			artist TEXT,
			album TEXT,
			artwork BLOB,
			updated_at TEXT
		);
	`)
	return err
}

// GetMetadata returns the cached metadata for path. The second return value is false when
// nothing is cached or the cached row was read from an older version of the file.
func (d *SqliteCache) GetMetadata(ctx context.Context, path string, modTime time.Time) (*music.TrackMetadata, bool, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT mod_time, title, artist, album, artwork
		FROM track_metadata
		WHERE path = ?
	`, path)

	var stored int64
	var title, artist, album sql.NullString
	md := &music.TrackMetadata{}
	err := row.Scan(&stored, &title, &artist, &album, &md.Artwork)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	if stored != modTime.UnixNano() {
		return nil, false, nil
	}
	md.Title = title.String
	md.Artist = artist.String
	md.Album = album.String
	return md, true, nil
}

// PutMetadata stores md for path, replacing any previous row.
func (d *SqliteCache) PutMetadata(ctx context.Context, path string, modTime time.Time, md *music.TrackMetadata) error {
	if md == nil {
		md = &music.TrackMetadata{}
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO track_metadata (path, mod_time, title, artist, album, artwork, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, path, modTime.UnixNano(), md.Title, md.Artist, md.Album, md.Artwork, time.Now().Format(time.RFC3339))
	return err
}

// Prune deletes every row whose path is not in keep and returns how many were removed.
func (d *SqliteCache) Prune(ctx context.Context, keep []string) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS keep_paths (path TEXT PRIMARY KEY)`); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM keep_paths`); err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO keep_paths (path) VALUES (?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, p := range keep {
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			return 0, err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM track_metadata WHERE path NOT IN (SELECT path FROM keep_paths)`)
	if err != nil {
		return 0, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if removed > 0 {
		slog.Info("Pruned metadata cache", "removed", removed)
	}
	return int(removed), nil
}

// Count returns the number of cached rows.
func (d *SqliteCache) Count(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_metadata`).Scan(&n)
	return n, err
}

// Paths lists the cached paths in order.
func (d *SqliteCache) Paths(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT path FROM track_metadata ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Close closes the underlying database.
func (d *SqliteCache) Close() error {
	return d.db.Close()
}

