package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations executes SQL files in alphabetical order within the migrations
// folder, each in a single transaction, then consolidates the legacy user
// table if one is present. Safe to run against an already-migrated database.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	// ensure deterministic order: 001_..., 002_..., etc.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		sqlBytes, err := fs.ReadFile(migrationsFS, "migrations/"+e.Name())
		if err != nil {
			return err
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return consolidateLegacyUsers(ctx, db)
}

// consolidateLegacyUsers copies rows from the pre-split "newtable" user table
// into users. Rows whose chat_id already exists are skipped, so re-running is
// a no-op. Early deployments of the legacy table had no photo_id column.
func consolidateLegacyUsers(ctx context.Context, db *sql.DB) error {
	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'newtable'`,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	hasPhoto, err := legacyHasPhotoColumn(ctx, db)
	if err != nil {
		return err
	}

	photoExpr := "''"
	if hasPhoto {
		photoExpr = "COALESCE(n.photo_id, '')"
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (chat_id, fio, age, location, photo_id, points, created_at)
		SELECT n.chat_id, n.fio, n.age, n.location, `+photoExpr+`, 0,
		       COALESCE(CAST(strftime('%s', n.created_at) AS INTEGER), CAST(strftime('%s', 'now') AS INTEGER))
		FROM newtable n
		WHERE NOT EXISTS (SELECT 1 FROM users u WHERE u.chat_id = n.chat_id)`)
	return err
}

func legacyHasPhotoColumn(ctx context.Context, db *sql.DB) (bool, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(newtable)`)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == "photo_id" {
			return true, nil
		}
	}
	return false, rows.Err()
}
