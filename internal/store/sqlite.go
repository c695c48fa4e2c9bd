package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// execTx runs fn inside a transaction. Whatever fn returns, the transaction
// either commits fully or rolls back fully and the connection goes back to
// the pool.
func (r *SQLiteRepo) execTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// --- Users ---

// CreateUser inserts a new user row and fills in its generated id.
// chat_id is unique; inserting a second row for the same chat fails.
func (r *SQLiteRepo) CreateUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	created := u.CreatedAt.UTC()
	if created.IsZero() {
		created = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (chat_id, fio, age, location, photo_id, points, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ChatID, u.FIO, u.Age, u.Location, u.PhotoID, u.Points, created.Unix(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	u.CreatedAt = created
	return nil
}

// GetUserByChatID returns a user by chat identity or ErrNotFound.
func (r *SQLiteRepo) GetUserByChatID(ctx context.Context, chatID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, chat_id, fio, age, location, photo_id, points, created_at
		FROM users
		WHERE chat_id = ?`,
		chatID,
	)

	var (
		u         domain.User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.ChatID, &u.FIO, &u.Age, &u.Location, &u.PhotoID, &u.Points, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// Typed single-column setters for profile editing. One setter per editable
// field keeps column names out of caller-supplied data.

func (r *SQLiteRepo) SetFIO(ctx context.Context, chatID int64, fio string) error {
	return r.updateUserColumn(ctx, chatID, `UPDATE users SET fio = ? WHERE chat_id = ?`, fio)
}

func (r *SQLiteRepo) SetAge(ctx context.Context, chatID int64, age int) error {
	return r.updateUserColumn(ctx, chatID, `UPDATE users SET age = ? WHERE chat_id = ?`, age)
}

func (r *SQLiteRepo) SetLocation(ctx context.Context, chatID int64, location string) error {
	return r.updateUserColumn(ctx, chatID, `UPDATE users SET location = ? WHERE chat_id = ?`, location)
}

func (r *SQLiteRepo) SetPhotoID(ctx context.Context, chatID int64, photoID string) error {
	return r.updateUserColumn(ctx, chatID, `UPDATE users SET photo_id = ? WHERE chat_id = ?`, photoID)
}

// SetPoints overwrites the cached point balance.
func (r *SQLiteRepo) SetPoints(ctx context.Context, chatID int64, points int) error {
	return r.updateUserColumn(ctx, chatID, `UPDATE users SET points = ? WHERE chat_id = ?`, points)
}

func (r *SQLiteRepo) updateUserColumn(ctx context.Context, chatID int64, query string, value any) error {
	res, err := r.db.ExecContext(ctx, query, value, chatID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Reference data ---

// ListCities returns all cities ordered by name.
func (r *SQLiteRepo) ListCities(ctx context.Context) ([]domain.City, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM cities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.City
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// ListCollectionPoints returns the visible collection points of a city
// ordered by address.
func (r *SQLiteRepo) ListCollectionPoints(ctx context.Context, cityID int64) ([]domain.CollectionPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, city_id, address, is_default, COALESCE(user_id, 0), is_visible_to_all
		FROM collection_points
		WHERE city_id = ? AND is_visible_to_all = 1
		ORDER BY address`,
		cityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.CollectionPoint
	for rows.Next() {
		var (
			p          domain.CollectionPoint
			isDefault  int
			visibleAll int
		)
		if err := rows.Scan(&p.ID, &p.CityID, &p.Address, &isDefault, &p.UserID, &visibleAll); err != nil {
			return nil, err
		}
		p.IsDefault = isDefault != 0
		p.IsVisibleToAll = visibleAll != 0
		res = append(res, p)
	}
	return res, rows.Err()
}

// GetCollectionPoint returns one collection point by id or ErrNotFound.
func (r *SQLiteRepo) GetCollectionPoint(ctx context.Context, id int64) (*domain.CollectionPoint, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, city_id, address, is_default, COALESCE(user_id, 0), is_visible_to_all
		FROM collection_points
		WHERE id = ?`,
		id,
	)

	var (
		p          domain.CollectionPoint
		isDefault  int
		visibleAll int
	)
	if err := row.Scan(&p.ID, &p.CityID, &p.Address, &isDefault, &p.UserID, &visibleAll); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.IsDefault = isDefault != 0
	p.IsVisibleToAll = visibleAll != 0
	return &p, nil
}

// GetWasteTypeByName returns a waste type by its exact name or ErrNotFound.
func (r *SQLiteRepo) GetWasteTypeByName(ctx context.Context, name string) (*domain.WasteType, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, points_per_kg FROM waste_types WHERE name = ?`, name)

	var wt domain.WasteType
	if err := row.Scan(&wt.ID, &wt.Name, &wt.PointsPerKg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wt, nil
}

// --- Award ledger ---

// CountAwards returns the number of award rows currently held by the chat.
func (r *SQLiteRepo) CountAwards(ctx context.Context, chatID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM awards WHERE chat_id = ?`, chatID).Scan(&n)
	return n, err
}

// ListAwards returns awards newest-first. limit <= 0 returns all.
func (r *SQLiteRepo) ListAwards(ctx context.Context, chatID int64, limit int) ([]domain.Award, error) {
	query := `
		SELECT id, chat_id, name, description, awarded_at
		FROM awards
		WHERE chat_id = ?
		ORDER BY awarded_at DESC, id DESC`
	args := []any{chatID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Award
	for rows.Next() {
		var (
			a         domain.Award
			awardedAt int64
		)
		if err := rows.Scan(&a.ID, &a.ChatID, &a.Name, &a.Description, &awardedAt); err != nil {
			return nil, err
		}
		a.AwardedAt = time.Unix(awardedAt, 0).UTC()
		res = append(res, a)
	}
	return res, rows.Err()
}

// HasAward reports whether the chat already holds an award with this exact name.
func (r *SQLiteRepo) HasAward(ctx context.Context, chatID int64, name string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM awards WHERE chat_id = ? AND name = ? LIMIT 1`, chatID, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateAward inserts a single award row.
func (r *SQLiteRepo) CreateAward(ctx context.Context, a *domain.Award) error {
	if a == nil {
		return errors.New("nil award")
	}
	awarded := a.AwardedAt.UTC()
	if awarded.IsZero() {
		awarded = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO awards (chat_id, name, description, awarded_at)
		VALUES (?, ?, ?, ?)`,
		a.ChatID, a.Name, a.Description, awarded.Unix(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	a.AwardedAt = awarded
	return nil
}

// RecordUtilization inserts the utilization row, bumps the cached point
// balance by one and mints the per-event award within a single transaction.
// Returns the chat's award count after the grant.
func (r *SQLiteRepo) RecordUtilization(ctx context.Context, chatID int64, ut *domain.Utilization, award *domain.Award) (int, error) {
	if ut == nil || award == nil {
		return 0, errors.New("nil utilization or award")
	}
	now := time.Now().UTC()

	var count int
	err := r.execTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO utilizations (user_id, collection_point_id, waste_type_id, weight, date_utilized, time_utilized, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ut.UserID, ut.CollectionPointID, ut.WasteTypeID, ut.Weight,
			ut.DateUtilized, ut.TimeUtilized, now.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert utilization: %w", err)
		}
		utID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		ut.ID = utID

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET points = points + 1 WHERE chat_id = ?`, chatID); err != nil {
			return fmt.Errorf("increment points: %w", err)
		}

		res, err = tx.ExecContext(ctx, `
			INSERT INTO awards (chat_id, name, description, awarded_at)
			VALUES (?, ?, ?, ?)`,
			chatID, award.Name, award.Description, now.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert award: %w", err)
		}
		awardID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		award.ID = awardID
		award.ChatID = chatID
		award.AwardedAt = now

		return tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM awards WHERE chat_id = ?`, chatID).Scan(&count)
	})
	if err != nil {
		return 0, err
	}
	ut.CreatedAt = now
	return count, nil
}

// SpendAwards deletes the price oldest award rows of the chat and records the
// purchase. The whole operation is one transaction: a conflict or shortage
// leaves the ledger untouched.
func (r *SQLiteRepo) SpendAwards(ctx context.Context, chatID, userID, packID int64, price int) error {
	if price <= 0 {
		return errors.New("non-positive price")
	}

	return r.execTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM user_sticker_packs WHERE user_id = ? AND sticker_pack_id = ?`,
			userID, packID).Scan(&one)
		if err == nil {
			return ErrAlreadyPurchased
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM awards WHERE chat_id = ?`, chatID).Scan(&count); err != nil {
			return err
		}
		if count < price {
			return ErrInsufficientAwards
		}

		// Oldest first: FIFO consumption of the grant history.
		res, err := tx.ExecContext(ctx, `
			DELETE FROM awards
			WHERE id IN (
				SELECT id FROM awards
				WHERE chat_id = ?
				ORDER BY awarded_at ASC, id ASC
				LIMIT ?
			)`,
			chatID, price,
		)
		if err != nil {
			return fmt.Errorf("delete awards: %w", err)
		}
		deleted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if deleted != int64(price) {
			return fmt.Errorf("expected to spend %d awards, deleted %d", price, deleted)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_sticker_packs (user_id, sticker_pack_id, purchased_at)
			VALUES (?, ?, ?)`,
			userID, packID, time.Now().UTC().Unix(),
		); err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		return nil
	})
}

// --- Utilizations ---

// CountUtilizations returns how many utilizations the user has ever recorded.
func (r *SQLiteRepo) CountUtilizations(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM utilizations WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// ListUtilizations returns the chat's utilization history joined with its
// reference data, newest first. limit <= 0 returns all.
func (r *SQLiteRepo) ListUtilizations(ctx context.Context, chatID int64, limit int) ([]domain.UtilizationRecord, error) {
	query := `
		SELECT u.date_utilized, u.time_utilized, c.name, cp.address, wt.name, u.weight
		FROM utilizations u
		JOIN users usr ON u.user_id = usr.id
		JOIN collection_points cp ON u.collection_point_id = cp.id
		JOIN cities c ON cp.city_id = c.id
		JOIN waste_types wt ON u.waste_type_id = wt.id
		WHERE usr.chat_id = ?
		ORDER BY u.date_utilized DESC, u.time_utilized DESC, u.id DESC`
	args := []any{chatID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.UtilizationRecord
	for rows.Next() {
		var rec domain.UtilizationRecord
		if err := rows.Scan(&rec.DateUtilized, &rec.TimeUtilized, &rec.City, &rec.Address, &rec.WasteType, &rec.Weight); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// --- Shop ---

// ListStickerPacks returns the catalog cheapest-first, with the Purchased
// flag resolved for the given user.
func (r *SQLiteRepo) ListStickerPacks(ctx context.Context, userID int64) ([]domain.StickerPack, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sp.id, sp.name, sp.description, sp.price, sp.pack_url,
		       COALESCE(sp.preview_sticker_file_id, ''),
		       CASE WHEN usp.id IS NOT NULL THEN 1 ELSE 0 END
		FROM sticker_packs sp
		LEFT JOIN user_sticker_packs usp
		  ON sp.id = usp.sticker_pack_id AND usp.user_id = ?
		ORDER BY sp.price ASC, sp.id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.StickerPack
	for rows.Next() {
		var (
			p         domain.StickerPack
			purchased int
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.PackURL, &p.PreviewStickerID, &purchased); err != nil {
			return nil, err
		}
		p.Purchased = purchased != 0
		res = append(res, p)
	}
	return res, rows.Err()
}

// GetStickerPack returns one pack by id or ErrNotFound.
func (r *SQLiteRepo) GetStickerPack(ctx context.Context, id int64) (*domain.StickerPack, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, pack_url, COALESCE(preview_sticker_file_id, '')
		FROM sticker_packs
		WHERE id = ?`,
		id,
	)

	var p domain.StickerPack
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.PackURL, &p.PreviewStickerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// HasPurchase reports whether the user already owns the pack.
func (r *SQLiteRepo) HasPurchase(ctx context.Context, userID, packID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_sticker_packs WHERE user_id = ? AND sticker_pack_id = ?`,
		userID, packID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// --- Personal statistics ---

// StatsByCity counts the chat's utilizations grouped by city, busiest first.
func (r *SQLiteRepo) StatsByCity(ctx context.Context, chatID int64) ([]domain.StatRow, error) {
	return r.queryStats(ctx, `
		SELECT c.name, COUNT(*) AS cnt
		FROM utilizations u
		JOIN users usr ON u.user_id = usr.id
		JOIN collection_points cp ON u.collection_point_id = cp.id
		JOIN cities c ON cp.city_id = c.id
		WHERE usr.chat_id = ?
		GROUP BY c.name
		ORDER BY cnt DESC`,
		chatID,
	)
}

// StatsByPoint counts the chat's utilizations grouped by collection point.
func (r *SQLiteRepo) StatsByPoint(ctx context.Context, chatID int64, limit int) ([]domain.StatRow, error) {
	return r.queryStats(ctx, `
		SELECT cp.address, COUNT(*) AS cnt
		FROM utilizations u
		JOIN users usr ON u.user_id = usr.id
		JOIN collection_points cp ON u.collection_point_id = cp.id
		WHERE usr.chat_id = ?
		GROUP BY cp.address
		ORDER BY cnt DESC
		LIMIT ?`,
		chatID, limit,
	)
}

// StatsByMaterial counts the chat's utilizations grouped by waste type.
func (r *SQLiteRepo) StatsByMaterial(ctx context.Context, chatID int64) ([]domain.StatRow, error) {
	return r.queryStats(ctx, `
		SELECT wt.name, COUNT(*) AS cnt
		FROM utilizations u
		JOIN users usr ON u.user_id = usr.id
		JOIN waste_types wt ON u.waste_type_id = wt.id
		WHERE usr.chat_id = ?
		GROUP BY wt.name
		ORDER BY cnt DESC`,
		chatID,
	)
}

func (r *SQLiteRepo) queryStats(ctx context.Context, query string, args ...any) ([]domain.StatRow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.StatRow
	for rows.Next() {
		var row domain.StatRow
		if err := rows.Scan(&row.Label, &row.Count); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}
