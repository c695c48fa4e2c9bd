package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func createTestUser(t *testing.T, repo *SQLiteRepo, chatID int64) *domain.User {
	t.Helper()
	u := &domain.User{
		ChatID:   chatID,
		FIO:      "Иван Иванов",
		Age:      34,
		Location: "Москва",
		PhotoID:  "photo-1",
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

// mintAwards creates n per-event awards with strictly increasing grant times.
func mintAwards(t *testing.T, repo *SQLiteRepo, chatID int64, n int) []domain.Award {
	t.Helper()
	base := time.Now().UTC().Add(-time.Hour)
	awards := make([]domain.Award, 0, n)
	for i := 0; i < n; i++ {
		a := &domain.Award{
			ChatID:      chatID,
			Name:        "♻️ Утилизация",
			Description: "тест",
			AwardedAt:   base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.CreateAward(context.Background(), a))
		awards = append(awards, *a)
	}
	return awards
}

func TestMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	createTestUser(t, repo, 1)
	require.NoError(t, repo.Close())

	// Reopening runs every migration again.
	repo, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	cities, err := repo.ListCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 5)

	var users int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	require.Equal(t, 1, users)
}

func TestLegacyConsolidation(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	// Simulate the earlier narrow schema, which predates photo_id.
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`
		CREATE TABLE newtable (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			fio TEXT NOT NULL,
			age INTEGER NOT NULL,
			location TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO newtable (chat_id, fio, age, location) VALUES (42, 'Анна Петрова', 28, 'Казань')`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	u, err := repo.GetUserByChatID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "Анна Петрова", u.FIO)
	require.Equal(t, 28, u.Age)
	require.Empty(t, u.PhotoID)
	require.NoError(t, repo.Close())

	// Re-running the consolidation must not duplicate the row.
	repo, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	var n int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM users WHERE chat_id = 42`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestCreateUserDuplicateChatID(t *testing.T) {
	repo := newTestRepo(t)
	createTestUser(t, repo, 7)

	err := repo.CreateUser(context.Background(), &domain.User{
		ChatID: 7, FIO: "Другой Пользователь", Age: 50, Location: "Казань",
	})
	require.Error(t, err)
}

func TestTypedProfileSetters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	createTestUser(t, repo, 9)

	require.NoError(t, repo.SetFIO(ctx, 9, "Пётр Сидоров"))
	require.NoError(t, repo.SetAge(ctx, 9, 41))
	require.NoError(t, repo.SetLocation(ctx, 9, "Екатеринбург"))
	require.NoError(t, repo.SetPhotoID(ctx, 9, "photo-2"))

	u, err := repo.GetUserByChatID(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, "Пётр Сидоров", u.FIO)
	require.Equal(t, 41, u.Age)
	require.Equal(t, "Екатеринбург", u.Location)
	require.Equal(t, "photo-2", u.PhotoID)

	require.ErrorIs(t, repo.SetAge(ctx, 404, 30), ErrNotFound)
}

// utilizationFixture resolves seeded reference data for utilization tests.
func utilizationFixture(t *testing.T, repo *SQLiteRepo) (pointID int64, wt *domain.WasteType) {
	t.Helper()
	ctx := context.Background()
	cities, err := repo.ListCities(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cities)

	var points []domain.CollectionPoint
	for _, c := range cities {
		points, err = repo.ListCollectionPoints(ctx, c.ID)
		require.NoError(t, err)
		if len(points) > 0 {
			break
		}
	}
	require.NotEmpty(t, points)

	wt, err = repo.GetWasteTypeByName(ctx, "Бумага")
	require.NoError(t, err)
	return points[0].ID, wt
}

func TestRecordUtilization(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := createTestUser(t, repo, 100)
	pointID, wt := utilizationFixture(t, repo)

	ut := &domain.Utilization{
		UserID:            u.ID,
		CollectionPointID: pointID,
		WasteTypeID:       wt.ID,
		Weight:            2.5,
		DateUtilized:      "2025-03-01",
		TimeUtilized:      "12:30:00",
	}
	award := &domain.Award{Name: "♻️ Утилизация", Description: "Бумага, 2.50 кг"}

	count, err := repo.RecordUtilization(ctx, u.ChatID, ut, award)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	got, err := repo.GetUserByChatID(ctx, u.ChatID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Points)

	utCount, err := repo.CountUtilizations(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, utCount)
}

func TestRecordUtilizationRollsBackOnAwardFailure(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := createTestUser(t, repo, 101)
	pointID, wt := utilizationFixture(t, repo)

	// Force the award insert (the last write of the transaction) to fail.
	_, err := repo.db.Exec(`DROP TABLE awards`)
	require.NoError(t, err)

	ut := &domain.Utilization{
		UserID:            u.ID,
		CollectionPointID: pointID,
		WasteTypeID:       wt.ID,
		Weight:            1.0,
		DateUtilized:      "2025-03-01",
		TimeUtilized:      "12:30:00",
	}
	_, err = repo.RecordUtilization(ctx, u.ChatID, ut, &domain.Award{Name: "♻️ Утилизация"})
	require.Error(t, err)

	// Neither the utilization nor the point increment may survive.
	utCount, err := repo.CountUtilizations(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 0, utCount)

	got, err := repo.GetUserByChatID(ctx, u.ChatID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Points)
}

func TestSpendAwardsFIFO(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := createTestUser(t, repo, 102)
	minted := mintAwards(t, repo, u.ChatID, 5)

	require.NoError(t, repo.SpendAwards(ctx, u.ChatID, u.ID, 1, 3))

	left, err := repo.ListAwards(ctx, u.ChatID, 0)
	require.NoError(t, err)
	require.Len(t, left, 2)
	// The two newest grants survive; ListAwards returns newest-first.
	require.Equal(t, minted[4].ID, left[0].ID)
	require.Equal(t, minted[3].ID, left[1].ID)

	owned, err := repo.HasPurchase(ctx, u.ID, 1)
	require.NoError(t, err)
	require.True(t, owned)
}

func TestSpendAwardsInsufficient(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := createTestUser(t, repo, 103)
	mintAwards(t, repo, u.ChatID, 2)

	err := repo.SpendAwards(ctx, u.ChatID, u.ID, 1, 3)
	require.ErrorIs(t, err, ErrInsufficientAwards)

	count, err := repo.CountAwards(ctx, u.ChatID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	owned, err := repo.HasPurchase(ctx, u.ID, 1)
	require.NoError(t, err)
	require.False(t, owned)
}

func TestSpendAwardsDoublePurchase(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	u := createTestUser(t, repo, 104)
	mintAwards(t, repo, u.ChatID, 4)

	require.NoError(t, repo.SpendAwards(ctx, u.ChatID, u.ID, 1, 2))

	err := repo.SpendAwards(ctx, u.ChatID, u.ID, 1, 2)
	require.ErrorIs(t, err, ErrAlreadyPurchased)

	// The conflicting attempt must not consume further awards.
	count, err := repo.CountAwards(ctx, u.ChatID)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
