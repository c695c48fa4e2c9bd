package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
	"github.com/Slastukhin/eco-friendly-bot/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, store.Repo) {
	t.Helper()
	repo, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return New(repo), repo
}

func registerUser(t *testing.T, repo store.Repo, chatID int64) *domain.User {
	t.Helper()
	u := &domain.User{ChatID: chatID, FIO: "Иван Иванов", Age: 34, Location: "Москва"}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

// eventFixture resolves a seeded collection point and waste type.
func eventFixture(t *testing.T, repo store.Repo) (int64, *domain.WasteType) {
	t.Helper()
	ctx := context.Background()
	cities, err := repo.ListCities(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cities)
	points, err := repo.ListCollectionPoints(ctx, cities[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, points)
	wt, err := repo.GetWasteTypeByName(ctx, "Бумага")
	require.NoError(t, err)
	return points[0].ID, wt
}

func recordN(t *testing.T, l *Ledger, u *domain.User, pointID int64, wt *domain.WasteType, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := l.RecordUtilization(context.Background(), u, pointID, wt, 1.0)
		require.NoError(t, err)
	}
}

func TestRecordUtilizationGrantsOnePointAndOneAward(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestLedger(t)
	u := registerUser(t, repo, 10)
	pointID, wt := eventFixture(t, repo)

	count, err := l.RecordUtilization(ctx, u, pointID, wt, 2.5)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	got, err := repo.GetUserByChatID(ctx, u.ChatID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Points)

	awards, err := repo.ListAwards(ctx, u.ChatID, 0)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	require.Equal(t, EventAwardName, awards[0].Name)
	require.Equal(t, "Бумага, 2.50 кг", awards[0].Description)
}

func TestRecordUtilizationRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestLedger(t)
	u := registerUser(t, repo, 11)
	pointID, wt := eventFixture(t, repo)

	_, err := l.RecordUtilization(ctx, nil, pointID, wt, 1.0)
	require.ErrorIs(t, err, ErrNotRegistered)

	_, err = l.RecordUtilization(ctx, u, pointID, wt, 0)
	require.ErrorIs(t, err, domain.ErrBadWeight)
}

func TestMilestoneGrantedOnceAtHundred(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestLedger(t)
	u := registerUser(t, repo, 12)
	pointID, wt := eventFixture(t, repo)

	recordN(t, l, u, pointID, wt, 99)
	granted, err := l.EvaluateMilestones(ctx, u)
	require.NoError(t, err)
	require.Empty(t, granted)

	recordN(t, l, u, pointID, wt, 1)
	granted, err = l.EvaluateMilestones(ctx, u)
	require.NoError(t, err)
	require.Len(t, granted, 1)
	require.Equal(t, "🌱 Эко-новичок", granted[0].Name)

	// Re-evaluating the same total grants nothing.
	granted, err = l.EvaluateMilestones(ctx, u)
	require.NoError(t, err)
	require.Empty(t, granted)
}

func TestMilestonesMultiGrantSinglePass(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestLedger(t)
	u := registerUser(t, repo, 13)
	pointID, wt := eventFixture(t, repo)

	// A user who crossed two thresholds without an evaluation in between
	// receives both awards in one pass, ascending.
	recordN(t, l, u, pointID, wt, 500)
	granted, err := l.EvaluateMilestones(ctx, u)
	require.NoError(t, err)
	require.Len(t, granted, 2)
	require.Equal(t, "🌱 Эко-новичок", granted[0].Name)
	require.Equal(t, "🌿 Эко-энтузиаст", granted[1].Name)
}

func TestMilestoneSurvivesSpending(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestLedger(t)
	u := registerUser(t, repo, 14)
	pointID, wt := eventFixture(t, repo)

	recordN(t, l, u, pointID, wt, 100)
	granted, err := l.EvaluateMilestones(ctx, u)
	require.NoError(t, err)
	require.Len(t, granted, 1)

	// Spending per-event awards cannot re-trigger the milestone: the
	// cumulative total counts utilizations, not surviving award rows.
	packs, err := repo.ListStickerPacks(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, packs)
	_, _, err = l.Spend(ctx, u.ChatID, packs[0].ID)
	require.NoError(t, err)

	granted, err = l.EvaluateMilestones(ctx, u)
	require.NoError(t, err)
	require.Empty(t, granted)
}

func TestSpend(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestLedger(t)
	u := registerUser(t, repo, 15)
	pointID, wt := eventFixture(t, repo)
	recordN(t, l, u, pointID, wt, 5)

	packs, err := repo.ListStickerPacks(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, packs)

	var pack *domain.StickerPack
	for i := range packs {
		if packs[i].Price == 3 {
			pack = &packs[i]
		}
	}
	require.NotNil(t, pack)

	bought, remaining, err := l.Spend(ctx, u.ChatID, pack.ID)
	require.NoError(t, err)
	require.Equal(t, pack.ID, bought.ID)
	require.Equal(t, 2, remaining)

	// The cached point balance follows the award count after a purchase.
	got, err := repo.GetUserByChatID(ctx, u.ChatID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Points)

	_, _, err = l.Spend(ctx, u.ChatID, pack.ID)
	require.ErrorIs(t, err, ErrAlreadyPurchased)
}

func TestSpendInsufficientConsumesNothing(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestLedger(t)
	u := registerUser(t, repo, 16)
	pointID, wt := eventFixture(t, repo)
	recordN(t, l, u, pointID, wt, 3)

	packs, err := repo.ListStickerPacks(ctx, u.ID)
	require.NoError(t, err)

	var pack *domain.StickerPack
	for i := range packs {
		if packs[i].Price == 5 {
			pack = &packs[i]
		}
	}
	require.NotNil(t, pack)

	_, _, err = l.Spend(ctx, u.ChatID, pack.ID)
	require.ErrorIs(t, err, ErrInsufficientAwards)

	count, err := repo.CountAwards(ctx, u.ChatID)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestSpendErrors(t *testing.T) {
	ctx := context.Background()
	l, repo := newTestLedger(t)

	_, _, err := l.Spend(ctx, 404, 1)
	require.ErrorIs(t, err, ErrNotRegistered)

	u := registerUser(t, repo, 17)
	_, _, err = l.Spend(ctx, u.ChatID, 9999)
	require.ErrorIs(t, err, ErrPackNotFound)
}
