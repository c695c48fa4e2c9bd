// Package ledger implements the reward policy on top of the store: a flat
// one-point, one-award grant per recorded utilization, one-time milestone
// awards at cumulative thresholds, and FIFO spending of awards in the shop.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
	"github.com/Slastukhin/eco-friendly-bot/internal/store"
)

// EventAwardName is the name of the award minted for every utilization.
const EventAwardName = "♻️ Утилизация"

var (
	// ErrNotRegistered means the chat has no user row.
	ErrNotRegistered = errors.New("user is not registered")
	// ErrPackNotFound means the requested sticker pack does not exist.
	ErrPackNotFound = errors.New("sticker pack not found")
	// ErrAlreadyPurchased means the (user, pack) pair is already on file.
	ErrAlreadyPurchased = store.ErrAlreadyPurchased
	// ErrInsufficientAwards means the user holds fewer awards than the price.
	ErrInsufficientAwards = store.ErrInsufficientAwards
)

// Milestone is a cumulative-total threshold granting a one-time named award.
type Milestone struct {
	Threshold   int
	Name        string
	Description string
}

// milestones is ordered ascending; EvaluateMilestones relies on that.
var milestones = []Milestone{
	{100, "🌱 Эко-новичок", "Записано 100 утилизаций"},
	{500, "🌿 Эко-энтузиаст", "Записано 500 утилизаций"},
	{1000, "🌳 Защитник природы", "Записано 1000 утилизаций"},
	{5000, "🌍 Эко-герой", "Записано 5000 утилизаций"},
	{10000, "⭐ Эко-легенда", "Записано 10000 утилизаций"},
}

// Ledger mediates between the flows and the award/point storage.
type Ledger struct {
	repo store.Repo
}

// New creates a Ledger over the given repository.
func New(repo store.Repo) *Ledger {
	return &Ledger{repo: repo}
}

// RecordUtilization persists one recycling event and its reward: within a
// single storage transaction the utilization row is inserted, the cached
// point balance grows by one and one per-event award is minted. Returns the
// user's award count after the grant.
func (l *Ledger) RecordUtilization(ctx context.Context, user *domain.User, pointID int64, wasteType *domain.WasteType, weight float64) (int, error) {
	if user == nil {
		return 0, ErrNotRegistered
	}
	if wasteType == nil {
		return 0, errors.New("nil waste type")
	}
	if weight <= 0 {
		return 0, domain.ErrBadWeight
	}

	now := time.Now().UTC()
	ut := &domain.Utilization{
		UserID:            user.ID,
		CollectionPointID: pointID,
		WasteTypeID:       wasteType.ID,
		Weight:            weight,
		DateUtilized:      now.Format("2006-01-02"),
		TimeUtilized:      now.Format("15:04:05"),
	}
	award := &domain.Award{
		ChatID:      user.ChatID,
		Name:        EventAwardName,
		Description: fmt.Sprintf("%s, %.2f кг", wasteType.Name, weight),
	}

	count, err := l.repo.RecordUtilization(ctx, user.ChatID, ut, award)
	if err != nil {
		return 0, fmt.Errorf("record utilization: %w", err)
	}
	return count, nil
}

// EvaluateMilestones grants every newly reached milestone award in one pass,
// ascending. The cumulative total is the user's utilization count, so spent
// per-event awards never un-reach a milestone, and an exact-name check keeps
// each milestone at most once per user. Re-running with an unchanged total
// grants nothing. Returns the newly granted awards for one-time notification.
func (l *Ledger) EvaluateMilestones(ctx context.Context, user *domain.User) ([]domain.Award, error) {
	if user == nil {
		return nil, ErrNotRegistered
	}

	total, err := l.repo.CountUtilizations(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count utilizations: %w", err)
	}

	var granted []domain.Award
	for _, m := range milestones {
		if total < m.Threshold {
			break
		}
		has, err := l.repo.HasAward(ctx, user.ChatID, m.Name)
		if err != nil {
			return granted, err
		}
		if has {
			continue
		}
		a := &domain.Award{
			ChatID:      user.ChatID,
			Name:        m.Name,
			Description: m.Description,
		}
		if err := l.repo.CreateAward(ctx, a); err != nil {
			return granted, fmt.Errorf("grant milestone %q: %w", m.Name, err)
		}
		granted = append(granted, *a)
	}
	return granted, nil
}

// Spend buys a sticker pack for the chat: validates the user and pack exist
// and the purchase is new, then transactionally deletes the pack's price in
// oldest awards and records the purchase. Returns the pack and the remaining
// award count.
func (l *Ledger) Spend(ctx context.Context, chatID, packID int64) (*domain.StickerPack, int, error) {
	user, err := l.repo.GetUserByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, 0, ErrNotRegistered
		}
		return nil, 0, err
	}

	pack, err := l.repo.GetStickerPack(ctx, packID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, 0, ErrPackNotFound
		}
		return nil, 0, err
	}

	if err := l.repo.SpendAwards(ctx, chatID, user.ID, pack.ID, pack.Price); err != nil {
		return nil, 0, err
	}

	remaining, err := l.RefreshPoints(ctx, chatID)
	if err != nil {
		// The purchase itself committed; a stale cache heals on next refresh.
		return pack, 0, nil
	}
	return pack, remaining, nil
}

// RefreshPoints recomputes the cached point balance from the award count.
// The cache is a display convenience; spending never consults it.
func (l *Ledger) RefreshPoints(ctx context.Context, chatID int64) (int, error) {
	count, err := l.repo.CountAwards(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if err := l.repo.SetPoints(ctx, chatID, count); err != nil {
		return count, err
	}
	return count, nil
}
