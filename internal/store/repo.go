package store

import (
	"context"
	"errors"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyPurchased is returned by SpendAwards when the (user, pack)
	// purchase pair already exists.
	ErrAlreadyPurchased = errors.New("sticker pack already purchased")
	// ErrInsufficientAwards is returned by SpendAwards when the user holds
	// fewer awards than the pack price.
	ErrInsufficientAwards = errors.New("not enough awards")
)

// Repo defines storage operations for users, reference data, the award
// ledger and the shop. Multi-statement operations are transactional.
type Repo interface {
	// Users.
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByChatID(ctx context.Context, chatID int64) (*domain.User, error)
	SetFIO(ctx context.Context, chatID int64, fio string) error
	SetAge(ctx context.Context, chatID int64, age int) error
	SetLocation(ctx context.Context, chatID int64, location string) error
	SetPhotoID(ctx context.Context, chatID int64, photoID string) error
	SetPoints(ctx context.Context, chatID int64, points int) error

	// Reference data.
	ListCities(ctx context.Context) ([]domain.City, error)
	ListCollectionPoints(ctx context.Context, cityID int64) ([]domain.CollectionPoint, error)
	GetCollectionPoint(ctx context.Context, id int64) (*domain.CollectionPoint, error)
	GetWasteTypeByName(ctx context.Context, name string) (*domain.WasteType, error)

	// Award ledger.
	CountAwards(ctx context.Context, chatID int64) (int, error)
	ListAwards(ctx context.Context, chatID int64, limit int) ([]domain.Award, error)
	HasAward(ctx context.Context, chatID int64, name string) (bool, error)
	CreateAward(ctx context.Context, a *domain.Award) error

	// RecordUtilization inserts the utilization, increments the user's
	// cached point balance by one and mints the per-event award, all in one
	// transaction. Returns the user's award count after the grant.
	RecordUtilization(ctx context.Context, chatID int64, ut *domain.Utilization, award *domain.Award) (int, error)

	// SpendAwards deletes the price oldest award rows of the chat and
	// inserts the purchase row, all in one transaction.
	SpendAwards(ctx context.Context, chatID, userID, packID int64, price int) error

	// Utilizations.
	CountUtilizations(ctx context.Context, userID int64) (int, error)
	ListUtilizations(ctx context.Context, chatID int64, limit int) ([]domain.UtilizationRecord, error)

	// Shop.
	ListStickerPacks(ctx context.Context, userID int64) ([]domain.StickerPack, error)
	GetStickerPack(ctx context.Context, id int64) (*domain.StickerPack, error)
	HasPurchase(ctx context.Context, userID, packID int64) (bool, error)

	// Personal statistics.
	StatsByCity(ctx context.Context, chatID int64) ([]domain.StatRow, error)
	StatsByPoint(ctx context.Context, chatID int64, limit int) ([]domain.StatRow, error)
	StatsByMaterial(ctx context.Context, chatID int64) ([]domain.StatRow, error)

	Close() error
}
