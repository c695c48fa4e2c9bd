package domain

import "time"

// User is a registered participant. ChatID is the Telegram chat identity and
// is unique; ID is the internal key referenced by utilizations and purchases.
type User struct {
	ID        int64
	ChatID    int64
	FIO       string
	Age       int
	Location  string
	PhotoID   string // Telegram file_id; empty for rows migrated from the legacy table
	Points    int    // cached award count; spending never reads this field
	CreatedAt time.Time
}

// Award is one discrete reward unit, minted either per recorded utilization
// or once per reached milestone. Spent awards are deleted oldest-first.
type Award struct {
	ID          int64
	ChatID      int64
	Name        string
	Description string
	AwardedAt   time.Time
}

// Utilization is a single recycling event. Immutable once recorded.
type Utilization struct {
	ID                int64
	UserID            int64
	CollectionPointID int64
	WasteTypeID       int64
	Weight            float64 // kilograms, > 0
	DateUtilized      string  // YYYY-MM-DD
	TimeUtilized      string  // HH:MM:SS
	CreatedAt         time.Time
}

// UtilizationRecord is a utilization joined with its reference data,
// as shown in the history view and the xlsx export.
type UtilizationRecord struct {
	DateUtilized string
	TimeUtilized string
	City         string
	Address      string
	WasteType    string
	Weight       float64
}

// City is seeded reference data.
type City struct {
	ID   int64
	Name string
}

// CollectionPoint is a drop-off location within a city.
type CollectionPoint struct {
	ID             int64
	CityID         int64
	Address        string
	IsDefault      bool
	UserID         int64 // 0 unless the point was suggested by a user
	IsVisibleToAll bool
}

// WasteType is seeded reference data. PointsPerKg is stored but the reward
// path grants a flat rate per event.
type WasteType struct {
	ID          int64
	Name        string
	PointsPerKg int
}

// StickerPack is a shop item priced in awards.
type StickerPack struct {
	ID               int64
	Name             string
	Description      string
	Price            int
	PackURL          string
	PreviewStickerID string
	Purchased        bool // filled per requesting user by the catalog query
}

// StatRow is one bucket of the personal statistics aggregation.
type StatRow struct {
	Label string
	Count int
}

// ProfileField enumerates the independently editable profile columns.
// Keeping this closed rules out arbitrary column names reaching SQL.
type ProfileField int

const (
	FieldFIO ProfileField = iota
	FieldAge
	FieldLocation
	FieldPhoto
)

// String returns the callback-payload name of the field.
func (f ProfileField) String() string {
	switch f {
	case FieldFIO:
		return "fio"
	case FieldAge:
		return "age"
	case FieldLocation:
		return "location"
	case FieldPhoto:
		return "photo"
	default:
		return "unknown"
	}
}
