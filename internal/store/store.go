package store

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// HotelAlias is one raw provider spelling attached to a canonical hotel.
type HotelAlias struct {
	ID            uint   `gorm:"primaryKey"`
	HotelID       string `gorm:"uniqueIndex:idx_hotel_alias;size:64"`
	CanonicalName string `gorm:"size:255"`
	Brand         string `gorm:"size:64"`
	Alias         string `gorm:"uniqueIndex:idx_hotel_alias;size:255"`
}

// MealCodeOverride lets operators pin a provider meal code to a canonical
// category without a redeploy.
type MealCodeOverride struct {
	ID       uint   `gorm:"primaryKey"`
	Provider string `gorm:"uniqueIndex:idx_provider_code;size:32"`
	Code     string `gorm:"uniqueIndex:idx_provider_code;size:64"`
	Category string `gorm:"size:32"`
}

// MappingStore persists the canonical hotel alias index in sqlite. All
// methods are safe for concurrent use; gorm serializes sqlite writes.
type MappingStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to the sqlite mapping database and migrates the schema.
// Callers treat an error as a signal to run in-memory only.
func Open(path string, log *slog.Logger) (*MappingStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open mapping store: %w", err)
	}
	if err := db.AutoMigrate(&HotelAlias{}, &MealCodeOverride{}); err != nil {
		return nil, fmt.Errorf("migrate mapping store: %w", err)
	}
	return &MappingStore{db: db, logger: log}, nil
}

// SeededHotel is one canonical hotel reassembled from its stored aliases.
type SeededHotel struct {
	ID      string
	Name    string
	Brand   string
	Aliases []string
}

// LoadAliases reads the full alias index for matcher warm-up, grouped by
// canonical hotel in insertion order.
func (s *MappingStore) LoadAliases() ([]SeededHotel, error) {
	var rows []HotelAlias
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load aliases: %w", err)
	}

	byID := make(map[string]*SeededHotel)
	var order []string
	for _, row := range rows {
		h, ok := byID[row.HotelID]
		if !ok {
			h = &SeededHotel{ID: row.HotelID, Name: row.CanonicalName, Brand: row.Brand}
			byID[row.HotelID] = h
			order = append(order, row.HotelID)
		}
		h.Aliases = append(h.Aliases, row.Alias)
	}

	out := make([]SeededHotel, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// PersistAlias appends one alias row. Replays of the same alias are no-ops
// via the unique index.
func (s *MappingStore) PersistAlias(hotelID, canonicalName, brand, alias string) error {
	row := HotelAlias{
		HotelID:       hotelID,
		CanonicalName: canonicalName,
		Brand:         brand,
		Alias:         alias,
	}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("persist alias %q: %w", alias, err)
	}
	return nil
}

// MealOverrides returns the operator meal-code overrides keyed by provider
// then code.
func (s *MappingStore) MealOverrides() (map[string]map[string]string, error) {
	var rows []MealCodeOverride
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load meal overrides: %w", err)
	}
	out := make(map[string]map[string]string)
	for _, row := range rows {
		if out[row.Provider] == nil {
			out[row.Provider] = make(map[string]string)
		}
		out[row.Provider][row.Code] = row.Category
	}
	return out, nil
}

// Close releases the underlying sqlite handle.
func (s *MappingStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
