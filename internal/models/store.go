package models

import (
	"errors"
	"fmt"

	"github.com/dpfaff/lineup-edge/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates the schema for every model in this package.
func Migrate(db *database.DB) error {
	return db.AutoMigrate(
		&Player{},
		&SeasonTotal{},
		&PoolSnapshot{},
		&LineupRecord{},
	)
}

// UpsertPlayers inserts or refreshes players keyed by their ESPN id.
func UpsertPlayers(db *database.DB, players []Player) error {
	if len(players) == 0 {
		return nil
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "espn_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "name_key", "team", "position", "positions",
			"injury_status", "percent_owned", "updated_at",
		}),
	}).CreateInBatches(players, 200).Error
	if err != nil {
		return fmt.Errorf("failed to upsert players: %w", err)
	}
	return nil
}

// SeasonTotalsByKey loads one season's totals indexed by normalized name key.
func SeasonTotalsByKey(db *database.DB, season int) (map[string]SeasonTotal, error) {
	var totals []SeasonTotal
	if err := db.Where("season = ?", season).Find(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to load season totals: %w", err)
	}
	byKey := make(map[string]SeasonTotal, len(totals))
	for _, t := range totals {
		byKey[t.NameKey] = t
	}
	return byKey, nil
}

// HasSeasonTotals reports whether any totals are stored for a season.
func HasSeasonTotals(db *database.DB, season int) (bool, error) {
	var count int64
	if err := db.Model(&SeasonTotal{}).Where("season = ?", season).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count season totals: %w", err)
	}
	return count > 0, nil
}

// ReplaceSeasonTotals swaps out all stored totals for one season in a single
// transaction, so a re-import never leaves a partial mix of old and new rows.
func ReplaceSeasonTotals(db *database.DB, season int, totals []SeasonTotal) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("season = ?", season).Delete(&SeasonTotal{}).Error; err != nil {
			return fmt.Errorf("failed to clear season %d totals: %w", season, err)
		}
		if len(totals) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(totals, 200).Error; err != nil {
			return fmt.Errorf("failed to insert season %d totals: %w", season, err)
		}
		return nil
	})
}

// SavePoolSnapshot stores one raw pool fetch.
func SavePoolSnapshot(db *database.DB, snapshot *PoolSnapshot) error {
	if err := db.Create(snapshot).Error; err != nil {
		return fmt.Errorf("failed to save pool snapshot: %w", err)
	}
	return nil
}

// LatestPoolSnapshot returns the most recent snapshot for a scoring period,
// or nil when none has been captured yet.
func LatestPoolSnapshot(db *database.DB, season, week int) (*PoolSnapshot, error) {
	var snapshot PoolSnapshot
	err := db.Where("season = ? AND week = ?", season, week).
		Order("fetched_at DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pool snapshot: %w", err)
	}
	return &snapshot, nil
}

// SaveLineupRecord inserts or replaces the recommended lineup for a
// (season, week, team) triple.
func SaveLineupRecord(db *database.DB, record *LineupRecord) error {
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "season"}, {Name: "week"}, {Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"starters", "total_points", "total_utility", "updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to save lineup record: %w", err)
	}
	return nil
}

// LineupRecordFor returns the stored lineup for a (season, week, team)
// triple, or nil when no run has been recorded.
func LineupRecordFor(db *database.DB, season, week, teamID int) (*LineupRecord, error) {
	var record LineupRecord
	err := db.Where("season = ? AND week = ? AND team_id = ?", season, week, teamID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lineup record: %w", err)
	}
	return &record, nil
}
