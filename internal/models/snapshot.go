package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// PoolSnapshot preserves one raw pool fetch per (season, week) so a fetch can
// be replayed or inspected without hitting the upstream API again.
type PoolSnapshot struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Season      int            `gorm:"not null;index:idx_snapshot_period" json:"season"`
	Week        int            `gorm:"not null;index:idx_snapshot_period" json:"week"`
	PlayerCount int            `json:"player_count"`
	Payload     datatypes.JSON `json:"payload"`
	FetchedAt   time.Time      `gorm:"not null" json:"fetched_at"`
}

// TableName specifies the table name for GORM
func (PoolSnapshot) TableName() string {
	return "pool_snapshots"
}

// LineupRecord is the most recent recommended lineup for a (season, week,
// team) triple. The background refresher diffs new runs against it to decide
// whether the starter set changed; it is not a history of optimization runs.
type LineupRecord struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Season       int            `gorm:"not null;uniqueIndex:idx_lineup_record_key" json:"season"`
	Week         int            `gorm:"not null;uniqueIndex:idx_lineup_record_key" json:"week"`
	TeamID       int            `gorm:"not null;uniqueIndex:idx_lineup_record_key" json:"team_id"`
	Starters     datatypes.JSON `json:"starters"`
	TotalPoints  float64        `json:"total_points"`
	TotalUtility float64        `json:"total_utility"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (LineupRecord) TableName() string {
	return "lineup_records"
}

// RecordedStarter is one starter entry inside LineupRecord.Starters.
type RecordedStarter struct {
	Slot     string  `json:"slot"`
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Points   float64 `json:"points"`
}

// RecordedStarters decodes the stored starter list.
func (r *LineupRecord) RecordedStarters() []RecordedStarter {
	if len(r.Starters) == 0 {
		return nil
	}
	var starters []RecordedStarter
	if err := json.Unmarshal(r.Starters, &starters); err != nil {
		return nil
	}
	return starters
}

// SetRecordedStarters encodes the starter list for storage.
func (r *LineupRecord) SetRecordedStarters(starters []RecordedStarter) error {
	data, err := json.Marshal(starters)
	if err != nil {
		return err
	}
	r.Starters = datatypes.JSON(data)
	return nil
}
