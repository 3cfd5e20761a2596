package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Player is one ESPN fantasy player as last seen in a pool fetch. NameKey is
// the normalized join key used to match players against stored prior-season
// totals, whose source files carry no ESPN ids.
type Player struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ESPNID       int            `gorm:"uniqueIndex;not null" json:"espn_id"`
	Name         string         `gorm:"size:100;not null" json:"name"`
	NameKey      string         `gorm:"size:100;index" json:"name_key"`
	Team         string         `gorm:"size:10" json:"team"`
	Position     string         `gorm:"size:10;index" json:"position"`
	Positions    datatypes.JSON `json:"eligible_positions"`
	InjuryStatus string         `gorm:"size:30" json:"injury_status,omitempty"`
	PercentOwned float64        `json:"percent_owned"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Player) TableName() string {
	return "players"
}

// EligiblePositions decodes the stored positions array.
func (p *Player) EligiblePositions() []string {
	if len(p.Positions) == 0 {
		return nil
	}
	var positions []string
	if err := json.Unmarshal(p.Positions, &positions); err != nil {
		return nil
	}
	return positions
}

// SetEligiblePositions encodes the positions array for storage.
func (p *Player) SetEligiblePositions(positions []string) error {
	data, err := json.Marshal(positions)
	if err != nil {
		return err
	}
	p.Positions = datatypes.JSON(data)
	return nil
}

// SeasonTotal is one player's fantasy total for a finished season, imported
// from CSV or captured from the ESPN year-to-date field. Keyed by NameKey
// because ids are not stable across data sources.
type SeasonTotal struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	NameKey     string    `gorm:"size:100;not null;uniqueIndex:idx_season_total_key" json:"name_key"`
	Season      int       `gorm:"not null;uniqueIndex:idx_season_total_key" json:"season"`
	PlayerName  string    `gorm:"size:100" json:"player_name"`
	TotalPoints float64   `gorm:"not null" json:"total_points"`
	Games       int       `json:"games"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (SeasonTotal) TableName() string {
	return "season_totals"
}

// PerGame is the per-game scoring pace for the season, using the configured
// schedule length when the games column was not supplied.
func (t *SeasonTotal) PerGame(fallbackGames int) float64 {
	games := t.Games
	if games <= 0 {
		games = fallbackGames
	}
	if games <= 0 {
		return 0
	}
	return t.TotalPoints / float64(games)
}
