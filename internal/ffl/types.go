package ffl

import (
	"context"
	"time"
)

// PlayerData is one normalized player record from an external source.
// Projected is a pointer because a player can be missing a projection for
// the requested week; downstream layers must treat that as an observable
// exclusion, never a silent zero.
type PlayerData struct {
	ESPNID       int       `json:"espn_id"`
	Name         string    `json:"name"`
	Team         string    `json:"team"`
	Position     string    `json:"position"`
	Projected    *float64  `json:"projected,omitempty"`
	YTDPoints    float64   `json:"ytd_points"`
	PercentOwned float64   `json:"percent_owned"`
	InjuryStatus string    `json:"injury_status,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
	Source       string    `json:"source"` // "espn"
}

// RosterEntry is one player on a league team's roster.
type RosterEntry struct {
	PlayerID     int    `json:"player_id"`
	Name         string `json:"name"`
	Position     string `json:"position"`
	InjuryStatus string `json:"injury_status,omitempty"`
}

// Team is one franchise in the league.
type Team struct {
	ID     int           `json:"id"`
	Name   string        `json:"name"`
	Abbrev string        `json:"abbrev"`
	Roster []RosterEntry `json:"roster"`
}

// Matchup is one scheduled head-to-head pairing.
type Matchup struct {
	Period     int `json:"matchup_period"`
	HomeTeamID int `json:"home_team_id"`
	AwayTeamID int `json:"away_team_id"`
}

// League is the league state for a scoring period.
type League struct {
	ID          int       `json:"id"`
	CurrentWeek int       `json:"current_week"`
	Teams       []Team    `json:"teams"`
	Schedule    []Matchup `json:"schedule"`
}

// TeamByID finds a franchise by its league id.
func (l *League) TeamByID(id int) *Team {
	for i := range l.Teams {
		if l.Teams[i].ID == id {
			return &l.Teams[i]
		}
	}
	return nil
}

// Provider is the external fantasy data source.
type Provider interface {
	PlayerPool(ctx context.Context, season, week int) ([]PlayerData, error)
	League(ctx context.Context, season, week int) (*League, error)
}

// CacheProvider interface for cache operations
type CacheProvider interface {
	SetSimple(key string, value interface{}, expiration time.Duration) error
	GetSimple(key string, dest interface{}) error
}
