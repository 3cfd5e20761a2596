package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/dpfaff/lineup-edge/internal/models"
	"github.com/dpfaff/lineup-edge/internal/ws"
	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/database"
)

// refreshTimeout bounds one full refresh cycle, ESPN fetches included.
const refreshTimeout = 2 * time.Minute

// Broadcaster pushes events to connected clients. Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastEvent(eventType string, week int, payload interface{}) error
}

// RefresherService keeps the current week warm: on a cron schedule it
// refetches the pool, rebuilds the recommended lineup, and tells the outside
// world when the starter set moved.
type RefresherService struct {
	db          *database.DB
	cache       *CacheService
	projections *ProjectionService
	matchup     *MatchupService
	roster      *RosterService
	alerts      *AlertService
	hub         Broadcaster
	logger      *logrus.Logger
	config      *config.Config
	cron        *cron.Cron

	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
	lastError string
}

// NewRefresherService creates a new refresher service.
func NewRefresherService(
	db *database.DB,
	cache *CacheService,
	projections *ProjectionService,
	matchup *MatchupService,
	roster *RosterService,
	alerts *AlertService,
	hub Broadcaster,
	logger *logrus.Logger,
	cfg *config.Config,
) *RefresherService {
	return &RefresherService{
		db:          db,
		cache:       cache,
		projections: projections,
		matchup:     matchup,
		roster:      roster,
		alerts:      alerts,
		hub:         hub,
		logger:      logger,
		config:      cfg,
		cron:        cron.New(),
	}
}

// Start schedules periodic refreshes and fires one immediately to warm the
// caches. Safe to call once; a second call is an error.
func (s *RefresherService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("refresher is already running")
	}

	if _, err := s.cron.AddFunc(s.config.RefreshSchedule, s.runScheduled); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	go s.runScheduled()

	s.logger.WithField("schedule", s.config.RefreshSchedule).Info("Refresher started")
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (s *RefresherService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Refresher stopped")
}

// Status reports scheduler state for the health and admin surfaces.
func (s *RefresherService) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"is_running": s.isRunning,
		"schedule":   s.config.RefreshSchedule,
	}
	if !s.lastRun.IsZero() {
		status["last_run"] = s.lastRun.UTC().Format(time.RFC3339)
	}
	if s.lastError != "" {
		status["last_error"] = s.lastError
	}
	if entries := s.cron.Entries(); len(entries) > 0 {
		status["next_run"] = entries[0].Next.UTC().Format(time.RFC3339)
	}
	return status
}

func (s *RefresherService) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	week, err := s.roster.CurrentWeek(ctx)
	if err != nil {
		s.recordRun(fmt.Errorf("failed to resolve current week: %w", err))
		return
	}

	_, err = s.RefreshNow(ctx, week)
	s.recordRun(err)
}

func (s *RefresherService) recordRun(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRun = time.Now()
	if err != nil {
		s.lastError = err.Error()
		s.logger.Errorf("Scheduled refresh failed: %v", err)
		return
	}
	s.lastError = ""
}

// RefreshResult summarizes one refresh cycle.
type RefreshResult struct {
	Week        int            `json:"week"`
	PlayerCount int            `json:"player_count"`
	Changes     []LineupChange `json:"changes,omitempty"`
	Lineup      *LineupResult  `json:"lineup,omitempty"`
	RefreshedAt time.Time      `json:"refreshed_at"`
}

// RefreshNow forces a full refresh for one week: drop caches, refetch the
// pool, snapshot it, rebuild the recommended lineup, and diff its starters
// against the previous run. Starter changes go out over the hub and, when
// alerts are configured, by SMS. The first run for a week only records the
// baseline.
func (s *RefresherService) RefreshNow(ctx context.Context, week int) (*RefreshResult, error) {
	if err := s.cache.InvalidatePrefix(ctx, "ffl:"); err != nil {
		s.logger.Warnf("Cache invalidation failed: %v", err)
	}

	pool, err := s.projections.BuildPool(ctx, week)
	if err != nil {
		return nil, err
	}

	s.savePoolSnapshot(pool)

	result := &RefreshResult{
		Week:        week,
		PlayerCount: len(pool.Players),
		RefreshedAt: time.Now().UTC(),
	}

	s.broadcast(ws.EventPoolRefreshed, week, map[string]interface{}{
		"player_count": result.PlayerCount,
		"fetched_at":   pool.FetchedAt,
	})

	// Without a configured league there is no lineup to maintain.
	if s.config.RequireLeague() != nil {
		return result, nil
	}

	lineup, err := s.matchup.OptimizeWeek(ctx, OptimizeOptions{Week: week, RosterOnly: true})
	if err != nil {
		return nil, err
	}
	result.Lineup = lineup

	previous, err := models.LineupRecordFor(s.db, lineup.Season, week, s.config.TeamID)
	if err != nil {
		s.logger.Errorf("Failed to load previous lineup: %v", err)
	}

	if err := s.saveLineupRecord(lineup); err != nil {
		s.logger.Errorf("Failed to save lineup record: %v", err)
	}

	if previous == nil {
		s.logger.WithFields(logrus.Fields{
			"component": "refresher",
			"week":      week,
		}).Info("Recorded baseline lineup")
		return result, nil
	}

	result.Changes = diffStarters(previous.RecordedStarters(), lineup.Lineup.Starters)
	if len(result.Changes) == 0 {
		return result, nil
	}

	s.logger.WithFields(logrus.Fields{
		"component": "refresher",
		"week":      week,
		"changes":   len(result.Changes),
	}).Info("Starter set changed")

	s.broadcast(ws.EventLineupUpdate, week, map[string]interface{}{
		"changes":      result.Changes,
		"total_points": lineup.Lineup.TotalPoints,
		"run_id":       lineup.RunID,
	})

	if s.alerts != nil && s.alerts.Configured() {
		if err := s.alerts.SendLineupAlert(week, result.Changes, lineup.Lineup.TotalPoints); err != nil {
			s.logger.Warnf("Lineup alert not sent: %v", err)
		}
	}

	return result, nil
}

func (s *RefresherService) savePoolSnapshot(pool *PoolResult) {
	payload, err := json.Marshal(pool)
	if err != nil {
		s.logger.Errorf("Failed to encode pool snapshot: %v", err)
		return
	}
	snapshot := &models.PoolSnapshot{
		Season:      pool.Season,
		Week:        pool.Week,
		PlayerCount: len(pool.Players),
		Payload:     datatypes.JSON(payload),
		FetchedAt:   pool.FetchedAt,
	}
	if err := models.SavePoolSnapshot(s.db, snapshot); err != nil {
		s.logger.Errorf("Failed to save pool snapshot: %v", err)
	}
}

func (s *RefresherService) saveLineupRecord(lineup *LineupResult) error {
	starters := make([]models.RecordedStarter, 0, len(lineup.Lineup.Starters))
	for _, starter := range lineup.Lineup.Starters {
		starters = append(starters, models.RecordedStarter{
			Slot:     starter.Slot,
			PlayerID: starter.PlayerID,
			Name:     starter.Name,
			Points:   starter.Points,
		})
	}

	record := &models.LineupRecord{
		Season:       lineup.Season,
		Week:         lineup.Week,
		TeamID:       lineup.Lineup.TeamID,
		TotalPoints:  lineup.Lineup.TotalPoints,
		TotalUtility: lineup.Lineup.TotalUtility,
	}
	if err := record.SetRecordedStarters(starters); err != nil {
		return err
	}
	return models.SaveLineupRecord(s.db, record)
}

func (s *RefresherService) broadcast(eventType string, week int, payload interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastEvent(eventType, week, payload); err != nil {
		s.logger.Warnf("Broadcast %s failed: %v", eventType, err)
	}
}

// diffStarters compares starter sets slot group by slot group. Reordering
// inside a multi-instance slot is not a change; players entering or leaving
// a group are.
func diffStarters(previous []models.RecordedStarter, current []StarterView) []LineupChange {
	var prevOrder []string
	prevGroups := make(map[string][]models.RecordedStarter)
	for _, starter := range previous {
		if _, ok := prevGroups[starter.Slot]; !ok {
			prevOrder = append(prevOrder, starter.Slot)
		}
		prevGroups[starter.Slot] = append(prevGroups[starter.Slot], starter)
	}

	var slotOrder []string
	curGroups := make(map[string][]StarterView)
	for _, starter := range current {
		if _, ok := curGroups[starter.Slot]; !ok {
			slotOrder = append(slotOrder, starter.Slot)
		}
		curGroups[starter.Slot] = append(curGroups[starter.Slot], starter)
	}

	var changes []LineupChange
	for _, slot := range slotOrder {
		inPrev := make(map[string]bool, len(prevGroups[slot]))
		for _, starter := range prevGroups[slot] {
			inPrev[starter.PlayerID] = true
		}
		inCur := make(map[string]bool, len(curGroups[slot]))
		for _, starter := range curGroups[slot] {
			inCur[starter.PlayerID] = true
		}

		var removed []models.RecordedStarter
		for _, starter := range prevGroups[slot] {
			if !inCur[starter.PlayerID] {
				removed = append(removed, starter)
			}
		}

		for _, starter := range curGroups[slot] {
			if inPrev[starter.PlayerID] {
				continue
			}
			change := LineupChange{Slot: slot, Current: starter.Name}
			if len(removed) > 0 {
				change.Previous = removed[0].Name
				removed = removed[1:]
			}
			changes = append(changes, change)
		}

		// Players dropped without a replacement: the slot went unfilled.
		for _, starter := range removed {
			changes = append(changes, LineupChange{Slot: slot, Previous: starter.Name})
		}
	}

	// Slot groups that emptied out entirely still report their leavers.
	for _, slot := range prevOrder {
		if _, ok := curGroups[slot]; ok {
			continue
		}
		for _, starter := range prevGroups[slot] {
			changes = append(changes, LineupChange{Slot: slot, Previous: starter.Name})
		}
	}

	return changes
}
