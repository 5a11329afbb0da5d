package league

import (
	"sync"

	"go.uber.org/zap"
)

// Manager tracks the active seasons.
type Manager struct {
	mu      sync.RWMutex
	seasons map[string]*Season
	logger  *zap.Logger
}

// NewManager creates a season manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		seasons: make(map[string]*Season),
		logger:  logger,
	}
}

// CreateSeason registers a new season in SETUP.
func (m *Manager) CreateSeason(name, commissionerID string, cfg SeasonConfig) *Season {
	season := NewSeason(name, commissionerID, cfg)

	m.mu.Lock()
	m.seasons[season.ID] = season
	m.mu.Unlock()

	m.logger.Info("season created",
		zap.String("season_id", season.ID),
		zap.String("name", name),
		zap.String("commissioner", commissionerID),
	)
	return season
}

// AddSeason registers a restored season, replacing any prior entry.
func (m *Manager) AddSeason(season *Season) {
	m.mu.Lock()
	m.seasons[season.ID] = season
	m.mu.Unlock()
}

// GetSeason looks up a season by id.
func (m *Manager) GetSeason(id string) (*Season, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	season, ok := m.seasons[id]
	return season, ok
}

// RemoveSeason drops a season from the manager.
func (m *Manager) RemoveSeason(id string) {
	m.mu.Lock()
	delete(m.seasons, id)
	m.mu.Unlock()
}

// ListSeasons returns summaries of every tracked season.
func (m *Manager) ListSeasons() []SeasonSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SeasonSummary, 0, len(m.seasons))
	for _, season := range m.seasons {
		out = append(out, season.Summary())
	}
	return out
}

// Count returns the number of tracked seasons.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seasons)
}
