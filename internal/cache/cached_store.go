package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"omnicore-dashboard/internal/database"
)

// repository is the slice of the database repository the cached store sits
// in front of.
type repository interface {
	GetSettings(ctx context.Context, userID string) (*database.UserSettings, error)
	SaveSettings(ctx context.Context, userID string, patch *database.SettingsPatch) error
	AppendTrade(ctx context.Context, userID string, trade *database.TradeLog) (string, error)
	ListTrades(ctx context.Context, userID string, filter database.TradeFilter) ([]*database.TradeLog, error)
	GetTrade(ctx context.Context, userID, tradeID string) (*database.TradeLog, error)
	PatchOutcome(ctx context.Context, userID, tradeID, outcome, analysis string) error
	RecentTradeSummaries(ctx context.Context, userID string, limit int) string
}

// keyValueCache is the subset of CacheService the store uses.
type keyValueCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CachedStore layers the settings and trade-summary cache over the database
// repository. Cache failures never surface: every operation falls back to
// the repository.
type CachedStore struct {
	repo  repository
	cache keyValueCache
}

// NewCachedStore wraps a repository with the cache. A nil cache service
// passes everything straight through.
func NewCachedStore(repo *database.Repository, cache *CacheService) *CachedStore {
	s := &CachedStore{repo: repo}
	if cache != nil {
		s.cache = cache
	}
	return s
}

func (s *CachedStore) settingsKey(userID string) string {
	return fmt.Sprintf(KeyUserSettings, userID)
}

func (s *CachedStore) summariesKey(userID string) string {
	return fmt.Sprintf(KeyTradeSummaries, userID)
}

// GetSettings reads cache-first and populates the cache on a database hit.
func (s *CachedStore) GetSettings(ctx context.Context, userID string) (*database.UserSettings, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, s.settingsKey(userID)); err == nil {
			var settings database.UserSettings
			if err := json.Unmarshal([]byte(raw), &settings); err == nil {
				return &settings, nil
			}
			// corrupt entry, drop it and fall through
			_ = s.cache.Delete(ctx, s.settingsKey(userID))
		}
	}

	settings, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings != nil && s.cache != nil {
		_ = s.cache.Set(ctx, s.settingsKey(userID), settings, SettingsTTL)
	}
	return settings, nil
}

// SaveSettings writes through to the database and invalidates the cached
// copy so the next read sees the merged record.
func (s *CachedStore) SaveSettings(ctx context.Context, userID string, patch *database.SettingsPatch) error {
	if err := s.repo.SaveSettings(ctx, userID, patch); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, s.settingsKey(userID))
	}
	return nil
}

// AppendTrade persists the trade and invalidates the summaries cache.
func (s *CachedStore) AppendTrade(ctx context.Context, userID string, trade *database.TradeLog) (string, error) {
	id, err := s.repo.AppendTrade(ctx, userID, trade)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, s.summariesKey(userID))
	}
	return id, nil
}

// ListTrades passes straight through; trade lists are filtered queries and
// not worth caching.
func (s *CachedStore) ListTrades(ctx context.Context, userID string, filter database.TradeFilter) ([]*database.TradeLog, error) {
	return s.repo.ListTrades(ctx, userID, filter)
}

// GetTrade passes straight through.
func (s *CachedStore) GetTrade(ctx context.Context, userID, tradeID string) (*database.TradeLog, error) {
	return s.repo.GetTrade(ctx, userID, tradeID)
}

// PatchOutcome updates the trade and invalidates the summaries cache since
// outcome is part of the summary line.
func (s *CachedStore) PatchOutcome(ctx context.Context, userID, tradeID, outcome, analysis string) error {
	if err := s.repo.PatchOutcome(ctx, userID, tradeID, outcome, analysis); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, s.summariesKey(userID))
	}
	return nil
}

// RecentTradeSummaries serves the prompt history block, cache-first.
func (s *CachedStore) RecentTradeSummaries(ctx context.Context, userID string, limit int) string {
	key := s.summariesKey(userID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			return raw
		}
	}

	summaries := s.repo.RecentTradeSummaries(ctx, userID, limit)
	// the failure sentinel is transient; caching it would pin an empty
	// history block on prompts for the whole TTL
	if s.cache != nil && summaries != database.HistoryUnavailable {
		_ = s.cache.Set(ctx, key, summaries, SummariesTTL)
	}
	return summaries
}
