package dashboardhttp

import "sync"

const (
	RoutingUsageWeighted = "usage_weighted"
	RoutingRoundRobin    = "round_robin"
)

// Settings 面板可修改的运行时设置。
type Settings struct {
	RoutingStrategy            string `json:"routing_strategy"`
	StickyThreadsEnabled       bool   `json:"sticky_threads_enabled"`
	PreferEarlierResetAccounts bool   `json:"prefer_earlier_reset_accounts"`
	DefaultReasoningEffort     string `json:"default_reasoning_effort"`
}

func DefaultSettings() Settings {
	return Settings{
		RoutingStrategy:      RoutingUsageWeighted,
		StickyThreadsEnabled: true,
	}
}

// settingsUpdateRequest 为 PUT /api/settings 的请求体；nil 字段保持原值。
// default_reasoning_effort 为 "" 表示清除默认值。
type settingsUpdateRequest struct {
	RoutingStrategy            *string `json:"routing_strategy" validate:"omitnil,oneof=usage_weighted round_robin"`
	StickyThreadsEnabled       *bool   `json:"sticky_threads_enabled"`
	PreferEarlierResetAccounts *bool   `json:"prefer_earlier_reset_accounts"`
	DefaultReasoningEffort     *string `json:"default_reasoning_effort" validate:"omitnil,oneof='' low medium high"`
}

func (r settingsUpdateRequest) applyTo(s Settings) Settings {
	if r.RoutingStrategy != nil {
		s.RoutingStrategy = *r.RoutingStrategy
	}
	if r.StickyThreadsEnabled != nil {
		s.StickyThreadsEnabled = *r.StickyThreadsEnabled
	}
	if r.PreferEarlierResetAccounts != nil {
		s.PreferEarlierResetAccounts = *r.PreferEarlierResetAccounts
	}
	if r.DefaultReasoningEffort != nil {
		s.DefaultReasoningEffort = *r.DefaultReasoningEffort
	}
	return s
}

// SettingsStore 并发安全的内存设置存储。
type SettingsStore struct {
	mu       sync.RWMutex
	settings Settings
}

func NewSettingsStore(initial Settings) *SettingsStore {
	return &SettingsStore{settings: initial}
}

func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *SettingsStore) update(req settingsUpdateRequest) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = req.applyTo(s.settings)
	return s.settings
}
