package features

import (
	"sort"
	"sync"
)

// Predefined feature flag names
const (
	// FeatureAutoVerification verifies cash and bank donations at submission
	FeatureAutoVerification = "auto_verification"
	// FeatureEmailNotifications enables donor and admin emails
	FeatureEmailNotifications = "email_notifications"
	// FeatureRateLimiting enables per-endpoint rate limits
	FeatureRateLimiting = "rate_limiting"
)

// FeatureFlag represents a feature flag configuration.
type FeatureFlag struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// Manager manages feature flags. A nil *Manager reports every flag enabled,
// so components built without one keep their default behaviour.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]*FeatureFlag
}

// NewManager creates a new feature flag manager.
func NewManager() *Manager {
	return &Manager{
		flags: make(map[string]*FeatureFlag),
	}
}

// FromConfig registers the predefined flags with their configured values.
func FromConfig(autoVerification, emailNotifications, rateLimiting bool) *Manager {
	m := NewManager()
	m.Register(FeatureAutoVerification, autoVerification, "Verify cash and bank donations on submission")
	m.Register(FeatureEmailNotifications, emailNotifications, "Send donor and admin notification emails")
	m.Register(FeatureRateLimiting, rateLimiting, "Apply per-endpoint request limits")
	return m
}

// Register registers a new feature flag.
func (m *Manager) Register(name string, enabled bool, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flags[name] = &FeatureFlag{
		Name:        name,
		Enabled:     enabled,
		Description: description,
	}
}

// IsEnabled checks if a feature flag is enabled. Unknown flags are disabled.
func (m *Manager) IsEnabled(name string) bool {
	if m == nil {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[name]
	if !exists {
		return false
	}

	return flag.Enabled
}

// Set toggles a registered flag. It reports false for unknown names.
func (m *Manager) Set(name string, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	flag, exists := m.flags[name]
	if !exists {
		return false
	}
	flag.Enabled = enabled
	return true
}

// List returns a copy of every flag, sorted by name.
func (m *Manager) List() []FeatureFlag {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]FeatureFlag, 0, len(m.flags))
	for _, v := range m.flags {
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
