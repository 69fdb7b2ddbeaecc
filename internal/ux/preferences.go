package ux

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PreferencesVersion is the current schema version for preferences.json.
const PreferencesVersion = "1.0"

// UserPreferences is the persisted preferences schema.
type UserPreferences struct {
	// Version is the schema version for migration detection
	Version string `json:"version"`

	OnboardingCompleted   bool   `json:"onboarding_completed"`
	OnboardingCompletedAt string `json:"onboarding_completed_at,omitempty"`
}

// PreferencesManager handles loading/saving preferences.
type PreferencesManager struct {
	mu          sync.RWMutex
	path        string
	preferences *UserPreferences
	now         func() time.Time
}

// PreferencesPath returns where preferences live for a workspace.
func PreferencesPath(workspace string) string {
	return filepath.Join(workspace, ".quicksearch", "preferences.json")
}

// NewPreferencesManager creates a preferences manager for the given workspace.
func NewPreferencesManager(workspace string) *PreferencesManager {
	return &PreferencesManager{
		path: PreferencesPath(workspace),
		now:  time.Now,
	}
}

// Path returns the preferences file path.
func (pm *PreferencesManager) Path() string { return pm.path }

// Load reads preferences from disk, creating defaults if not exists.
func (pm *PreferencesManager) Load() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	data, err := os.ReadFile(pm.path)
	if err != nil {
		if os.IsNotExist(err) {
			pm.preferences = DefaultUserPreferences()
			return nil
		}
		return fmt.Errorf("failed to read preferences: %w", err)
	}

	var prefs UserPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return fmt.Errorf("failed to parse preferences: %w", err)
	}
	if prefs.Version == "" {
		prefs.Version = PreferencesVersion
	}

	pm.preferences = &prefs
	return nil
}

// Save writes preferences to disk.
func (pm *PreferencesManager) Save() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.saveLocked()
}

func (pm *PreferencesManager) saveLocked() error {
	if pm.preferences == nil {
		pm.preferences = DefaultUserPreferences()
	}

	// Ensure directory exists
	dir := filepath.Dir(pm.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(pm.preferences, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.WriteFile(pm.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}

	return nil
}

// Get returns a copy of the current preferences (thread-safe).
func (pm *PreferencesManager) Get() UserPreferences {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if pm.preferences == nil {
		return *DefaultUserPreferences()
	}
	return *pm.preferences
}

// MarkOnboardingComplete records onboarding as done and persists it.
// Calling it again after success does not rewrite the file.
func (pm *PreferencesManager) MarkOnboardingComplete() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.preferences == nil {
		pm.preferences = DefaultUserPreferences()
	}
	if pm.preferences.OnboardingCompleted {
		return nil
	}

	pm.preferences.OnboardingCompleted = true
	pm.preferences.OnboardingCompletedAt = pm.now().Format(time.RFC3339)
	if err := pm.saveLocked(); err != nil {
		pm.preferences.OnboardingCompleted = false
		pm.preferences.OnboardingCompletedAt = ""
		return err
	}
	return nil
}

// ResetOnboarding clears the flag so the explainer shows again.
func (pm *PreferencesManager) ResetOnboarding() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.preferences == nil {
		pm.preferences = DefaultUserPreferences()
	}
	pm.preferences.OnboardingCompleted = false
	pm.preferences.OnboardingCompletedAt = ""
	return pm.saveLocked()
}

// IsOnboardingComplete returns true if onboarding is done.
func (pm *PreferencesManager) IsOnboardingComplete() bool {
	return pm.Get().OnboardingCompleted
}

// DefaultUserPreferences returns defaults for a first run.
func DefaultUserPreferences() *UserPreferences {
	return &UserPreferences{Version: PreferencesVersion}
}
