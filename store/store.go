package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"croquis-cli/model"
)

const (
	appDirName      = "croquis-cli"
	eventCacheTTL   = 10 * time.Minute
	maxRecentEvents = 8
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

type RecentEvent struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Venue string `json:"venue,omitempty"`
}

type eventHistory struct {
	Events []RecentEvent `json:"events"`
}

// Session is the bearer token obtained by the login command.
type Session struct {
	Token   string    `json:"token"`
	Email   string    `json:"email,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// Preferences are the per-event view settings restored when an event is
// reopened in the editor.
type Preferences struct {
	Zoom       int    `json:"zoom,omitempty"`
	HideLabels bool   `json:"hide_labels,omitempty"`
	Filter     string `json:"filter,omitempty"`
}

type preferenceFile struct {
	ByEvent map[string]Preferences `json:"by_event"`
}

func LoadEventCache() ([]model.Event, bool, error) {
	path, err := cachePath("events.json")
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Event](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= eventCacheTTL, nil
}

func SaveEventCache(events []model.Event) error {
	path, err := cachePath("events.json")
	if err != nil {
		return err
	}
	return saveCache(path, events)
}

// ClearEventCache drops the cached list so the next picker load hits the API.
func ClearEventCache() error {
	path, err := cachePath("events.json")
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func LoadRecentEvents() ([]RecentEvent, error) {
	path, err := configPath("history.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history eventHistory
	if err := json.Unmarshal(data, &history); err == nil {
		return history.Events, nil
	}

	var legacy []int64
	if err := json.Unmarshal(data, &legacy); err == nil {
		var events []RecentEvent
		for _, id := range legacy {
			if id > 0 {
				events = append(events, RecentEvent{ID: id})
			}
		}
		return events, nil
	}

	return nil, errors.New("invalid event history format")
}

func RememberEvent(event model.Event) error {
	history, _ := LoadRecentEvents()
	next := []RecentEvent{{ID: event.Id, Name: event.Name, Venue: event.VenueName}}

	for _, existing := range history {
		if existing.ID == event.Id {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentEvents {
			break
		}
	}

	path, err := configPath("history.json")
	if err != nil {
		return err
	}
	return writeJSON(path, eventHistory{Events: next}, 0o644)
}

func LoadSession() (Session, error) {
	path, err := configPath("session.json")
	if err != nil {
		return Session{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, nil
		}
		return Session{}, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, errors.New("invalid session format")
	}
	return session, nil
}

func SaveSession(session Session) error {
	if strings.TrimSpace(session.Token) == "" {
		return errors.New("token is required")
	}
	path, err := configPath("session.json")
	if err != nil {
		return err
	}
	if session.SavedAt.IsZero() {
		session.SavedAt = time.Now()
	}
	return writeJSON(path, session, 0o600)
}

func ClearSession() error {
	path, err := configPath("session.json")
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func LoadPreferences(eventID int64) (Preferences, error) {
	file, err := loadPreferenceFile()
	if err != nil {
		return Preferences{}, err
	}
	return file.ByEvent[strconv.FormatInt(eventID, 10)], nil
}

func SavePreferences(eventID int64, prefs Preferences) error {
	if eventID <= 0 {
		return errors.New("event id is required")
	}
	file, err := loadPreferenceFile()
	if err != nil {
		return err
	}
	key := strconv.FormatInt(eventID, 10)
	if prefs == (Preferences{}) {
		delete(file.ByEvent, key)
	} else {
		file.ByEvent[key] = prefs
	}

	path, err := configPath("preferences.json")
	if err != nil {
		return err
	}
	return writeJSON(path, file, 0o644)
}

func loadPreferenceFile() (preferenceFile, error) {
	path, err := configPath("preferences.json")
	if err != nil {
		return preferenceFile{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return preferenceFile{ByEvent: map[string]Preferences{}}, nil
		}
		return preferenceFile{}, err
	}

	var file preferenceFile
	if err := json.Unmarshal(data, &file); err != nil {
		return preferenceFile{}, errors.New("invalid preferences format")
	}
	if file.ByEvent == nil {
		file.ByEvent = map[string]Preferences{}
	}
	return file, nil
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	return writeJSON(path, cache, 0o644)
}

func writeJSON(path string, v any, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, perm)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, name), nil
}
