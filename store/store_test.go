package store

import (
	"os"
	"testing"

	"croquis-cli/model"
)

func setTestConfigDir(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("XDG_CACHE_HOME", root)
}

func TestRememberEvent_MostRecentFirstWithoutDuplicates(t *testing.T) {
	setTestConfigDir(t)

	events, err := LoadRecentEvents()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no recent events, got %+v", events)
	}

	for _, e := range []model.Event{
		{Id: 1, Name: "Concierto"},
		{Id: 2, Name: "Teatro"},
		{Id: 1, Name: "Concierto"},
	} {
		if err := RememberEvent(e); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}

	events, err = LoadRecentEvents()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %+v", events)
	}
	if events[0].ID != 1 || events[1].ID != 2 {
		t.Fatalf("unexpected order: %+v", events)
	}
}

func TestRememberEvent_KeepsAtMostEight(t *testing.T) {
	setTestConfigDir(t)

	for i := int64(1); i <= 12; i++ {
		if err := RememberEvent(model.Event{Id: i}); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}
	events, _ := LoadRecentEvents()
	if len(events) != maxRecentEvents {
		t.Fatalf("expected %d events, got %d", maxRecentEvents, len(events))
	}
	if events[0].ID != 12 {
		t.Fatalf("expected newest first, got %+v", events[0])
	}
}

func TestSession_RoundTripAndPermissions(t *testing.T) {
	setTestConfigDir(t)

	if err := SaveSession(Session{}); err == nil {
		t.Fatal("expected error for empty token")
	}
	if err := SaveSession(Session{Token: "abc", Email: "admin@example.com"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	session, err := LoadSession()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if session.Token != "abc" || session.SavedAt.IsZero() {
		t.Fatalf("unexpected session: %+v", session)
	}

	path, _ := configPath("session.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %o", info.Mode().Perm())
	}

	if err := ClearSession(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	session, _ = LoadSession()
	if session.Token != "" {
		t.Fatalf("expected cleared session, got %+v", session)
	}
}

func TestPreferences_PerEvent(t *testing.T) {
	setTestConfigDir(t)

	if err := SavePreferences(3, Preferences{Zoom: 120, HideLabels: true, Filter: "OCCUPIED"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	prefs, err := LoadPreferences(3)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if prefs.Zoom != 120 || !prefs.HideLabels || prefs.Filter != "OCCUPIED" {
		t.Fatalf("unexpected preferences: %+v", prefs)
	}

	other, _ := LoadPreferences(4)
	if other != (Preferences{}) {
		t.Fatalf("expected zero preferences for another event, got %+v", other)
	}

	if err := SavePreferences(0, Preferences{}); err == nil {
		t.Fatal("expected error for missing event id")
	}
}

func TestEventCache_FreshAfterSave(t *testing.T) {
	setTestConfigDir(t)

	events, fresh, err := LoadEventCache()
	if err != nil || fresh || len(events) != 0 {
		t.Fatalf("expected empty stale cache, got %v %v %v", events, fresh, err)
	}

	if err := SaveEventCache([]model.Event{{Id: 7, Name: "Feria"}}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	events, fresh, err = LoadEventCache()
	if err != nil || !fresh || len(events) != 1 || events[0].Id != 7 {
		t.Fatalf("unexpected cache: %v %v %v", events, fresh, err)
	}

	if err := ClearEventCache(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, fresh, _ := LoadEventCache(); fresh {
		t.Fatal("expected cache to be stale after clear")
	}
}
