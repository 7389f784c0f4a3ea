package config

import (
	"testing"
	"time"
)

func setTempHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	setTempHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme != "default" {
		t.Fatalf("theme = %q, want default", cfg.Theme)
	}
	if cfg.Calendar.System != CalendarManual {
		t.Fatalf("calendar system = %q, want manual", cfg.Calendar.System)
	}
	if cfg.OnboardingComplete {
		t.Fatalf("fresh config must not be marked onboarded")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	setTempHome(t)

	cfg := DefaultConfig()
	cfg.OnboardingComplete = true
	cfg.Profile = Profile{
		BusinessName:  "Studio Klip",
		Sector:        "beauty",
		Subcategory:   "hair salon",
		Services:      []Service{{Name: "Cut", DurationMinutes: 45, Price: 35}},
		BufferMinutes: 15,
		Tone:          "friendly",
		Consent:       true,
	}
	cfg.Calendar = CalendarConfig{System: CalendarICS, ICSURL: "https://example.com/cal.ics", WeekStart: "sunday"}
	cfg.Automations = AutomationsConfig{Reminder24h: true, NoShowRecovery: true}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.OnboardingComplete {
		t.Fatalf("onboarding flag lost")
	}
	if loaded.Profile.BusinessName != "Studio Klip" || loaded.Profile.BufferMinutes != 15 {
		t.Fatalf("profile not round-tripped: %+v", loaded.Profile)
	}
	if len(loaded.Profile.Services) != 1 || loaded.Profile.Services[0].Name != "Cut" {
		t.Fatalf("services not round-tripped: %+v", loaded.Profile.Services)
	}
	if loaded.Calendar.ICSURL != "https://example.com/cal.ics" {
		t.Fatalf("calendar not round-tripped: %+v", loaded.Calendar)
	}
	if !loaded.Automations.Reminder24h || loaded.Automations.Reminder2h {
		t.Fatalf("automations not round-tripped: %+v", loaded.Automations)
	}
}

func TestWeekStartDay(t *testing.T) {
	if d := (CalendarConfig{WeekStart: "sunday"}).WeekStartDay(); d != time.Sunday {
		t.Fatalf("sunday config = %v", d)
	}
	if d := (CalendarConfig{}).WeekStartDay(); d != time.Monday {
		t.Fatalf("default week start = %v, want Monday", d)
	}
}
