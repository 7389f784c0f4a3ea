package onboarding

import (
	"errors"
	"testing"

	"leadly/config"
)

func TestNextSkipsSubcategoryForFlatSector(t *testing.T) {
	w := New()
	w.Next() // welcome -> sector
	w.SetSector("consulting")
	w.Next()
	if w.Step() != StepServices {
		t.Fatalf("step = %v, want services (consulting has no sub-categories)", w.Step())
	}
}

func TestNextVisitsSubcategoryWhenSectorHasThem(t *testing.T) {
	w := New()
	w.Next()
	w.SetSector("beauty")
	w.Next()
	if w.Step() != StepSubcategory {
		t.Fatalf("step = %v, want sub-category", w.Step())
	}
	w.SetSubcategory("hair-salon")
	w.Next()
	if w.Step() != StepServices {
		t.Fatalf("step = %v, want services", w.Step())
	}
}

func TestServicesSeedFromCatalogue(t *testing.T) {
	w := New()
	w.Next()
	w.SetSector("beauty")
	w.Next()
	w.SetSubcategory("hair-salon")
	w.Next()

	if len(w.Data.Services) == 0 {
		t.Fatalf("services not seeded from catalogue")
	}
	for _, c := range w.Data.Services {
		if !c.Selected {
			t.Fatalf("seeded services should start selected")
		}
	}
}

func TestBackKeepsEnteredData(t *testing.T) {
	w := New()
	w.Next()
	w.SetSector("beauty")
	w.Next()
	w.SetSubcategory("barber")
	w.Next()
	w.ToggleService(0)

	w.Back()
	w.Back()
	if w.Step() != StepSector {
		t.Fatalf("step = %v, want sector", w.Step())
	}
	if w.Data.Sector != "beauty" || w.Data.Subcategory != "barber" {
		t.Fatalf("data lost on back navigation: %+v", w.Data)
	}

	// Walking forward again keeps the toggle instead of reseeding.
	w.Next()
	w.Next()
	if w.Data.Services[0].Selected {
		t.Fatalf("service toggle lost after back/next round trip")
	}
}

func TestBackMirrorsSubcategorySkip(t *testing.T) {
	w := New()
	w.Next()
	w.SetSector("other")
	w.Next()
	if w.Step() != StepServices {
		t.Fatalf("step = %v, want services", w.Step())
	}
	w.Back()
	if w.Step() != StepSector {
		t.Fatalf("back from services = %v, want sector", w.Step())
	}
}

func TestChangingSectorDropsStaleChoices(t *testing.T) {
	w := New()
	w.Next()
	w.SetSector("beauty")
	w.Next()
	w.SetSubcategory("hair-salon")
	w.Next()

	w.Back()
	w.Back()
	w.SetSector("fitness")
	if w.Data.Subcategory != "" {
		t.Fatalf("stale sub-category kept across sector change")
	}
	if w.Data.Services != nil {
		t.Fatalf("stale services kept across sector change")
	}
}

func TestFinishRequiresConsentForWhatsApp(t *testing.T) {
	w := New()
	w.Data.Automations.Channels.WhatsApp = true
	w.Data.Consent = false

	cfg := config.DefaultConfig()
	err := w.Finish(&cfg)
	if !errors.Is(err, ErrConsentRequired) {
		t.Fatalf("err = %v, want consent required", err)
	}
	if cfg.OnboardingComplete {
		t.Fatalf("config marked complete despite refusal")
	}
}

func TestFinishWritesProfile(t *testing.T) {
	w := New()
	w.Data.BusinessName = "Studio Klip"
	w.SetSector("beauty")
	w.SetSubcategory("hair-salon")
	w.seedServices()
	w.ToggleService(1) // drop one
	w.AddService(config.Service{Name: "Kids cut", DurationMinutes: 20, Price: 18})
	w.Data.Buffer = 15
	w.Data.Calendar = config.CalendarICS
	w.Data.ICSURL = "https://example.com/cal.ics"
	w.Data.Tone = "friendly"
	w.Data.Consent = true
	w.Data.Automations = config.AutomationsConfig{
		Reminder24h: true,
		Channels:    config.ChannelsConfig{WhatsApp: true},
	}

	cfg := config.DefaultConfig()
	if err := w.Finish(&cfg); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !cfg.OnboardingComplete {
		t.Fatalf("onboarding not marked complete")
	}
	if cfg.Profile.BusinessName != "Studio Klip" || cfg.Profile.Subcategory != "hair-salon" {
		t.Fatalf("profile not written: %+v", cfg.Profile)
	}
	// Three seeded minus the toggled one, plus the custom add.
	if len(cfg.Profile.Services) != 3 {
		t.Fatalf("got %d services, want 3: %+v", len(cfg.Profile.Services), cfg.Profile.Services)
	}
	for _, svc := range cfg.Profile.Services {
		if svc.Name == "Color" {
			t.Fatalf("deselected service persisted")
		}
	}
	if cfg.Calendar.System != config.CalendarICS || cfg.Calendar.ICSURL == "" {
		t.Fatalf("calendar choice not written: %+v", cfg.Calendar)
	}
	if w.Step() != StepDone {
		t.Fatalf("wizard not at done after finish")
	}
}

func TestDefaultServicesUnknownSector(t *testing.T) {
	if svcs := DefaultServices("unknown", ""); svcs != nil {
		t.Fatalf("expected nil for unknown sector, got %+v", svcs)
	}
}
