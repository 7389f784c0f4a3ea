package onboarding

import "leadly/config"

// Sector groups businesses whose booking patterns look alike. A sector may
// carry sub-categories; those drive which default services get offered.
type Sector struct {
	ID            string
	Label         string
	Subcategories []Subcategory
}

// Subcategory narrows a sector down to a concrete business type.
type Subcategory struct {
	ID    string
	Label string
}

// Sectors is the pick list shown by the wizard, in display order.
var Sectors = []Sector{
	{
		ID:    "beauty",
		Label: "Beauty & personal care",
		Subcategories: []Subcategory{
			{ID: "hair-salon", Label: "Hair salon"},
			{ID: "nail-studio", Label: "Nail studio"},
			{ID: "barber", Label: "Barber shop"},
		},
	},
	{
		ID:    "health",
		Label: "Health & wellness",
		Subcategories: []Subcategory{
			{ID: "physio", Label: "Physiotherapy"},
			{ID: "massage", Label: "Massage practice"},
			{ID: "dental", Label: "Dental practice"},
		},
	},
	{
		ID:    "fitness",
		Label: "Fitness & coaching",
		Subcategories: []Subcategory{
			{ID: "personal-training", Label: "Personal training"},
			{ID: "yoga", Label: "Yoga studio"},
		},
	},
	{
		ID:    "home-services",
		Label: "Home services",
		Subcategories: []Subcategory{
			{ID: "cleaning", Label: "Cleaning"},
			{ID: "plumbing", Label: "Plumbing"},
			{ID: "electrical", Label: "Electrical"},
		},
	},
	{
		ID:    "consulting",
		Label: "Consulting & freelance",
	},
	{
		ID:    "other",
		Label: "Something else",
	},
}

// SectorByID looks a sector up; nil when unknown.
func SectorByID(id string) *Sector {
	for i := range Sectors {
		if Sectors[i].ID == id {
			return &Sectors[i]
		}
	}
	return nil
}

// defaultServices is the per-sub-category starter catalogue. Sectors without
// sub-categories key on the sector id instead.
var defaultServices = map[string][]config.Service{
	"hair-salon": {
		{Name: "Cut & style", DurationMinutes: 45, Price: 35},
		{Name: "Color", DurationMinutes: 90, Price: 80},
		{Name: "Blow-dry", DurationMinutes: 30, Price: 25},
	},
	"nail-studio": {
		{Name: "Manicure", DurationMinutes: 45, Price: 30},
		{Name: "Gel set", DurationMinutes: 75, Price: 55},
	},
	"barber": {
		{Name: "Haircut", DurationMinutes: 30, Price: 22},
		{Name: "Beard trim", DurationMinutes: 15, Price: 12},
	},
	"physio": {
		{Name: "Intake session", DurationMinutes: 60, Price: 70},
		{Name: "Treatment", DurationMinutes: 30, Price: 45},
	},
	"massage": {
		{Name: "Relaxation massage", DurationMinutes: 60, Price: 60},
		{Name: "Sports massage", DurationMinutes: 45, Price: 55},
	},
	"dental": {
		{Name: "Check-up", DurationMinutes: 30, Price: 50},
		{Name: "Cleaning", DurationMinutes: 45, Price: 75},
	},
	"personal-training": {
		{Name: "Training session", DurationMinutes: 60, Price: 50},
		{Name: "Intake & assessment", DurationMinutes: 90, Price: 75},
	},
	"yoga": {
		{Name: "Group class", DurationMinutes: 75, Price: 15},
		{Name: "Private session", DurationMinutes: 60, Price: 55},
	},
	"cleaning": {
		{Name: "Standard clean", DurationMinutes: 120, Price: 80},
		{Name: "Deep clean", DurationMinutes: 240, Price: 160},
	},
	"plumbing": {
		{Name: "Call-out", DurationMinutes: 60, Price: 90},
	},
	"electrical": {
		{Name: "Call-out", DurationMinutes: 60, Price: 90},
	},
	"consulting": {
		{Name: "Consultation", DurationMinutes: 60, Price: 120},
		{Name: "Discovery call", DurationMinutes: 30, Price: 0},
	},
}

// DefaultServices returns the starter services for a sector/sub-category
// pair. Unknown combinations get an empty list; the user adds their own.
func DefaultServices(sectorID, subcategoryID string) []config.Service {
	if subcategoryID != "" {
		if svcs, ok := defaultServices[subcategoryID]; ok {
			return append([]config.Service(nil), svcs...)
		}
	}
	if svcs, ok := defaultServices[sectorID]; ok {
		return append([]config.Service(nil), svcs...)
	}
	return nil
}
