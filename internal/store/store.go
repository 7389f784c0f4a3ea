package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadly/internal/crm"
	"leadly/internal/proc"
)

var (
	// ErrNotFound means no record with the given id exists.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTimeSpan means an appointment's start is not before its end.
	ErrInvalidTimeSpan = errors.New("appointment start must be before end")
)

const (
	leadsDir        = "leads"
	appointmentsDir = "appointments"
	activitiesDir   = "activities"
)

// Store is the local persistence layer: one JSON file per record under
// ~/.config/leadly/data. It is the only writer of local appointments; external
// calendar events never pass through it.
type Store struct {
	baseDir string
}

// New creates a store rooted in the user's config directory.
func New() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Store{baseDir: filepath.Join(homeDir, ".config", "leadly", "data")}, nil
}

func (s *Store) collectionPath(collection string) string {
	return filepath.Join(s.baseDir, collection)
}

func (s *Store) recordPath(collection, id string) string {
	return filepath.Join(s.collectionPath(collection), id+".json")
}

// saveRecord writes a record atomically: temp file, then rename.
func (s *Store) saveRecord(collection, id string, v any) error {
	dir := s.collectionPath(collection)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	path := s.recordPath(collection, id)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// loadRecord reads a record into v. Returns ErrNotFound for missing ids.
func (s *Store) loadRecord(collection, id string, v any) error {
	data, err := os.ReadFile(s.recordPath(collection, id))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// loadAll reads every record in a collection. A missing directory is an empty
// collection, not an error; a single unreadable record fails the whole read
// so callers never act on partial results.
func loadAll[T any](s *Store, collection string) ([]T, error) {
	dir := s.collectionPath(collection)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []T
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", entry.Name(), err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ---- Appointments ----

// CreateAppointment persists a new local appointment. It assigns an id when
// absent, forces the local source and the scheduled status, and enforces
// start < end at creation time.
func (s *Store) CreateAppointment(app crm.Appointment) (crm.Appointment, error) {
	if !app.Start.Before(app.End) {
		return crm.Appointment{}, ErrInvalidTimeSpan
	}
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	app.Source = crm.SourceLocal
	if app.Status == "" {
		app.Status = crm.StatusScheduled
	}
	if app.Type == "" {
		app.Type = crm.TypeMeeting
	}
	if err := s.saveRecord(appointmentsDir, app.ID, app); err != nil {
		return crm.Appointment{}, err
	}
	return app, nil
}

// ListAppointments returns local appointments whose start falls inside
// [from, to], sorted ascending by start. The request either succeeds for the
// whole range or fails; partial results are never returned.
func (s *Store) ListAppointments(from, to time.Time) ([]crm.Appointment, error) {
	all, err := loadAll[crm.Appointment](s, appointmentsDir)
	if err != nil {
		return nil, err
	}

	var apps []crm.Appointment
	for _, app := range all {
		if app.Start.Before(from) || app.Start.After(to) {
			continue
		}
		apps = append(apps, app)
	}
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].Start.Before(apps[j].Start)
	})
	return apps, nil
}

// Appointments returns every stored appointment, sorted ascending by start.
func (s *Store) Appointments() ([]crm.Appointment, error) {
	apps, err := loadAll[crm.Appointment](s, appointmentsDir)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].Start.Before(apps[j].Start)
	})
	return apps, nil
}

// GetAppointment loads a single appointment by id.
func (s *Store) GetAppointment(id string) (crm.Appointment, error) {
	var app crm.Appointment
	if err := s.loadRecord(appointmentsDir, id, &app); err != nil {
		return crm.Appointment{}, err
	}
	return app, nil
}

// UpdateAppointmentStatus persists a status change. Validity of the
// transition is the caller's concern (crm.Transition); the store only
// guarantees the record exists.
func (s *Store) UpdateAppointmentStatus(id string, status crm.AppointmentStatus) error {
	var app crm.Appointment
	if err := s.loadRecord(appointmentsDir, id, &app); err != nil {
		return err
	}
	app.Status = status
	return s.saveRecord(appointmentsDir, id, app)
}

// NoShowAppointments returns all appointments currently in the no-show
// status, most recent first.
func (s *Store) NoShowAppointments() ([]crm.Appointment, error) {
	all, err := loadAll[crm.Appointment](s, appointmentsDir)
	if err != nil {
		return nil, err
	}

	var apps []crm.Appointment
	for _, app := range all {
		if app.Status == crm.StatusNoShow {
			apps = append(apps, app)
		}
	}
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].Start.After(apps[j].Start)
	})
	return apps, nil
}

// ---- Leads ----

// CreateLead persists a new lead, assigning id, status and creation time
// defaults.
func (s *Store) CreateLead(lead crm.Lead) (crm.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Status == "" {
		lead.Status = crm.LeadNew
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	if lead.LastContact.IsZero() {
		lead.LastContact = lead.CreatedAt
	}
	if err := s.saveRecord(leadsDir, lead.ID, lead); err != nil {
		return crm.Lead{}, err
	}
	return lead, nil
}

// ListLeads returns all leads, newest first.
func (s *Store) ListLeads() ([]crm.Lead, error) {
	leads, err := loadAll[crm.Lead](s, leadsDir)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	return leads, nil
}

// GetLead loads a single lead by id.
func (s *Store) GetLead(id string) (crm.Lead, error) {
	var lead crm.Lead
	if err := s.loadRecord(leadsDir, id, &lead); err != nil {
		return crm.Lead{}, err
	}
	return lead, nil
}

// UpdateLead overwrites an existing lead.
func (s *Store) UpdateLead(lead crm.Lead) error {
	var existing crm.Lead
	if err := s.loadRecord(leadsDir, lead.ID, &existing); err != nil {
		return err
	}
	return s.saveRecord(leadsDir, lead.ID, lead)
}

// ---- Activities ----

// AppendActivity records one entry on a lead's timeline.
func (s *Store) AppendActivity(act crm.Activity) (crm.Activity, error) {
	if act.ID == "" {
		act.ID = uuid.New().String()
	}
	if act.Date.IsZero() {
		act.Date = time.Now()
	}
	if err := s.saveRecord(activitiesDir, act.ID, act); err != nil {
		return crm.Activity{}, err
	}
	return act, nil
}

// ListActivities returns the timeline for one lead, newest first.
func (s *Store) ListActivities(leadID string) ([]crm.Activity, error) {
	all, err := loadAll[crm.Activity](s, activitiesDir)
	if err != nil {
		return nil, err
	}

	var acts []crm.Activity
	for _, act := range all {
		if act.LeadID == leadID {
			acts = append(acts, act)
		}
	}
	sort.SliceStable(acts, func(i, j int) bool {
		return acts[i].Date.After(acts[j].Date)
	})
	return acts, nil
}

// ---- Write lock ----

func (s *Store) lockPath() string {
	return filepath.Join(s.baseDir, ".write.lock")
}

func lockActive(info proc.LockInfo) bool {
	if info.PID <= 0 {
		return false
	}
	if info.Start != "" {
		start, err := proc.StartTime(info.PID)
		if err == nil && start != "" {
			return start == info.Start
		}
		return proc.Exists(info.PID)
	}
	if proc.IsLeadlyProcess(info.PID) {
		return true
	}
	return proc.Exists(info.PID)
}

// AcquireLock takes the store-wide write lock, used to keep the TUI and the
// reminder daemon from interleaving writes. Returns false when another live
// process holds it; stale locks from dead processes are reclaimed.
func (s *Store) AcquireLock() (bool, error) {
	lockPath := s.lockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0700); err != nil {
		return false, err
	}

	data, err := os.ReadFile(lockPath)
	if err == nil {
		info, err := proc.ParseLockInfo(data)
		if err == nil && lockActive(info) {
			return false, nil
		}
		os.Remove(lockPath)
	}

	pid := os.Getpid()
	content := fmt.Sprintf("%d", pid)
	if start, err := proc.StartTime(pid); err == nil && start != "" {
		content = fmt.Sprintf("%d:%s", pid, start)
	}
	if err := os.WriteFile(lockPath, []byte(content), 0600); err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseLock drops the write lock.
func (s *Store) ReleaseLock() error {
	err := os.Remove(s.lockPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
