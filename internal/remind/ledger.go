package remind

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Ledger remembers which reminders already went out so a rescan never sends
// the same appointment+window twice. One JSON file, rewritten atomically.
type Ledger struct {
	path string
	sent map[string]time.Time
}

func OpenLedger(dir string) (*Ledger, error) {
	l := &Ledger{
		path: filepath.Join(dir, "reminders.json"),
		sent: make(map[string]time.Time),
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &l.sent); err != nil {
		return nil, err
	}
	return l, nil
}

// Seen reports whether this appointment+window was already handled.
func (l *Ledger) Seen(key string) bool {
	_, ok := l.sent[key]
	return ok
}

// Mark records a sent reminder and persists the ledger.
func (l *Ledger) Mark(key string, at time.Time) error {
	l.sent[key] = at
	return l.save()
}

// Prune drops entries older than the cutoff to keep the file small.
func (l *Ledger) Prune(cutoff time.Time) error {
	for key, at := range l.sent {
		if at.Before(cutoff) {
			delete(l.sent, key)
		}
	}
	return l.save()
}

func (l *Ledger) save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(l.sent, "", "  ")
	if err != nil {
		return err
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}
