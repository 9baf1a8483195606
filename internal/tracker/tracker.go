// Package tracker detects corpus changes between refresh runs by hashing
// document content keyed by a stable source key.
package tracker

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultGracePeriod is how long a source key may be absent from a scrape
// before it is treated as deleted. Transient scrape failures inside the
// window leave the tracked state untouched.
const DefaultGracePeriod = 7 * 24 * time.Hour

const historyLimit = 100

// File names persisted alongside the index.
const (
	HashesFileName  = "content_hashes.json"
	HistoryFileName = "update_history.json"
)

// Item is one scraped document presented to the tracker.
type Item struct {
	Key     string
	Content string
}

// Entry is the tracked state for one source key.
type Entry struct {
	Hash      string    `json:"hash"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Changes classifies one scrape against the tracked state. New, Modified
// and Unchanged hold source keys from the current items; Deleted holds
// previously tracked keys that have been absent past the grace period.
type Changes struct {
	New       []string
	Modified  []string
	Unchanged []string
	Deleted   []string
}

// Total returns the number of classified keys.
func (c Changes) Total() int {
	return len(c.New) + len(c.Modified) + len(c.Unchanged) + len(c.Deleted)
}

// RunSummary records the outcome of one update run.
type RunSummary struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	New       int       `json:"new"`
	Modified  int       `json:"modified"`
	Unchanged int       `json:"unchanged"`
	Deleted   int       `json:"deleted"`
	Success   bool      `json:"success"`
}

// Tracker persists content hashes and the update history after every call:
// crash consistency matters more than write speed here.
type Tracker struct {
	dir     string
	grace   time.Duration
	now     func() time.Time
	hashes  map[string]Entry
	history []RunSummary
}

// Load reads tracked state from dir. Missing files start a fresh tracker.
// A non-positive grace period falls back to DefaultGracePeriod.
func Load(dir string, grace time.Duration) (*Tracker, error) {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	t := &Tracker{
		dir:    dir,
		grace:  grace,
		now:    func() time.Time { return time.Now().UTC() },
		hashes: make(map[string]Entry),
	}

	data, err := os.ReadFile(filepath.Join(dir, HashesFileName))
	if err == nil {
		if err := json.Unmarshal(data, &t.hashes); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", HashesFileName, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", HashesFileName, err)
	}

	data, err = os.ReadFile(filepath.Join(dir, HistoryFileName))
	if err == nil {
		if err := json.Unmarshal(data, &t.history); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", HistoryFileName, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", HistoryFileName, err)
	}

	return t, nil
}

// HashContent returns the hex sha256 of content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// TrackChanges classifies items against the tracked hashes, updates the
// tracked state, and persists it. Keys absent from items are only emitted
// as deleted (and purged) once their last sighting is older than the grace
// period.
func (t *Tracker) TrackChanges(items []Item) (Changes, error) {
	now := t.now()
	var changes Changes

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.Key == "" {
			continue
		}
		seen[item.Key] = true
		hash := HashContent(item.Content)

		entry, ok := t.hashes[item.Key]
		switch {
		case !ok:
			changes.New = append(changes.New, item.Key)
			t.hashes[item.Key] = Entry{Hash: hash, FirstSeen: now, LastSeen: now}
		case entry.Hash != hash:
			changes.Modified = append(changes.Modified, item.Key)
			entry.Hash = hash
			entry.LastSeen = now
			t.hashes[item.Key] = entry
		default:
			changes.Unchanged = append(changes.Unchanged, item.Key)
			entry.LastSeen = now
			t.hashes[item.Key] = entry
		}
	}

	// Deletion is a separate pass over previously tracked keys.
	for key, entry := range t.hashes {
		if seen[key] {
			continue
		}
		if now.Sub(entry.LastSeen) > t.grace {
			changes.Deleted = append(changes.Deleted, key)
			delete(t.hashes, key)
		}
	}

	if err := t.save(); err != nil {
		return changes, err
	}
	return changes, nil
}

// RecordUpdate appends a run summary to the history, trims it to the most
// recent entries, and persists.
func (t *Tracker) RecordUpdate(kind string, changes Changes, success bool) error {
	t.history = append(t.history, RunSummary{
		Kind:      kind,
		Timestamp: t.now(),
		New:       len(changes.New),
		Modified:  len(changes.Modified),
		Unchanged: len(changes.Unchanged),
		Deleted:   len(changes.Deleted),
		Success:   success,
	})
	if len(t.history) > historyLimit {
		t.history = t.history[len(t.history)-historyLimit:]
	}
	return t.save()
}

// History returns the recorded run summaries, oldest first.
func (t *Tracker) History() []RunSummary { return t.history }

// Tracked returns the number of tracked source keys.
func (t *Tracker) Tracked() int { return len(t.hashes) }

func (t *Tracker) save() error {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("creating tracker directory: %w", err)
	}

	hashData, err := json.MarshalIndent(t.hashes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode content hashes: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(t.dir, HashesFileName), hashData); err != nil {
		return err
	}

	history := t.history
	if history == nil {
		history = []RunSummary{}
	}
	histData, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode update history: %w", err)
	}
	return writeFileAtomic(filepath.Join(t.dir, HistoryFileName), histData)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
