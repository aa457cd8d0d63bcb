// Package queue maintains the pending-downloads file consumed by the external download manager.
//
// The file is a JSON array of entries keyed by series name. Access is serialized through an
// advisory lock next to the file because the download manager rewrites it concurrently.
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anigrab/anigrab/filesystem"
	"github.com/anigrab/anigrab/where"
	"github.com/gofrs/flock"
	"github.com/samber/lo"
)

// Entry is one series waiting to be downloaded.
type Entry struct {
	Name       string `json:"name" jsonschema:"description=Checkpoint file name of the series, without extension"`
	Downloaded bool   `json:"downloaded" jsonschema:"description=Set by the download manager once finished"`
	// Timestamp is the enqueue time in milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp" jsonschema:"description=Enqueue time in Unix milliseconds"`
}

// Time returns the enqueue time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

type locker interface {
	Lock() error
	Unlock() error
}

// Queue is the pending-downloads file.
type Queue struct {
	path string
	lock locker
	now  func() time.Time
}

// New returns the queue stored at path.
func New(path string) *Queue {
	return &Queue{
		path: path,
		lock: flock.New(path + ".lock"),
		now:  time.Now,
	}
}

// Default returns the queue in the user's data directory.
func Default() *Queue {
	return New(where.Queue())
}

// Path is the location of the queue file.
func (q *Queue) Path() string {
	return q.path
}

// Enqueue adds the named series as not yet downloaded. An existing entry of the same
// series is replaced, so every series appears at most once.
func (q *Queue) Enqueue(name string) (Entry, error) {
	entry := Entry{Name: name, Timestamp: q.now().UnixMilli()}

	err := q.update(func(entries []Entry) []Entry {
		entries = lo.Reject(entries, func(e Entry, _ int) bool { return e.Name == name })
		return append(entries, entry)
	})
	return entry, err
}

// List returns every entry in queue order.
func (q *Queue) List() ([]Entry, error) {
	var entries []Entry
	err := q.locked(func() error {
		var err error
		entries, err = q.read()
		return err
	})
	return entries, err
}

// Remove drops the named series and reports whether it was queued.
func (q *Queue) Remove(name string) (bool, error) {
	var removed bool
	err := q.update(func(entries []Entry) []Entry {
		kept := lo.Reject(entries, func(e Entry, _ int) bool { return e.Name == name })
		removed = len(kept) != len(entries)
		return kept
	})
	return removed, err
}

// Clear empties the queue.
func (q *Queue) Clear() error {
	return q.update(func([]Entry) []Entry { return nil })
}

func (q *Queue) update(fn func([]Entry) []Entry) error {
	return q.locked(func() error {
		entries, err := q.read()
		if err != nil {
			return err
		}
		return q.write(fn(entries))
	})
}

func (q *Queue) locked(fn func() error) error {
	if err := filesystem.API().MkdirAll(filepath.Dir(q.path), os.ModePerm); err != nil {
		return err
	}

	if err := q.lock.Lock(); err != nil {
		return fmt.Errorf("lock queue: %w", err)
	}
	defer func() { _ = q.lock.Unlock() }()

	return fn()
}

func (q *Queue) read() ([]Entry, error) {
	fs := filesystem.API()

	exists, err := fs.Exists(q.path)
	if err != nil || !exists {
		return []Entry{}, err
	}

	data, err := fs.ReadFile(q.path)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode queue %s: %w", q.path, err)
		}
	}
	return lo.Ternary(entries != nil, entries, []Entry{}), nil
}

func (q *Queue) write(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return filesystem.WriteAtomic(q.path, data)
}
