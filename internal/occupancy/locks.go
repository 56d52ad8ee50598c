package occupancy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

// lockTable hands out exclusive locks by string key. Entries are reference
// counted and dropped once nobody holds or waits for them.
type lockTable struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[string]*lockEntry)}
}

func residentKey(nim string) string {
	return "resident:" + nim
}

func roomKey(dormitoryID int64, roomNumber int) string {
	return fmt.Sprintf("room:%d:%d", dormitoryID, roomNumber)
}

func facultyKey(name string) string {
	return "faculty:" + strings.ToLower(name)
}

// acquire takes every key in sorted order so that two callers with
// overlapping key sets cannot deadlock. On failure nothing stays held.
func (t *lockTable) acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = uniqueSorted(keys)

	held := make([]*lockEntry, 0, len(keys))
	heldKeys := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].sem.Release(1)
			t.unref(heldKeys[i])
		}
	}

	for _, key := range keys {
		e := t.ref(key)
		if err := e.sem.Acquire(ctx, 1); err != nil {
			t.unref(key)
			release()
			return nil, fmt.Errorf("%w %q: %w", ErrLockTimeout, key, err)
		}
		held = append(held, e)
		heldKeys = append(heldKeys, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (t *lockTable) ref(key string) *lockEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		t.entries[key] = e
	}
	e.refs++
	return e
}

func (t *lockTable) unref(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(t.entries, key)
	}
}

func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func uniqueSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
