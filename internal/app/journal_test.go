package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"infokiosk/internal/config"
	"infokiosk/internal/sources"
	"infokiosk/internal/storage"
	logx "infokiosk/pkg/logx"
)

type memStore struct {
	mu      sync.Mutex
	entries []storage.Entry
	pruned  []time.Time
	failOn  string
}

func (m *memStore) AppendJournal(_ context.Context, e storage.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Kind == m.failOn {
		return errors.New("disk full")
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) Prune(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned = append(m.pruned, before)
	return 0, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) snapshot() ([]storage.Entry, []time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.Entry(nil), m.entries...), append([]time.Time(nil), m.pruned...)
}

func TestJournalWriterPersistsAndPrunes(t *testing.T) {
	t.Parallel()

	store := &memStore{failOn: storage.KindRender}
	events := make(chan storage.Entry, 4)
	w := &journalWriter{
		store:     store,
		events:    events,
		retention: 72 * time.Hour,
		log:       logx.Nop(),
		now:       func() time.Time { return t0 },
	}

	events <- storage.Entry{At: t0, Kind: storage.KindFetch, Source: "weather", OK: true}
	events <- storage.Entry{At: t0, Kind: storage.KindRender, Source: "news"}
	events <- storage.Entry{At: t0, Kind: storage.KindDeck, Source: "bmkg", OK: true, Detail: "inserted"}
	close(events)

	if err := w.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	entries, pruned := store.snapshot()
	if len(entries) != 2 || entries[0].Source != "weather" || entries[1].Detail != "inserted" {
		t.Fatalf("entries = %+v", entries)
	}
	if len(pruned) != 1 || !pruned[0].Equal(t0.Add(-72*time.Hour)) {
		t.Fatalf("pruned = %v", pruned)
	}
}

func TestJournalWriterDrainsOnCancel(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	events := make(chan storage.Entry, 4)
	events <- storage.Entry{At: t0, Kind: storage.KindWatchdog}
	events <- storage.Entry{At: t0, Kind: storage.KindReboot}
	w := &journalWriter{store: store, events: events, log: logx.Nop(), now: time.Now}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	entries, pruned := store.snapshot()
	if len(entries) != 2 {
		t.Fatalf("drained %d entries, want 2", len(entries))
	}
	if len(pruned) != 0 {
		t.Fatalf("pruned without retention")
	}
}

func TestRunJournalsThroughBus(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	snap := testSnapshot(t, func(c *config.Config) {
		c.Storage = &config.StorageConfig{Driver: "file", Path: t.TempDir() + "/j"}
		c.Display.Tick = "5ms"
	})
	ctx, cancel := context.WithCancel(context.Background())
	a := New(snap, Deps{
		Sources: registryOf(fixed(config.SourceQuote, &sources.Saying{Text: "Sapa nandur bakal ngundhuh"})),
		Store:   store,
	}, time.Now())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		entries, _ := store.snapshot()
		if len(entries) > 0 {
			if entries[0].Kind != storage.KindFetch || entries[0].Source != config.SourceQuote {
				t.Fatalf("first entry = %+v", entries[0])
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("no journal entry written")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      *config.StorageConfig
		enabled bool
		wantErr bool
		check   func(t *testing.T, sc storage.Config)
	}{
		{name: "absent"},
		{name: "none", in: &config.StorageConfig{Driver: "none"}},
		{
			name: "file", in: &config.StorageConfig{Driver: "FILE", Path: "./j", Retention: "72h"}, enabled: true,
			check: func(t *testing.T, sc storage.Config) {
				if sc.Driver != "file" || sc.Retention != 72*time.Hour {
					t.Fatalf("cfg = %+v", sc)
				}
			},
		},
		{
			name: "sqlite default busy", in: &config.StorageConfig{Driver: "sqlite", Path: "./j"}, enabled: true,
			check: func(t *testing.T, sc storage.Config) {
				if sc.BusyTimeout != time.Second {
					t.Fatalf("busy = %s", sc.BusyTimeout)
				}
			},
		},
		{name: "sqlite without path", in: &config.StorageConfig{Driver: "sqlite"}, wantErr: true},
		{name: "bad retention", in: &config.StorageConfig{Driver: "file", Retention: "soon"}, wantErr: true},
		{name: "unknown", in: &config.StorageConfig{Driver: "redis"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sc, enabled, err := mapStorageConfig(&config.Config{Storage: tt.in})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if enabled != tt.enabled {
				t.Fatalf("enabled = %v, want %v", enabled, tt.enabled)
			}
			if tt.check != nil {
				tt.check(t, sc)
			}
		})
	}
}
