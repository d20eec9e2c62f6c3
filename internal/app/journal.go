package app

import (
	"context"
	"time"

	"infokiosk/internal/storage"
	logx "infokiosk/pkg/logx"
)

const (
	journalBuffer = 256
	pruneEvery    = time.Hour
)

// journalWriter persists bus entries into the store. Nothing is ever read
// back; the journal is for operators only.
type journalWriter struct {
	store     storage.Store
	events    <-chan storage.Entry
	retention time.Duration
	log       logx.Logger
	now       func() time.Time
}

// run drains events until ctx ends or the channel closes. Write failures
// are logged and the entry is dropped.
func (w *journalWriter) run(ctx context.Context) error {
	var prune <-chan time.Time
	if w.retention > 0 {
		t := time.NewTicker(pruneEvery)
		defer t.Stop()
		prune = t.C
		w.prune(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case e, ok := <-w.events:
			if !ok {
				return nil
			}
			w.append(ctx, e)
		case <-prune:
			w.prune(ctx)
		}
	}
}

func (w *journalWriter) append(ctx context.Context, e storage.Entry) {
	if err := w.store.AppendJournal(ctx, e); err != nil {
		w.log.Warn("journal append failed", logx.String("kind", e.Kind), logx.Err(err))
	}
}

// drain flushes what is already buffered, bounded so shutdown never hangs
// on a slow disk.
func (w *journalWriter) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for {
		select {
		case e, ok := <-w.events:
			if !ok {
				return
			}
			w.append(ctx, e)
		default:
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (w *journalWriter) prune(ctx context.Context) {
	n, err := w.store.Prune(ctx, w.now().Add(-w.retention))
	if err != nil {
		w.log.Warn("journal prune failed", logx.Err(err))
		return
	}
	if n > 0 {
		w.log.Debug("journal pruned", logx.Int("removed", n))
	}
}
