package catalog

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"restockbot/pkg/logx"
)

// Watch reloads the catalog when its backing file changes on disk, so the
// operator can hand-edit the product list without restarting the bot.
//
// Editor write patterns (truncate+write, write-to-temp+rename) produce bursts
// of events, so reloads are debounced. Our own Persist() also fires events;
// a content hash skips those redundant reloads. Malformed edits are rejected
// with a warning and the previous catalog stays active.
func (s *Store) Watch(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	file := filepath.Base(s.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	s.log.Debug("catalog watcher started", logx.String("dir", dir), logx.String("file", file))

	var (
		timerMu  sync.Mutex
		timer    *time.Timer
		lastHash = s.contentHash()
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			h := s.contentHash()
			if h != 0 && h == lastHash {
				s.log.Debug("catalog unchanged; skipping reload", logx.String("path", s.path))
				return
			}
			if err := s.Load(); err != nil {
				s.log.Warn("catalog reload rejected", logx.String("path", s.path), logx.Err(err))
				return
			}
			lastHash = s.contentHash()
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if strings.EqualFold(filepath.Base(ev.Name), file) {
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
					debounce()
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				s.log.Warn("catalog watch error", logx.Err(err), logx.String("dir", dir))
			}
		}
	}
}

func (s *Store) contentHash() uint64 {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
