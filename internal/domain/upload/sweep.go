package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// ReferenceChecker reports whether any record still points at a stored filename.
type ReferenceChecker interface {
	ReferencesFile(ctx context.Context, filename string) (bool, error)
}

type ReferenceCheckerFunc func(ctx context.Context, filename string) (bool, error)

func (f ReferenceCheckerFunc) ReferencesFile(ctx context.Context, filename string) (bool, error) {
	return f(ctx, filename)
}

type SweepReport struct {
	Scanned           int `json:"scanned"`
	RemovedOriginals  int `json:"removed_originals"`
	RemovedThumbnails int `json:"removed_thumbnails"`
}

// Sweeper removes files that no record references. Files younger than grace
// are left alone so uploads still in flight are not collected.
type Sweeper struct {
	store *Store
	refs  []ReferenceChecker
	grace time.Duration
	now   func() time.Time
}

func NewSweeper(store *Store, grace time.Duration, refs ...ReferenceChecker) *Sweeper {
	return &Sweeper{store: store, refs: refs, grace: grace, now: time.Now}
}

func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	layout := s.store.Layout()

	originals, err := os.ReadDir(layout.ImagesDir)
	if err != nil {
		return report, fmt.Errorf("%w: list %s: %w", ErrStorage, layout.ImagesDir, err)
	}
	for _, entry := range originals {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		report.Scanned++
		if !s.oldEnough(entry) {
			continue
		}

		referenced, err := s.referenced(ctx, entry.Name())
		if err != nil {
			return report, err
		}
		if referenced {
			continue
		}
		if err := s.store.Remove(entry.Name()); err != nil {
			return report, err
		}
		report.RemovedOriginals++
		log.Printf("asset_sweep removed orphan filename=%s", entry.Name())
	}

	thumbs, err := os.ReadDir(layout.ThumbnailsDir)
	if err != nil {
		return report, fmt.Errorf("%w: list %s: %w", ErrStorage, layout.ThumbnailsDir, err)
	}
	for _, entry := range thumbs {
		if !entry.Type().IsRegular() || !s.oldEnough(entry) {
			continue
		}
		original := strings.TrimPrefix(entry.Name(), ThumbnailPrefix)
		if original == entry.Name() {
			continue
		}
		if _, err := os.Stat(layout.ImagePath(original)); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.Remove(layout.ThumbnailPath(original)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return report, fmt.Errorf("%w: remove thumbnail %s: %w", ErrStorage, entry.Name(), err)
		}
		report.RemovedThumbnails++
	}

	return report, nil
}

// Schedule runs Sweep every interval until ctx is done or stop is called.
// stop blocks until the goroutine has exited.
func (s *Sweeper) Schedule(ctx context.Context, interval time.Duration) (stop func()) {
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				report, err := s.Sweep(ctx)
				if err != nil {
					log.Printf("asset_sweep error=%q", err)
					continue
				}
				log.Printf("asset_sweep scanned=%d removed_originals=%d removed_thumbnails=%d",
					report.Scanned, report.RemovedOriginals, report.RemovedThumbnails)
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("asset_sweep scheduled interval=%s grace=%s", interval, s.grace)

	var once sync.Once
	return func() {
		once.Do(func() { close(stopCh) })
		wg.Wait()
	}
}

func (s *Sweeper) oldEnough(entry fs.DirEntry) bool {
	info, err := entry.Info()
	if err != nil {
		return false
	}
	return s.now().Sub(info.ModTime()) >= s.grace
}

func (s *Sweeper) referenced(ctx context.Context, filename string) (bool, error) {
	for _, ref := range s.refs {
		ok, err := ref.ReferencesFile(ctx, filename)
		if err != nil {
			return false, fmt.Errorf("check references of %s: %w", filename, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
