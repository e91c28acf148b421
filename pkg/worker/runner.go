// Package worker runs the processor over many files concurrently.
package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wouteroostervld/decoshrink/pkg/db"
	"github.com/wouteroostervld/decoshrink/pkg/filter"
	"github.com/wouteroostervld/decoshrink/pkg/logging"
	"github.com/wouteroostervld/decoshrink/pkg/processor"
	"github.com/wouteroostervld/decoshrink/pkg/rewrite"
)

// Mode selects what happens to files that would change
type Mode int

const (
	// ModeCheck reports files that would change and leaves them alone
	ModeCheck Mode = iota
	// ModeWrite writes rewritten files back in place
	ModeWrite
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "check"
}

// Config holds runner configuration
type Config struct {
	Processor *processor.Processor
	Filter    *filter.Filter
	Cache     db.Cache // nil disables the incremental cache
	Workers   int      // Files processed concurrently (default: 4)
	Mode      Mode
}

// FileResult is the outcome for one file
type FileResult struct {
	Path    string
	Status  string // one of the db.Status* values
	Cached  bool   // skipped because the cache said it is up to date
	Changes int
	Stats   rewrite.Stats
	Err     error
}

// Summary aggregates a run
type Summary struct {
	Files       int           `json:"files"`
	Rewritten   int           `json:"rewritten"`
	WouldChange []string      `json:"wouldChange,omitempty"`
	Unchanged   int           `json:"unchanged"`
	Cached      int           `json:"cached"`
	Failed      int           `json:"failed"`
	Stats       rewrite.Stats `json:"stats"`
}

func (s *Summary) add(r FileResult) {
	s.Files++
	s.Stats.Add(r.Stats)
	if r.Cached {
		s.Cached++
	}
	switch r.Status {
	case db.StatusRewritten:
		s.Rewritten++
	case db.StatusPending:
		s.WouldChange = append(s.WouldChange, r.Path)
	case db.StatusUnchanged:
		s.Unchanged++
	case db.StatusFailed:
		s.Failed++
	}
}

// Runner processes files through the filter, the processor and the cache
type Runner struct {
	processor *processor.Processor
	filter    *filter.Filter
	cache     db.Cache
	workers   int
	mode      Mode
	logger    zerolog.Logger
	fileLocks sync.Map // path -> *sync.Mutex
}

// NewRunner creates a new runner
func NewRunner(cfg *Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	return &Runner{
		processor: cfg.Processor,
		filter:    cfg.Filter,
		cache:     cfg.Cache,
		workers:   cfg.Workers,
		mode:      cfg.Mode,
		logger:    logging.GetLogger("worker"),
	}
}

// Run collects the files under paths and processes them concurrently. A
// failing file is logged and counted; only cancellation or an unreadable
// input path stops the run.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	files, err := r.Collect(paths)
	if err != nil {
		return nil, err
	}

	r.logger.Info().Int("files", len(files)).Int("workers", r.workers).Str("mode", r.mode.String()).Msg("Processing files")

	var (
		mu      sync.Mutex
		summary Summary
	)

	// gctx is cancelled once Wait returns; only the caller's ctx decides
	// whether the run was interrupted
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := r.ProcessFile(path)

			mu.Lock()
			summary.add(result)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &summary, err
	}
	if err := ctx.Err(); err != nil {
		return &summary, err
	}

	sort.Strings(summary.WouldChange)

	if r.cache != nil {
		if err := r.cache.SetMeta(db.MetaKeyLastRun, time.Now().UTC().Format(time.RFC3339)); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to record run time")
		}
	}

	r.logger.Info().
		Int("files", summary.Files).
		Int("rewritten", summary.Rewritten).
		Int("would_change", len(summary.WouldChange)).
		Int("cached", summary.Cached).
		Int("failed", summary.Failed).
		Msg("Run complete")

	return &summary, nil
}

// Collect expands paths into the sorted list of files the filter accepts.
// Directories are walked, skipping excluded subdirectories.
func (r *Runner) Collect(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = filepath.Clean(path)
		}
		if seen[abs] || !r.filter.ShouldProcess(abs) {
			return
		}
		seen[abs] = true
		files = append(files, abs)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				r.logger.Warn().Err(err).Str("path", path).Msg("Cannot read path")
				return nil
			}
			if d.IsDir() {
				if path != root && !r.filter.ShouldDescend(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ProcessFile processes a single file and records the outcome. Calls for
// the same path are serialized, so a watch event and a full pass never
// interleave their read and write of one file.
func (r *Runner) ProcessFile(path string) FileResult {
	lock, _ := r.fileLocks.LoadOrStore(path, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	result := r.processFile(path)
	mu.Unlock()

	switch {
	case result.Err != nil:
		r.logger.Error().Err(result.Err).Str("file", path).Msg("Failed to process file")
	case result.Status == db.StatusRewritten:
		r.logger.Info().Str("file", path).Int("changes", result.Changes).Msg("Rewrote file")
	case result.Status == db.StatusPending:
		r.logger.Info().Str("file", path).Int("changes", result.Changes).Msg("File would change")
	}

	return result
}

func (r *Runner) processFile(path string) FileResult {
	result := FileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return r.fail(result, "", "", fmt.Errorf("failed to stat file: %w", err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return r.fail(result, "", "", fmt.Errorf("failed to read file: %w", err))
	}

	inputHash := hashContent(data)
	flags := r.processor.Flags(path)
	fingerprint := flags.Fingerprint()

	if r.cache != nil {
		rec, err := r.cache.GetFile(path)
		if err != nil {
			r.logger.Warn().Err(err).Str("file", path).Msg("Cache lookup failed")
		} else if rec.UpToDate(inputHash, fingerprint) {
			r.logger.Debug().Str("file", path).Msg("Up to date")
			result.Status = db.StatusUnchanged
			result.Cached = true
			return result
		}
	}

	out := r.processor.ProcessWith(flags, path, string(data))
	result.Stats = out.Stats
	result.Changes = out.Stats.Changes()

	outputHash := inputHash
	switch {
	case !out.Changed:
		result.Status = db.StatusUnchanged
	case r.mode == ModeWrite:
		if err := os.WriteFile(path, []byte(out.Output), info.Mode().Perm()); err != nil {
			return r.fail(result, inputHash, fingerprint, fmt.Errorf("failed to write file: %w", err))
		}
		result.Status = db.StatusRewritten
		outputHash = hashContent([]byte(out.Output))
	default:
		result.Status = db.StatusPending
		outputHash = hashContent([]byte(out.Output))
	}

	r.record(&db.File{
		Path:       path,
		InputHash:  inputHash,
		OutputHash: outputHash,
		Flags:      fingerprint,
		Status:     result.Status,
		Changes:    result.Changes,
	})

	return result
}

func (r *Runner) fail(result FileResult, inputHash, fingerprint string, err error) FileResult {
	result.Status = db.StatusFailed
	result.Err = err

	r.record(&db.File{
		Path:         result.Path,
		InputHash:    inputHash,
		OutputHash:   inputHash,
		Flags:        fingerprint,
		Status:       db.StatusFailed,
		ErrorMessage: err.Error(),
	})
	return result
}

func (r *Runner) record(f *db.File) {
	if r.cache == nil {
		return
	}
	if err := r.cache.RecordFile(f); err != nil {
		r.logger.Warn().Err(err).Str("file", f.Path).Msg("Failed to record result")
	}
}

func hashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
