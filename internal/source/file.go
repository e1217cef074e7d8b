package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/HamStudy/kubescroll/internal/core"
)

// DefaultPollInterval is how often a followed file is checked when no
// filesystem notification arrives
const DefaultPollInterval = time.Second

var errFileReplaced = errors.New("file replaced")

// FileOptions configures a FileSource
type FileOptions struct {
	Mode         Mode
	Follow       bool
	PollInterval time.Duration
	Logger       zerolog.Logger
}

// FileSource reads entries from a file or an arbitrary reader
type FileSource struct {
	name   string
	path   string
	reader io.Reader
	opts   FileOptions
}

// NewFileSource reads the file at path. With Follow set, appended data is
// picked up until ctx is cancelled, including after truncation or rotation.
func NewFileSource(path string, opts FileOptions) *FileSource {
	return &FileSource{
		name: filepath.Base(path),
		path: path,
		opts: withFileDefaults(opts),
	}
}

// NewReaderSource reads r until EOF. Follow has no effect.
func NewReaderSource(name string, r io.Reader, opts FileOptions) *FileSource {
	return &FileSource{
		name:   name,
		reader: r,
		opts:   withFileDefaults(opts),
	}
}

func withFileDefaults(opts FileOptions) FileOptions {
	if opts.Mode == "" {
		opts.Mode = ModeMultiline
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return opts
}

// Name returns the file name
func (s *FileSource) Name() string {
	return s.name
}

// Run reads entries and emits them
func (s *FileSource) Run(ctx context.Context, emit func(core.Entry)) error {
	b := newRecordBuilder(s.name, core.KindLine, s.opts.Mode, emit)

	if s.reader != nil {
		return readAll(ctx, s.reader, s.name, b)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	if s.opts.Follow {
		return s.follow(ctx, f, b)
	}
	defer f.Close()

	return readAll(ctx, f, s.path, b)
}

// follow owns f and closes it, or its replacement, on return
func (s *FileSource) follow(ctx context.Context, f *os.File, b *recordBuilder) error {
	defer func() { f.Close() }()
	logger := s.opts.Logger.With().Str("file", s.path).Logger()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn().Err(err).Msg("file notifications unavailable, polling")
		watcher = nil
	} else {
		defer watcher.Close()
		if err := watcher.Add(s.path); err != nil {
			logger.Warn().Err(err).Msg("cannot watch file, polling")
		}
	}

	br := bufio.NewReader(f)
	var partial string
	var offset int64

	for {
		var err error
		partial, err = readLines(ctx, br, partial, b)
		if isCancel(ctx, err) {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read %s: %w", s.path, err)
		}
		if pos, err := f.Seek(0, io.SeekCurrent); err == nil {
			offset = pos - int64(br.Buffered())
		}

		changed, err := s.wait(ctx, watcher, f)
		switch {
		case errors.Is(err, errFileReplaced):
			next, openErr := os.Open(s.path)
			if openErr != nil {
				continue
			}
			logger.Debug().Msg("file replaced, reopening")
			finish(partial, b)
			partial = ""
			f.Close()
			f = next
			br.Reset(f)
			offset = 0
			if watcher != nil {
				_ = watcher.Add(s.path)
			}
			continue
		case err != nil:
			finish(partial, b)
			return nil
		}

		// A record stays open while continuation lines may still arrive;
		// once the writer goes quiet it is complete.
		if !changed {
			b.flush()
		}

		if fi, err := f.Stat(); err == nil && fi.Size() < offset {
			logger.Debug().Int64("offset", offset).Int64("size", fi.Size()).Msg("file truncated, rewinding")
			if _, err := f.Seek(0, io.SeekStart); err == nil {
				br.Reset(f)
				partial = ""
				offset = 0
			}
		}
	}
}

// wait blocks until the file may have changed or the poll interval passes.
// It returns ctx.Err() when cancelled and errFileReplaced when the path was
// removed or renamed.
func (s *FileSource) wait(ctx context.Context, watcher *fsnotify.Watcher, f *os.File) (bool, error) {
	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case ev, ok := <-events:
		if ok && (ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)) {
			return true, errFileReplaced
		}
		return ok, nil
	case err, ok := <-errs:
		if ok {
			s.opts.Logger.Warn().Err(err).Msg("file watch error")
		}
		return false, nil
	case <-timer.C:
		if replaced(s.path, f) {
			return true, errFileReplaced
		}
		return false, nil
	}
}

// replaced reports whether path now names a different file than f
func replaced(path string, f *os.File) bool {
	current, err := f.Stat()
	if err != nil {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !os.SameFile(current, fi)
}
