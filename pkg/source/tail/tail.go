// Package tail bridges an external measurement process that appends
// detected connections to a text file, one pair per line:
//
//	05 06
//	12,13
//
// The file is followed with fsnotify, with a slow poll as a fallback for
// filesystems that do not deliver change events. Truncation and replacement
// (log rotation, editors writing a new file) restart reading from the top.
package tail

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/source"
)

// Name is the source name used in events, logs and metrics.
const Name = "tail"

// DefaultPollInterval is how often the file is re-read without a change event.
const DefaultPollInterval = time.Second

// Config configures a tail source.
type Config struct {
	Path         string
	FromStart    bool // read lines already in the file instead of starting at its end
	PollInterval time.Duration
	Logger       *log.Logger
}

// Source follows a file of connection reports. It implements [source.Source].
type Source struct {
	*source.Worker
	cfg    Config
	logger *log.Logger
}

var _ source.Source = (*Source)(nil)

// New creates a stopped tail source. The file does not need to exist yet.
func New(cfg Config) (*Source, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "tail source needs a file path")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Source{cfg: cfg, logger: cfg.Logger}
	s.Worker = source.NewWorker(Name, s.loop, cfg.Logger)
	return s, nil
}

// follower holds the open file and the partial line read so far.
type follower struct {
	path    string
	f       *os.File
	r       *bufio.Reader
	offset  int64
	pending string
}

func (s *Source) loop(ctx context.Context, emit source.Handler) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(errs.ErrCodeSource, err, "create watcher")
	}
	defer w.Close()

	// Watch the directory so replacement of the file is seen too.
	if err := w.Add(filepath.Dir(s.cfg.Path)); err != nil {
		return errs.Wrap(errs.ErrCodeSource, err, "watch %s", filepath.Dir(s.cfg.Path))
	}

	fl := &follower{path: s.cfg.Path}
	defer fl.close()
	if err := fl.open(!s.cfg.FromStart); err != nil {
		return err
	}
	s.drain(ctx, fl, emit)

	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()

	name := filepath.Clean(s.cfg.Path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return errs.New(errs.ErrCodeSource, "watcher closed")
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Create) && fl.replaced() {
				s.logger.Debug("connection file replaced", "path", s.cfg.Path)
				fl.close()
				if err := fl.open(false); err != nil {
					return err
				}
			}
			s.drain(ctx, fl, emit)

		case err, ok := <-w.Errors:
			if !ok {
				return errs.New(errs.ErrCodeSource, "watcher closed")
			}
			s.logger.Warn("file watcher error", "path", s.cfg.Path, "err", err)

		case <-poll.C:
			s.drain(ctx, fl, emit)
		}
	}
}

// open opens the file if it exists. A missing file is not an error; it is
// picked up when created. With atEnd, existing content is skipped.
func (fl *follower) open(atEnd bool) error {
	f, err := os.Open(fl.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errs.Wrap(errs.ErrCodeSource, err, "open %s", fl.path)
	}
	var offset int64
	if atEnd {
		if offset, err = f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return errs.Wrap(errs.ErrCodeSource, err, "seek %s", fl.path)
		}
	}
	fl.f, fl.r, fl.offset, fl.pending = f, bufio.NewReader(f), offset, ""
	return nil
}

func (fl *follower) close() {
	if fl.f != nil {
		fl.f.Close()
		fl.f, fl.r = nil, nil
	}
}

// replaced reports whether the path now names a different file than the one
// being read.
func (fl *follower) replaced() bool {
	if fl.f == nil {
		return true
	}
	cur, err := os.Stat(fl.path)
	if err != nil {
		return false
	}
	open, err := fl.f.Stat()
	if err != nil {
		return true
	}
	return !os.SameFile(cur, open)
}

// truncated reports whether the file shrank below what was already read.
func (fl *follower) truncated() bool {
	info, err := fl.f.Stat()
	return err == nil && info.Size() < fl.offset
}

// drain emits every complete line appended since the last read.
func (s *Source) drain(ctx context.Context, fl *follower, emit source.Handler) {
	if fl.f == nil {
		if err := fl.open(false); err != nil || fl.f == nil {
			return
		}
	}
	if fl.truncated() {
		s.logger.Debug("connection file truncated", "path", fl.path)
		if _, err := fl.f.Seek(0, io.SeekStart); err != nil {
			s.logger.Warn("rewind failed", "path", fl.path, "err", err)
			return
		}
		fl.r.Reset(fl.f)
		fl.offset, fl.pending = 0, ""
	}

	for ctx.Err() == nil {
		chunk, err := fl.r.ReadString('\n')
		fl.offset += int64(len(chunk))
		if err != nil {
			// Keep the partial line until its newline arrives.
			fl.pending += chunk
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("read failed", "path", fl.path, "err", err)
			}
			return
		}
		line := fl.pending + chunk
		fl.pending = ""
		s.handleLine(line, emit)
	}
}

func (s *Source) handleLine(line string, emit source.Handler) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	first, second, err := source.ParsePair(line)
	if err != nil {
		s.logger.Warn("skipping malformed line", "path", s.cfg.Path, "line", line, "err", err)
		return
	}
	emit(source.NewEvent(Name, first, second))
}
