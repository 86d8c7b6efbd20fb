// Package backend decides once, at startup, where records live: in the
// configured document store when it answers within the probe timeout, in the
// local JSON file otherwise. The decision is returned as a Selection value
// and never revisited while the process runs.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/filestore"
	"github.com/pkordes/trip-manager/internal/repo"
)

// Mode names the active backend.
type Mode string

const (
	ModeDocument Mode = "document"
	ModeFile     Mode = "file"
)

// DefaultProbeTimeout applies when Options.ProbeTimeout is zero.
const DefaultProbeTimeout = 2 * time.Second

// DocumentStore is a connected document driver.
type DocumentStore interface {
	repo.Store
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Dialer connects to a document store. ctx carries the probe deadline.
type Dialer func(ctx context.Context) (DocumentStore, error)

// Options configures Select.
type Options struct {
	// Driver names the document store for logs and health output.
	Driver string
	// Dial is nil when no document store is configured.
	Dial         Dialer
	ProbeTimeout time.Duration
	// FilePath is the JSON document used when the probe fails.
	FilePath string
	Logger   *slog.Logger
}

// Selection is the immutable outcome of Select.
type Selection struct {
	Mode   Mode
	Driver string
	Store  repo.Store
	// Err is the probe failure that forced the file store, if any.
	Err   error
	close func(context.Context) error
}

// Close releases the document store connection. It is a no-op in file mode.
func (s Selection) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Select probes the document store and falls back to the file store on any
// failure, including the probe timeout. It only returns an error when the
// file store itself cannot be initialised.
func Select(ctx context.Context, opts Options) (Selection, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	var probeErr error
	if opts.Dial != nil {
		store, err := probe(ctx, opts.Dial, timeout)
		if err == nil {
			logger.InfoContext(ctx, "backend selected",
				slog.String("mode", string(ModeDocument)),
				slog.String("driver", opts.Driver),
			)
			return Selection{Mode: ModeDocument, Driver: opts.Driver, Store: store, close: store.Close}, nil
		}
		probeErr = fmt.Errorf("%w: %s: %w", domain.ErrBackendUnavailable, opts.Driver, err)
		logger.WarnContext(ctx, "document store unavailable, using local file store",
			slog.String("driver", opts.Driver),
			slog.String("file", opts.FilePath),
			slog.Any("error", probeErr),
		)
	}

	engine, err := filestore.New(opts.FilePath)
	if err != nil {
		return Selection{}, fmt.Errorf("backend.Select: %w", err)
	}
	if err := engine.Init(ctx); err != nil {
		return Selection{}, fmt.Errorf("backend.Select: %w", err)
	}
	logger.InfoContext(ctx, "backend selected",
		slog.String("mode", string(ModeFile)),
		slog.String("driver", opts.Driver),
		slog.String("file", engine.Path()),
	)
	return Selection{Mode: ModeFile, Driver: opts.Driver, Store: engine, Err: probeErr}, nil
}

type dialResult struct {
	store DocumentStore
	err   error
}

// probe dials and pings under timeout. A dialer that ignores its context is
// abandoned at the deadline; if it connects later the connection is closed.
func probe(ctx context.Context, dial Dialer, timeout time.Duration) (DocumentStore, error) {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan dialResult, 1)
	go func() {
		store, err := dial(probeCtx)
		if err == nil {
			if err = store.Ping(probeCtx); err != nil {
				_ = store.Close(context.Background())
				store = nil
			}
		}
		done <- dialResult{store: store, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return res.store, nil
	case <-probeCtx.Done():
		go func() {
			if res := <-done; res.err == nil {
				_ = res.store.Close(context.Background())
			}
		}()
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("no answer within %s: %w", timeout, probeCtx.Err())
		}
		return nil, probeCtx.Err()
	}
}
