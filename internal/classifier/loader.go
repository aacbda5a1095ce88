package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/verdant/internal/config"
)

const maxDocumentSize = 8 << 20

// Loader fetches the model documents on first use and caches the result
// for the life of the process. Concurrent first calls share one fetch.
type Loader struct {
	client       *http.Client
	modelURL     string
	metadataURL  string
	fetchTimeout time.Duration
	imageSize    int
	logger       *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	model *Model
	gen   uint64
}

// NewLoader creates a Loader. A nil client uses http.DefaultClient.
func NewLoader(cfg *config.ClassifierConfig, client *http.Client, logger *slog.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		client:       client,
		modelURL:     cfg.ModelURL,
		metadataURL:  cfg.MetadataURL,
		fetchTimeout: cfg.FetchTimeoutDuration(),
		imageSize:    cfg.ImageSize,
		logger:       logger.With("system", "classifier-loader"),
	}
}

// Model returns the cached model, or nil before a successful Load.
func (l *Loader) Model() *Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.model
}

// Reset drops the cached model so the next Load fetches again. A fetch
// already in flight still answers its waiters but is not cached.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.model = nil
	l.gen++
	l.mu.Unlock()
	l.group.Forget("model")
}

// Load returns the cached model or fetches it. The fetch is detached from
// the caller's cancellation so one abandoned request does not fail the
// others waiting on it; it is still bounded by the fetch timeout.
func (l *Loader) Load(ctx context.Context) (*Model, error) {
	if m := l.Model(); m != nil {
		return m, nil
	}

	ch := l.group.DoChan("model", func() (any, error) {
		l.mu.RLock()
		m, gen := l.model, l.gen
		l.mu.RUnlock()
		if m != nil {
			return m, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTimeout)
		defer cancel()

		m, err := l.fetch(fetchCtx)
		if err != nil {
			l.logger.Error("model load failed", "error", err)
			return nil, err
		}

		l.mu.Lock()
		stale := l.gen != gen
		if !stale {
			l.model = m
		}
		l.mu.Unlock()

		if stale {
			l.logger.Info("model reset during load, result not cached", "name", m.Name)
			return m, nil
		}

		l.logger.Info("model loaded", "name", m.Name, "labels", len(m.Labels), "image_size", m.ImageSize)
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Model), nil
	}
}

func (l *Loader) fetch(ctx context.Context) (*Model, error) {
	var (
		topology Topology
		metadata Metadata
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.getJSON(gctx, l.modelURL, &topology) })
	g.Go(func() error { return l.getJSON(gctx, l.metadataURL, &metadata) })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}

	m, err := buildModel(topology, metadata, l.imageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	return m, nil
}

func (l *Loader) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return fmt.Errorf("read %s: %w", url, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("get %s: empty document", url)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
