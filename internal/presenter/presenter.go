// Package presenter owns the petition list behind one screen: it drives the
// Idle → Loading → Loaded/Error state machine, keeps the full and filtered
// record sets, and forwards everything the user should see to a Surface.
package presenter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/matheuskafuri/petitions/internal/logging"
	"github.com/matheuskafuri/petitions/internal/petition"
)

// LoadErrorTitle and LoadErrorMessage are the only failure text shown to
// users; load errors are not distinguished at this boundary.
const (
	LoadErrorTitle   = "Loading error"
	LoadErrorMessage = "There was a problem loading the feed; please check your connection and try again."
)

var (
	ErrLoadInFlight = errors.New("a load is already in progress")
	ErrNotLoaded    = errors.New("no feed loaded")
	ErrNoSuchRow    = errors.New("no such row")
	ErrClosed       = errors.New("presenter closed")
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Loader fetches the records behind a source id.
type Loader interface {
	Load(ctx context.Context, sourceID int) ([]petition.Petition, error)
}

// Surface receives everything the user should see. Calls are never made
// while the presenter's lock is held, so implementations may call back in.
type Surface interface {
	Render(rows []petition.Row)
	RenderDetail(p petition.Petition)
	ShowError(message string)
}

// Observer is told about every finished load, successful or not. Loads
// abandoned by SelectSource or Close are not reported.
type Observer interface {
	LoadFinished(sourceID, count int, err error, took time.Duration)
}

type Presenter struct {
	loader   Loader
	surface  Surface
	observer Observer
	log      *slog.Logger

	mu      sync.Mutex
	source  int
	state   State
	all     []petition.Petition
	visible []petition.Petition
	query   string
	gen     uint64
	cancel  context.CancelFunc
	closed  bool
}

type Option func(*Presenter)

func WithObserver(o Observer) Option {
	return func(p *Presenter) { p.observer = o }
}

func WithLogger(log *slog.Logger) Option {
	return func(p *Presenter) { p.log = log }
}

func New(loader Loader, surface Surface, sourceID int, opts ...Option) *Presenter {
	p := &Presenter{
		loader:  loader,
		surface: surface,
		source:  sourceID,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Activate starts loading the current source in the background. The returned
// channel is closed once the outcome has been applied and the surface
// notified. Only one load may be outstanding at a time.
func (p *Presenter) Activate(ctx context.Context) (<-chan struct{}, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if p.state == StateLoading {
		p.mu.Unlock()
		return nil, ErrLoadInFlight
	}

	loadCtx, cancel := context.WithCancel(ctx)
	p.gen++
	gen := p.gen
	source := p.source
	p.cancel = cancel
	p.state = StateLoading
	p.mu.Unlock()

	p.log.Debug("load started", "source", source)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		start := time.Now()
		records, err := p.loader.Load(loadCtx, source)
		p.finish(gen, source, records, err, time.Since(start))
	}()
	return done, nil
}

func (p *Presenter) finish(gen uint64, source int, records []petition.Petition, err error, took time.Duration) {
	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		p.log.Debug("discarding stale load", "source", source)
		return
	}
	p.cancel = nil

	if err != nil {
		p.state = StateError
		p.all = nil
		p.visible = nil
		p.query = ""
		p.mu.Unlock()

		p.log.Info("load failed", "source", source, "err", err)
		p.notifyObserver(source, 0, err, took)
		p.surface.ShowError(LoadErrorMessage)
		return
	}

	// Replaced wholesale; any previous filter is dropped.
	p.state = StateLoaded
	p.all = records
	p.visible = records
	p.query = ""
	rows := petition.Rows(records)
	p.mu.Unlock()

	p.log.Debug("load finished", "source", source, "count", len(records), "took", took)
	p.notifyObserver(source, len(records), nil, took)
	p.surface.Render(rows)
}

func (p *Presenter) notifyObserver(source, count int, err error, took time.Duration) {
	if p.observer != nil {
		p.observer.LoadFinished(source, count, err, took)
	}
}

// ApplyFilter narrows the visible rows to those matching query. A blank
// query shows everything again.
func (p *Presenter) ApplyFilter(query string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.state != StateLoaded {
		p.mu.Unlock()
		return ErrNotLoaded
	}
	p.visible = petition.Filter(p.all, query)
	p.query = query
	rows := petition.Rows(p.visible)
	p.mu.Unlock()

	p.surface.Render(rows)
	return nil
}

// Select opens the detail view for row i of the visible rows.
func (p *Presenter) Select(i int) (petition.Petition, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return petition.Petition{}, ErrClosed
	}
	if p.state != StateLoaded {
		p.mu.Unlock()
		return petition.Petition{}, ErrNotLoaded
	}
	if i < 0 || i >= len(p.visible) {
		p.mu.Unlock()
		return petition.Petition{}, ErrNoSuchRow
	}
	selected := p.visible[i]
	p.mu.Unlock()

	p.surface.RenderDetail(selected)
	return selected, nil
}

// SelectSource switches to another feed. Whatever was loaded, or is still
// loading, for the previous source is thrown away.
func (p *Presenter) SelectSource(sourceID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.reset()
	p.source = sourceID
	return nil
}

// Close tears the screen down. It is safe to call more than once.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.reset()
	p.closed = true
}

func (p *Presenter) reset() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	p.state = StateIdle
	p.all = nil
	p.visible = nil
	p.query = ""
}

func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Presenter) Source() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

func (p *Presenter) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

func (p *Presenter) All() []petition.Petition {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]petition.Petition(nil), p.all...)
}

func (p *Presenter) Visible() []petition.Petition {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]petition.Petition(nil), p.visible...)
}
