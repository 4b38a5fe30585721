package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matheuskafuri/petitions/internal/petition"
)

type eventKind int

const (
	eventRender eventKind = iota
	eventDetail
	eventError
)

type surfaceEvent struct {
	kind    eventKind
	rows    []petition.Row
	detail  petition.Petition
	message string
}

// eventQueue is the presenter.Surface for one tab. Pushes never block, so
// the presenter may be driven from inside Update; waitForEvents hands the
// queued events back to the program as a message.
type eventQueue struct {
	mu      sync.Mutex
	pending []surfaceEvent
	notify  chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{notify: make(chan struct{}, 1)}
}

func (q *eventQueue) Render(rows []petition.Row) {
	q.push(surfaceEvent{kind: eventRender, rows: rows})
}

func (q *eventQueue) RenderDetail(p petition.Petition) {
	q.push(surfaceEvent{kind: eventDetail, detail: p})
}

func (q *eventQueue) ShowError(message string) {
	q.push(surfaceEvent{kind: eventError, message: message})
}

func (q *eventQueue) push(ev surfaceEvent) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *eventQueue) drain() []surfaceEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// waitForEvents blocks until tab's queue has something, or ctx ends.
func waitForEvents(ctx context.Context, tab int, q *eventQueue) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-q.notify:
			return surfaceMsg{tab: tab, events: q.drain()}
		case <-ctx.Done():
			return nil
		}
	}
}
