package history

import (
	"log/slog"
	"time"

	"github.com/matheuskafuri/petitions/internal/logging"
)

type Entry struct {
	At       time.Time
	SourceID int
	URL      string
	OK       bool
	Count    int
	Error    string
	Took     time.Duration
}

// Observer records presenter load outcomes. Write failures are logged and
// otherwise ignored; history must never break a load.
type Observer struct {
	store   *Store
	resolve func(sourceID int) (string, error)
	log     *slog.Logger
	now     func() time.Time
}

func NewObserver(store *Store, resolve func(sourceID int) (string, error), log *slog.Logger) *Observer {
	if log == nil {
		log = logging.Discard()
	}
	return &Observer{store: store, resolve: resolve, log: log, now: time.Now}
}

func (o *Observer) LoadFinished(sourceID, count int, err error, took time.Duration) {
	e := Entry{
		At:       o.now(),
		SourceID: sourceID,
		OK:       err == nil,
		Count:    count,
		Took:     took,
	}
	if err != nil {
		e.Error = err.Error()
	}
	if o.resolve != nil {
		if u, rerr := o.resolve(sourceID); rerr == nil {
			e.URL = u
		}
	}
	if werr := o.store.Record(e); werr != nil {
		o.log.Warn("recording load history", "source", sourceID, "err", werr)
	}
}
