package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matheuskafuri/petitions/internal/config"
	"github.com/matheuskafuri/petitions/internal/logging"
	"github.com/matheuskafuri/petitions/internal/petition"
)

// MaxResponseSize bounds how much of a response body is read.
const MaxResponseSize int64 = 32 << 20

type Kind int

const (
	KindNetwork Kind = iota
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network failure"
	case KindDecode:
		return "decode failure"
	default:
		return "unknown failure"
	}
}

var (
	ErrUnknownSource = errors.New("unknown feed source")
	ErrEmptyBody     = errors.New("empty response body")
)

type LoadError struct {
	Kind     Kind
	SourceID int
	URL      string
	Err      error
}

func (e *LoadError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("loading source %d: %s: %v", e.SourceID, e.Kind, e.Err)
	}
	return fmt.Sprintf("loading source %d (%s): %s: %v", e.SourceID, e.URL, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader fetches and decodes the petition feed behind a source id.
type Loader struct {
	sources   []config.Source
	client    *http.Client
	userAgent string
	log       *slog.Logger
}

type Option func(*Loader)

func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

func WithUserAgent(ua string) Option {
	return func(l *Loader) { l.userAgent = ua }
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) { l.log = log }
}

func NewLoader(sources []config.Source, timeout time.Duration, opts ...Option) *Loader {
	l := &Loader{
		sources: append([]config.Source(nil), sources...),
		client:  &http.Client{Timeout: timeout},
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) Sources() []config.Source {
	return append([]config.Source(nil), l.sources...)
}

// URL resolves a source id to the address that will be fetched. Query
// parameters are only added for the ones configured on the source.
func (l *Loader) URL(sourceID int) (string, error) {
	if sourceID < 0 || sourceID >= len(l.sources) {
		return "", fmt.Errorf("%w: %d", ErrUnknownSource, sourceID)
	}
	src := l.sources[sourceID]
	if src.Limit == 0 && src.SignatureCountFloor == 0 {
		return src.URL, nil
	}

	u, err := url.Parse(src.URL)
	if err != nil {
		return "", fmt.Errorf("source %q: invalid url: %w", src.Name, err)
	}
	q := u.Query()
	if src.Limit > 0 {
		q.Set("limit", strconv.Itoa(src.Limit))
	}
	if src.SignatureCountFloor > 0 {
		q.Set("signatureCountFloor", strconv.Itoa(src.SignatureCountFloor))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (l *Loader) Load(ctx context.Context, sourceID int) ([]petition.Petition, error) {
	target, err := l.URL(sourceID)
	if err != nil {
		return nil, &LoadError{Kind: KindNetwork, SourceID: sourceID, Err: err}
	}

	start := time.Now()
	data, err := l.fetch(ctx, target)
	if err != nil {
		l.log.Warn("fetch failed", "source", sourceID, "url", target, "err", err)
		return nil, &LoadError{Kind: KindNetwork, SourceID: sourceID, URL: target, Err: err}
	}
	l.log.Debug("fetched feed", "source", sourceID, "url", target, "bytes", len(data), "took", time.Since(start))

	records, err := petition.Decode(data)
	if err != nil {
		l.log.Warn("decode failed", "source", sourceID, "url", target, "err", err)
		return nil, &LoadError{Kind: KindDecode, SourceID: sourceID, URL: target, Err: err}
	}
	return records, nil
}

func (l *Loader) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}
	return data, nil
}
