package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/checkmate/internal/sources"
)

// ErrNoHost is returned for URLs with no usable host
var ErrNoHost = errors.New("url has no host")

// Limiter throttles article fetches per publisher. URLs are keyed by the
// same host rule the allow-list uses, so www.bbc.co.uk and news.bbc.co.uk
// draw from the one bbc.co.uk bucket when bbc.co.uk is listed. Hosts
// outside the list get a bucket of their own.
type Limiter struct {
	publishers *sources.AllowList
	every      rate.Limit
	burst      int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLimiter creates a limiter allowing requestsPerSecond per publisher.
// publishers may be nil, in which case every host is its own bucket.
func NewLimiter(requestsPerSecond float64, burst int, publishers *sources.AllowList) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		publishers: publishers,
		every:      rate.Limit(requestsPerSecond),
		burst:      burst,
		buckets:    make(map[string]*rate.Limiter),
	}
}

// Key returns the bucket rawURL is charged to
func (l *Limiter) Key(rawURL string) string {
	if l.publishers != nil {
		if p := l.publishers.Publisher(rawURL); p != "" {
			return p
		}
	}
	return sources.Hostname(rawURL)
}

// Wait blocks until the publisher of rawURL has a token, then for
// crawlDelay more (a robots.txt Crawl-delay, usually zero)
func (l *Limiter) Wait(ctx context.Context, rawURL string, crawlDelay time.Duration) error {
	b, err := l.bucket(rawURL)
	if err != nil {
		return err
	}
	if err := b.Wait(ctx); err != nil {
		return err
	}
	if crawlDelay <= 0 {
		return nil
	}

	t := time.NewTimer(crawlDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Allow takes a token for rawURL without waiting
func (l *Limiter) Allow(rawURL string) bool {
	b, err := l.bucket(rawURL)
	return err == nil && b.Allow()
}

func (l *Limiter) bucket(rawURL string) (*rate.Limiter, error) {
	key := l.Key(rawURL)
	if key == "" {
		return nil, ErrNoHost
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets[key] = b
	}
	return b, nil
}
