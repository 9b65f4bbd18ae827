// Package activity turns user input into activity notifications for the idle
// engine. Input content is never inspected; only its arrival matters.
package activity

import (
	"io"
	"sync"
	"time"
)

// Notifier receives the name of the source that saw input
type Notifier func(source string)

// DefaultCoalesce is the minimum gap between two notifications from one source
const DefaultCoalesce = 250 * time.Millisecond

// Throttle forwards at most one notification per gap
type Throttle struct {
	mu     sync.Mutex
	notify Notifier
	gap    time.Duration
	last   time.Time
	now    func() time.Time
}

// NewThrottle wraps notify
func NewThrottle(notify Notifier, gap time.Duration) *Throttle {
	return &Throttle{notify: notify, gap: gap, now: time.Now}
}

// Notify forwards source unless a notification was sent within the gap
func (t *Throttle) Notify(source string) {
	t.mu.Lock()
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.gap {
		t.mu.Unlock()
		return
	}
	t.last = now
	t.mu.Unlock()

	t.notify(source)
}

// Reader reports activity whenever a read returns data
type Reader struct {
	r        io.Reader
	source   string
	throttle *Throttle
}

// NewReader wraps r. Notifications are coalesced by DefaultCoalesce.
func NewReader(r io.Reader, source string, notify Notifier) *Reader {
	return &Reader{r: r, source: source, throttle: NewThrottle(notify, DefaultCoalesce)}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.throttle.Notify(r.source)
	}
	return n, err
}
