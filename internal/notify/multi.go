package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sendrec/reportvideo/internal/report"
)

var _ report.Notifier = (*Multi)(nil)

// secondaryTimeout bounds a background delivery, retries included.
const secondaryTimeout = 30 * time.Second

// Multi fans a report out to a primary notifier and any number of secondary
// ones. Only the primary is awaited and only its result reaches the visitor.
// Secondaries run in the background and their failures are logged.
type Multi struct {
	primary   report.Notifier
	secondary []report.Notifier
	pending   sync.WaitGroup
}

// NewMulti creates a notifier that awaits primary and dispatches to
// secondary in the background.
func NewMulti(primary report.Notifier, secondary ...report.Notifier) *Multi {
	return &Multi{primary: primary, secondary: secondary}
}

func (m *Multi) SendReport(ctx context.Context, n report.Notification) error {
	for _, s := range m.secondary {
		m.pending.Add(1)
		go func() {
			defer m.pending.Done()
			bgCtx, cancel := context.WithTimeout(context.Background(), secondaryTimeout)
			defer cancel()
			if err := s.SendReport(bgCtx, n); err != nil {
				slog.Error("multi-notifier: secondary report notification failed", "post_id", n.PostID, "error", err)
			}
		}()
	}
	return m.primary.SendReport(ctx, n)
}

// Wait blocks until every background delivery has finished.
func (m *Multi) Wait() {
	m.pending.Wait()
}
