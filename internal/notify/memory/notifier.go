// Package memory contains an in-memory notifier implementation for tests.
package memory

import (
	"context"
	"sync"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

// Notifier stores published job summaries for inspection.
type Notifier struct {
	mu        sync.RWMutex
	published []contact.JobSummary
}

// New returns a memory Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Publish records the job summary.
func (n *Notifier) Publish(_ context.Context, job contact.JobSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, job)
	return nil
}

// Published returns the recorded notifications.
func (n *Notifier) Published() []contact.JobSummary {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]contact.JobSummary, len(n.published))
	copy(out, n.published)
	return out
}
