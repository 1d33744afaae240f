// Package alert fans out notifications about papers that came out of a
// scoring batch rising above the configured threshold.
package alert

import (
	"context"
	"errors"
	"fmt"
)

// Notification is the data sent to alert destinations.
type Notification struct {
	PaperID string  `json:"paper_id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Topic   string  `json:"topic"`
	Score   float64 `json:"score"`
	Trend   string  `json:"trend"`
}

// Notifier delivers notifications to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers. One notifier
// failing does not stop the others; all failures are joined.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
