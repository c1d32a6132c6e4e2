// Package notification delivers strong-signal alerts to external channels
// (webhooks). Delivery is best-effort and never blocks the pipeline.
package notification

import (
	"context"
	"log"
)

// Alert represents a notification to be sent.
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Payload []byte `json:"-"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts instead of delivering them (development default).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] %s: %s", alert.Title, alert.Message)
	return nil
}
