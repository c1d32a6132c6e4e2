package notification

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier POSTs alerts to a generic HTTP endpoint as JSON.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier.
// url: the HTTP endpoint to POST alerts to.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	body := alert.Payload
	if body == nil {
		body = []byte(fmt.Sprintf(`{"title":%q,"message":%q}`, alert.Title, alert.Message))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("webhook http %d", res.StatusCode)
	}
	return nil
}
