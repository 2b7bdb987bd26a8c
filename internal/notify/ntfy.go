// Package notify pushes progress messages to the phone.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Notifier delivers a short plain-text message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Ntfy posts messages to an ntfy topic URL such as https://ntfy.sh/<topic>.
type Ntfy struct {
	client *resty.Client
	url    string
	title  string
}

// NewNtfy returns a notifier for topicURL. title is sent as the ntfy Title
// header when set.
func NewNtfy(topicURL, title string) *Ntfy {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &Ntfy{client: client, url: topicURL, title: title}
}

func (n *Ntfy) Notify(ctx context.Context, message string) error {
	req := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain; charset=utf-8").
		SetBody(message)
	if n.title != "" {
		req.SetHeader("Title", n.title)
	}
	resp, err := req.Post(n.url)
	if err != nil {
		return fmt.Errorf("ntfy: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("ntfy: %d %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// Nop drops every message. Used when no topic is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
