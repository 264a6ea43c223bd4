package notify

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured signals that no out-of-band channel exists at all, as
// opposed to a configured provider failing a send. Callers must treat the
// two cases differently.
var ErrNotConfigured = errors.New("no notification provider configured")

// PlaceholderURL is substituted with the authentication URL in the
// configured body template.
const PlaceholderURL = "{url}"

// Message is one out-of-band notification.
type Message struct {
	From  string
	To    string
	Title string
	Body  string
}

// Notifier sends out-of-band notifications. Implementations are selected by
// configuration and are interchangeable.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// RenderBody substitutes the authentication URL into a body template. A
// template without the placeholder falls back to appending the URL so the
// link is never silently dropped.
func RenderBody(template, url string) string {
	if !strings.Contains(template, PlaceholderURL) {
		return template + "\n" + url
	}
	return strings.ReplaceAll(template, PlaceholderURL, url)
}

// Disabled is the Notifier used when no provider is configured. Every send
// fails with ErrNotConfigured.
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Send(context.Context, Message) error { return ErrNotConfigured }
