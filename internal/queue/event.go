// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer plumbing around them.
package queue

// EmailMessage is published to the email queue whenever the API needs a mail
// delivered. The consumer renders the named template with Context and sends
// it; Attachments are paths relative to the process working directory.
type EmailMessage struct {
	To          string         `json:"to"`
	From        string         `json:"from"`
	Subject     string         `json:"subject"`
	Template    string         `json:"template"`
	Context     map[string]any `json:"context"`
	Attachments []string       `json:"attachments,omitempty"`
}
