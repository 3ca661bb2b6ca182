// Package queue defines message payloads exchanged over the message broker.
package queue

// MailRequestedEvent is published when the user service needs a mail sent:
// an account-confirmation link after registration or a password-reset link.
// The consumer owns delivery; the request handler never blocks on a mail
// provider.
type MailRequestedEvent struct {
    To          string `json:"to"`
    Subject     string `json:"subject"`
    Body        string `json:"body"`
    Kind        string `json:"kind"` // "confirmation" | "password_reset"
    RequestedAt string `json:"requested_at"`
}
