// Package queue defines message payloads exchanged over the message broker.
package queue

// EmailEvent is published whenever the reservation flow wants to send mail:
// invite issued, response recorded, payment taken or approved.  Delivery is
// fire-and-forget and at-most-once; a lost message never fails or blocks
// the reservation operation that produced it.
type EmailEvent struct {
    To       string `json:"to"`
    Subject  string `json:"subject"`
    Text     string `json:"text"`
    HTML     string `json:"html,omitempty"`
    Kind     string `json:"kind"`
    QueuedAt string `json:"queued_at"`
}
