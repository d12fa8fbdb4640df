package domain

import "time"

// RequestStatus is the escalation request state. pending may move to
// approved or rejected; both are terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// RequesterSummary is the slice of account data a reviewer needs to
// judge a petition. It never carries the secret.
type RequesterSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// EscalationRequest is one petition to raise an account from parent to
// admin. At most one pending request may exist per account.
type EscalationRequest struct {
	ID        string            `json:"id"`
	AccountID string            `json:"account_id"`
	Status    RequestStatus     `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	DecidedAt *time.Time        `json:"decided_at,omitempty"`
	Requester *RequesterSummary `json:"requester,omitempty"`
}
