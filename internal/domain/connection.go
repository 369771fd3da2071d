package domain

import (
	"context"
	"strings"
)

// RequestStatus is the lifecycle state of a connection request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusAccepted RequestStatus = "ACCEPTED"
	RequestStatusDeclined RequestStatus = "DECLINED"
)

// CanTransition reports whether a request may move from s to next.
// Only pending requests can be answered, and only once.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	return s == RequestStatusPending &&
		(next == RequestStatusAccepted || next == RequestStatusDeclined)
}

// Decision is the receiver's answer to a pending request
type Decision string

const (
	DecisionAccept  Decision = "ACCEPT"
	DecisionDecline Decision = "DECLINE"
)

// ParseDecision accepts "accept"/"decline" in any case
func ParseDecision(s string) (Decision, bool) {
	switch Decision(strings.ToUpper(strings.TrimSpace(s))) {
	case DecisionAccept:
		return DecisionAccept, true
	case DecisionDecline:
		return DecisionDecline, true
	}
	return "", false
}

// Status maps the decision to the status it produces
func (d Decision) Status() RequestStatus {
	if d == DecisionAccept {
		return RequestStatusAccepted
	}
	return RequestStatusDeclined
}

// ConnectionRequest is the wire representation of a request between two members
type ConnectionRequest struct {
	ID          int64         `json:"id"`
	Sender      Profile       `json:"sender"`
	Receiver    Profile       `json:"receiver"`
	Message     string        `json:"message,omitempty"`
	Status      RequestStatus `json:"status"`
	CreatedAt   Timestamp     `json:"createdAt"`
	RespondedAt *Timestamp    `json:"respondedAt,omitempty"`
}

// Connection is the devserver's stored request row
type Connection struct {
	ID          int64
	SenderID    int64
	ReceiverID  int64
	Message     string
	Status      RequestStatus
	CreatedAt   Timestamp
	RespondedAt *Timestamp
}

type ConnectionRepository interface {
	CreateConnection(ctx context.Context, senderID, receiverID int64, message string) (*Connection, error)
	GetConnectionByID(ctx context.Context, id int64) (*Connection, error)
	// ConnectionExists reports a pending or accepted request in either direction.
	ConnectionExists(ctx context.Context, a, b int64) (bool, error)
	UpdateConnectionStatus(ctx context.Context, id int64, status RequestStatus) (*Connection, error)
	ListReceived(ctx context.Context, receiverID int64) ([]*Connection, error)
	ListSent(ctx context.Context, senderID int64) ([]*Connection, error)
	CountConnections(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status RequestStatus) (int, error)
}
