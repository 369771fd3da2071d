package domain

import (
	"context"
	"errors"
)

type ConnectionService struct {
	repo     ConnectionRepository
	accounts AccountRepository
}

func NewConnectionService(repo ConnectionRepository, accounts AccountRepository) *ConnectionService {
	return &ConnectionService{
		repo:     repo,
		accounts: accounts,
	}
}

// SendRequest creates a pending request and returns the receiver's display name
func (s *ConnectionService) SendRequest(ctx context.Context, senderID int64, body ConnectionRequestBody) (string, error) {
	if senderID == body.ReceiverID {
		return "", ErrSelfConnection
	}

	receiver, err := s.accounts.GetAccountByID(ctx, body.ReceiverID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrReceiverNotFound
		}
		return "", err
	}
	if !receiver.IsProfilePublic || !receiver.EmailVerified {
		return "", ErrReceiverUnavailable
	}

	exists, err := s.repo.ConnectionExists(ctx, senderID, body.ReceiverID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrConnectionExists
	}

	if _, err := s.repo.CreateConnection(ctx, senderID, body.ReceiverID, body.Message); err != nil {
		return "", err
	}
	return receiver.Identity().DisplayName(), nil
}

// Respond applies the receiver's decision to a pending request
func (s *ConnectionService) Respond(ctx context.Context, userID, requestID int64, decision Decision) (*Connection, error) {
	conn, err := s.repo.GetConnectionByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if conn.ReceiverID != userID {
		return nil, ErrNotRequestReceiver
	}

	next := decision.Status()
	if !conn.Status.CanTransition(next) {
		return nil, ErrRequestProcessed
	}

	updated, err := s.repo.UpdateConnectionStatus(ctx, requestID, next)
	if err != nil {
		return nil, err
	}

	if next == RequestStatusAccepted {
		if err := s.accounts.IncrementCompletedSwaps(ctx, conn.SenderID, conn.ReceiverID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Received lists requests addressed to the member, newest first
func (s *ConnectionService) Received(ctx context.Context, userID int64) ([]ConnectionRequest, error) {
	conns, err := s.repo.ListReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, conns)
}

// Sent lists requests the member sent, newest first
func (s *ConnectionService) Sent(ctx context.Context, userID int64) ([]ConnectionRequest, error) {
	conns, err := s.repo.ListSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.expand(ctx, conns)
}

func (s *ConnectionService) expand(ctx context.Context, conns []*Connection) ([]ConnectionRequest, error) {
	profiles := make(map[int64]Profile)
	lookup := func(id int64) (Profile, error) {
		if p, ok := profiles[id]; ok {
			return p, nil
		}
		account, err := s.accounts.GetAccountByID(ctx, id)
		if err != nil {
			return Profile{}, err
		}
		p := account.PublicProfile()
		profiles[id] = p
		return p, nil
	}

	out := make([]ConnectionRequest, 0, len(conns))
	for _, c := range conns {
		sender, err := lookup(c.SenderID)
		if err != nil {
			return nil, err
		}
		receiver, err := lookup(c.ReceiverID)
		if err != nil {
			return nil, err
		}
		out = append(out, ConnectionRequest{
			ID:          c.ID,
			Sender:      sender,
			Receiver:    receiver,
			Message:     c.Message,
			Status:      c.Status,
			CreatedAt:   c.CreatedAt,
			RespondedAt: c.RespondedAt,
		})
	}
	return out, nil
}
