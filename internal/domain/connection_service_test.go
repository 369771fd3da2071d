package domain

import (
	"context"
	"errors"
	"testing"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================

type mockConnectionRepository struct {
	createFn func(ctx context.Context, senderID, receiverID int64, message string) (*Connection, error)
	getFn    func(ctx context.Context, id int64) (*Connection, error)
	existsFn func(ctx context.Context, a, b int64) (bool, error)
	updateFn func(ctx context.Context, id int64, status RequestStatus) (*Connection, error)

	createCalls []int64
	updateCalls []RequestStatus
}

func (m *mockConnectionRepository) CreateConnection(ctx context.Context, senderID, receiverID int64, message string) (*Connection, error) {
	m.createCalls = append(m.createCalls, receiverID)
	if m.createFn != nil {
		return m.createFn(ctx, senderID, receiverID, message)
	}
	return &Connection{ID: 1, SenderID: senderID, ReceiverID: receiverID, Status: RequestStatusPending}, nil
}

func (m *mockConnectionRepository) GetConnectionByID(ctx context.Context, id int64) (*Connection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, ErrRequestNotFound
}

func (m *mockConnectionRepository) ConnectionExists(ctx context.Context, a, b int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, a, b)
	}
	return false, nil
}

func (m *mockConnectionRepository) UpdateConnectionStatus(ctx context.Context, id int64, status RequestStatus) (*Connection, error) {
	m.updateCalls = append(m.updateCalls, status)
	if m.updateFn != nil {
		return m.updateFn(ctx, id, status)
	}
	return &Connection{ID: id, Status: status}, nil
}

func (m *mockConnectionRepository) ListReceived(ctx context.Context, receiverID int64) ([]*Connection, error) {
	return nil, nil
}

func (m *mockConnectionRepository) ListSent(ctx context.Context, senderID int64) ([]*Connection, error) {
	return nil, nil
}

func (m *mockConnectionRepository) CountConnections(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *mockConnectionRepository) CountByStatus(ctx context.Context, status RequestStatus) (int, error) {
	return 0, nil
}

// mockAccountRepository serves accounts from a map; unused methods fail loudly
type mockAccountRepository struct {
	AccountRepository

	accounts       map[int64]*Account
	swapIncrements []int64
}

func (m *mockAccountRepository) GetAccountByID(ctx context.Context, id int64) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return a, nil
}

func (m *mockAccountRepository) IncrementCompletedSwaps(ctx context.Context, ids ...int64) error {
	m.swapIncrements = append(m.swapIncrements, ids...)
	return nil
}

func newAccounts() *mockAccountRepository {
	return &mockAccountRepository{accounts: map[int64]*Account{
		1: {Profile: Profile{ID: 1, FirstName: "Ada", LastName: "Lovelace", IsProfilePublic: true}, EmailVerified: true},
		2: {Profile: Profile{ID: 2, FirstName: "Alan", LastName: "Turing", IsProfilePublic: true}, EmailVerified: true},
		3: {Profile: Profile{ID: 3, FirstName: "Hidden", LastName: "Member", IsProfilePublic: false}, EmailVerified: true},
	}}
}

// =============================================================================
// SEND REQUEST TESTS
// =============================================================================

func TestConnectionService_SendRequest_Success(t *testing.T) {
	// ARRANGE
	repo := &mockConnectionRepository{}
	svc := NewConnectionService(repo, newAccounts())

	// ACT
	name, err := svc.SendRequest(context.Background(), 1, ConnectionRequestBody{ReceiverID: 2, Message: "hi"})

	// ASSERT
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if name != "Alan Turing" {
		t.Errorf("receiver name = %q, want %q", name, "Alan Turing")
	}
	if len(repo.createCalls) != 1 || repo.createCalls[0] != 2 {
		t.Errorf("createCalls = %v, want [2]", repo.createCalls)
	}
}

func TestConnectionService_SendRequest_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		receiver int64
		exists   bool
		wantErr  error
	}{
		{"self", 1, false, ErrSelfConnection},
		{"unknown receiver", 99, false, ErrReceiverNotFound},
		{"private receiver", 3, false, ErrReceiverUnavailable},
		{"duplicate", 2, true, ErrConnectionExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockConnectionRepository{
				existsFn: func(ctx context.Context, a, b int64) (bool, error) { return tt.exists, nil },
			}
			svc := NewConnectionService(repo, newAccounts())

			_, err := svc.SendRequest(context.Background(), 1, ConnectionRequestBody{ReceiverID: tt.receiver})

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if len(repo.createCalls) != 0 {
				t.Errorf("CreateConnection called %d times, want 0", len(repo.createCalls))
			}
		})
	}
}

// =============================================================================
// RESPOND TESTS
// =============================================================================

func TestConnectionService_Respond(t *testing.T) {
	pending := func(ctx context.Context, id int64) (*Connection, error) {
		return &Connection{ID: id, SenderID: 1, ReceiverID: 2, Status: RequestStatusPending}, nil
	}

	t.Run("accept increments swaps", func(t *testing.T) {
		repo := &mockConnectionRepository{getFn: pending}
		accounts := newAccounts()
		svc := NewConnectionService(repo, accounts)

		conn, err := svc.Respond(context.Background(), 2, 10, DecisionAccept)
		if err != nil {
			t.Fatalf("Respond() error = %v", err)
		}
		if conn.Status != RequestStatusAccepted {
			t.Errorf("status = %s, want ACCEPTED", conn.Status)
		}
		if len(accounts.swapIncrements) != 2 {
			t.Errorf("swapIncrements = %v, want both members", accounts.swapIncrements)
		}
	})

	t.Run("decline leaves swaps", func(t *testing.T) {
		repo := &mockConnectionRepository{getFn: pending}
		accounts := newAccounts()
		svc := NewConnectionService(repo, accounts)

		conn, err := svc.Respond(context.Background(), 2, 10, DecisionDecline)
		if err != nil {
			t.Fatalf("Respond() error = %v", err)
		}
		if conn.Status != RequestStatusDeclined {
			t.Errorf("status = %s, want DECLINED", conn.Status)
		}
		if len(accounts.swapIncrements) != 0 {
			t.Errorf("swapIncrements = %v, want none", accounts.swapIncrements)
		}
	})

	t.Run("only receiver may respond", func(t *testing.T) {
		repo := &mockConnectionRepository{getFn: pending}
		svc := NewConnectionService(repo, newAccounts())

		_, err := svc.Respond(context.Background(), 1, 10, DecisionAccept)
		if !errors.Is(err, ErrNotRequestReceiver) {
			t.Errorf("err = %v, want ErrNotRequestReceiver", err)
		}
		if len(repo.updateCalls) != 0 {
			t.Errorf("UpdateConnectionStatus called %d times", len(repo.updateCalls))
		}
	})

	t.Run("answered only once", func(t *testing.T) {
		repo := &mockConnectionRepository{
			getFn: func(ctx context.Context, id int64) (*Connection, error) {
				return &Connection{ID: id, SenderID: 1, ReceiverID: 2, Status: RequestStatusAccepted}, nil
			},
		}
		svc := NewConnectionService(repo, newAccounts())

		_, err := svc.Respond(context.Background(), 2, 10, DecisionDecline)
		if !errors.Is(err, ErrRequestProcessed) {
			t.Errorf("err = %v, want ErrRequestProcessed", err)
		}
	})
}

func TestRequestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		want     bool
	}{
		{RequestStatusPending, RequestStatusAccepted, true},
		{RequestStatusPending, RequestStatusDeclined, true},
		{RequestStatusPending, RequestStatusPending, false},
		{RequestStatusAccepted, RequestStatusDeclined, false},
		{RequestStatusDeclined, RequestStatusAccepted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s.CanTransition(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
