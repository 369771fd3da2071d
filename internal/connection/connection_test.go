package connection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/skillswap/client/internal/client"
	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/internal/kv"
	"github.com/skillswap/client/internal/session"
)

// fakeBackend serves the connection endpoints from an in-memory list
type fakeBackend struct {
	mu       sync.Mutex
	requests []domain.ConnectionRequest
	calls    int32
	// rejectRespond makes accept/decline fail with this message
	rejectRespond string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/connections/received":
		json.NewEncoder(w).Encode(f.requests)
	case r.Method == http.MethodGet && r.URL.Path == "/api/connections/sent":
		w.Write([]byte(`[]`))
	case r.Method == http.MethodPost && r.URL.Path == "/api/connections/request":
		var body domain.ConnectionRequestBody
		json.NewDecoder(r.Body).Decode(&body)
		if body.ReceiverID == 3 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success":false,"message":"Connection request already exists or you are already connected"}`))
			return
		}
		w.Write([]byte(`{"success":true,"message":"Connection request sent successfully to Alan Turing"}`))
	case r.Method == http.MethodPut:
		if f.rejectRespond != "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(domain.APIResponse{Success: false, Message: f.rejectRespond})
			return
		}
		// /api/connections/{id}/{action}
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/connections/"), "/")
		if len(parts) != 2 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		action := parts[1]
		for i := range f.requests {
			if f.requests[i].ID == id {
				if action == "accept" {
					f.requests[i].Status = domain.RequestStatusAccepted
				} else {
					f.requests[i].Status = domain.RequestStatusDeclined
				}
			}
		}
		w.Write([]byte(`{"success":true,"message":"Connection request accepted successfully"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeBackend) setStatus(id int64, status domain.RequestStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.requests {
		if f.requests[i].ID == id {
			f.requests[i].Status = status
		}
	}
}

func pending(id, sender int64) domain.ConnectionRequest {
	return domain.ConnectionRequest{
		ID:        id,
		Sender:    domain.Profile{ID: sender, FirstName: "Sender", LastName: "Number"},
		Receiver:  domain.Profile{ID: 1, FirstName: "Ada", LastName: "Lovelace"},
		Message:   "Let's swap!",
		Status:    domain.RequestStatusPending,
		CreatedAt: domain.Now(),
	}
}

func setup(t *testing.T, loggedIn bool) (*Client, *fakeBackend, *session.Store) {
	t.Helper()
	backend := &fakeBackend{requests: []domain.ConnectionRequest{pending(10, 2), pending(11, 3), pending(12, 4)}}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := session.NewStore(kv.NewMemoryStore(), nil)
	if loggedIn {
		if err := store.Set("tok", &domain.User{ID: 1, FirstName: "Ada"}); err != nil {
			t.Fatal(err)
		}
	}
	api, err := client.New(srv.URL, store)
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(api, store, nil), backend, store
}

func TestSendRequest_RequiresSession(t *testing.T) {
	c, backend, _ := setup(t, false)

	_, err := c.SendRequest(context.Background(), 2, "hi")

	if !errors.Is(err, client.ErrLoginRequired) {
		t.Fatalf("err = %v, want ErrLoginRequired", err)
	}
	if n := atomic.LoadInt32(&backend.calls); n != 0 {
		t.Errorf("backend called %d times, want 0", n)
	}
}

func TestSendRequest_AfterLogoutRequiresLogin(t *testing.T) {
	c, backend, store := setup(t, true)
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}

	_, err := c.SendRequest(context.Background(), 2, "hi")

	if !errors.Is(err, client.ErrLoginRequired) {
		t.Fatalf("err = %v, want ErrLoginRequired", err)
	}
	if n := atomic.LoadInt32(&backend.calls); n != 0 {
		t.Errorf("backend called %d times, want 0", n)
	}
}

func TestSendRequest_SelfIsRejectedLocally(t *testing.T) {
	c, backend, _ := setup(t, true)

	_, err := c.SendRequest(context.Background(), 1, "")

	if !errors.Is(err, ErrSelfRequest) || !client.IsValidation(err) {
		t.Fatalf("err = %v, want ErrSelfRequest", err)
	}
	if n := atomic.LoadInt32(&backend.calls); n != 0 {
		t.Errorf("backend called %d times, want 0", n)
	}
}

func TestSendRequest(t *testing.T) {
	c, _, _ := setup(t, true)

	res, err := c.SendRequest(context.Background(), 2, "  hello  ")
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if res.Message != "Connection request sent successfully to Alan Turing" {
		t.Errorf("Message = %q", res.Message)
	}

	_, err = c.SendRequest(context.Background(), 3, "")
	if !client.IsValidation(err) {
		t.Fatalf("duplicate err = %v, want validation", err)
	}
	if err.Error() != "Connection request already exists or you are already connected" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRespond_AcceptThenReload(t *testing.T) {
	c, _, _ := setup(t, true)
	ctx := context.Background()

	if _, err := c.ListReceived(ctx); err != nil {
		t.Fatalf("ListReceived() error = %v", err)
	}
	if _, err := c.Respond(ctx, 11, domain.DecisionAccept); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	assertStatuses(t, c.Requests(), map[int64]domain.RequestStatus{
		10: domain.RequestStatusPending,
		11: domain.RequestStatusAccepted,
		12: domain.RequestStatusPending,
	})

	reloaded, err := c.ListReceived(ctx)
	if err != nil {
		t.Fatalf("ListReceived() error = %v", err)
	}
	assertStatuses(t, reloaded, map[int64]domain.RequestStatus{
		10: domain.RequestStatusPending,
		11: domain.RequestStatusAccepted,
		12: domain.RequestStatusPending,
	})
}

func TestRespond_FailureReloadsServerState(t *testing.T) {
	c, backend, _ := setup(t, true)
	ctx := context.Background()

	if _, err := c.ListReceived(ctx); err != nil {
		t.Fatal(err)
	}
	// answered from another device in the meantime
	backend.setStatus(10, domain.RequestStatusDeclined)
	backend.rejectRespond = "This request has already been processed"

	_, err := c.Respond(ctx, 10, domain.DecisionAccept)

	if !client.IsValidation(err) || err.Error() != "This request has already been processed" {
		t.Fatalf("err = %v, want backend message", err)
	}
	assertStatuses(t, c.Requests(), map[int64]domain.RequestStatus{
		10: domain.RequestStatusDeclined,
		11: domain.RequestStatusPending,
		12: domain.RequestStatusPending,
	})
}

func TestRespond_RequiresSession(t *testing.T) {
	c, backend, _ := setup(t, false)

	if _, err := c.Respond(context.Background(), 10, domain.DecisionDecline); !errors.Is(err, client.ErrLoginRequired) {
		t.Fatalf("err = %v, want ErrLoginRequired", err)
	}
	if n := atomic.LoadInt32(&backend.calls); n != 0 {
		t.Errorf("backend called %d times", n)
	}
}

func TestListReceived_Normalizes(t *testing.T) {
	c, _, _ := setup(t, true)

	items, err := c.ListReceived(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	first := items[0]
	if first.SenderID != 2 || first.ReceiverID != 1 {
		t.Errorf("ids = %d -> %d", first.SenderID, first.ReceiverID)
	}
	if first.Sender.Name != "Sender Number" || first.Sender.Photo != domain.PlaceholderPhotoURL {
		t.Errorf("sender card = %+v", first.Sender)
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatedAt not decoded")
	}
}

func assertStatuses(t *testing.T, items []Request, want map[int64]domain.RequestStatus) {
	t.Helper()
	if len(items) != len(want) {
		t.Fatalf("got %d requests, want %d", len(items), len(want))
	}
	for _, r := range items {
		if r.Status != want[r.ID] {
			t.Errorf("request %d status = %s, want %s", r.ID, r.Status, want[r.ID])
		}
	}
}
