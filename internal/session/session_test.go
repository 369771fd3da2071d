package session

import (
	"context"
	"errors"
	"testing"

	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/internal/kv"
)

// failingStore wraps a MemoryStore and fails selected operations
type failingStore struct {
	*kv.MemoryStore
	getErr    error
	deleteErr map[string]error

	deleteCalls []string
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	f.deleteCalls = append(f.deleteCalls, key)
	if err := f.deleteErr[key]; err != nil {
		return err
	}
	return f.MemoryStore.Delete(ctx, key)
}

func TestStore_SetGet(t *testing.T) {
	s := NewStore(kv.NewMemoryStore(), nil)

	if _, ok := s.Get(); ok {
		t.Fatal("Get() on empty store reported a session")
	}

	user := &domain.User{ID: 3, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Roles: []string{"USER"}}
	if err := s.Set("tok", user); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	sess, ok := s.Get()
	if !ok {
		t.Fatal("Get() after Set reported no session")
	}
	if sess.Token != "tok" {
		t.Errorf("Token = %q, want tok", sess.Token)
	}
	if sess.User == nil || sess.User.ID != 3 || sess.User.Email != "ada@example.com" {
		t.Errorf("User = %+v", sess.User)
	}
	if id, ok := s.UserID(); !ok || id != 3 {
		t.Errorf("UserID() = %d, %v", id, ok)
	}
}

func TestStore_UnreadableUserKeepsToken(t *testing.T) {
	backend := kv.NewMemoryStore()
	backend.Set(context.Background(), KeyToken, "tok")
	backend.Set(context.Background(), KeyUser, "{not json")
	s := NewStore(backend, nil)

	sess, ok := s.Get()
	if !ok {
		t.Fatal("Get() reported no session")
	}
	if sess.User != nil {
		t.Errorf("User = %+v, want nil", sess.User)
	}
	if _, ok := s.UserID(); ok {
		t.Error("UserID() ok with unreadable user")
	}
}

func TestStore_ReadFailureIsLoggedOut(t *testing.T) {
	backend := &failingStore{MemoryStore: kv.NewMemoryStore(), getErr: errors.New("disk gone")}
	s := NewStore(backend, nil)

	if _, ok := s.Get(); ok {
		t.Error("Get() reported a session despite read failure")
	}
	if _, ok := s.Token(); ok {
		t.Error("Token() ok despite read failure")
	}
}

func TestStore_ClearRemovesBothKeys(t *testing.T) {
	backend := kv.NewMemoryStore()
	s := NewStore(backend, nil)
	if err := s.Set("tok", &domain.User{ID: 1}); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	for _, key := range []string{KeyToken, KeyUser} {
		if _, ok, _ := backend.Get(context.Background(), key); ok {
			t.Errorf("%s still stored after Clear", key)
		}
	}
}

func TestStore_ClearAttemptsBothOnFailure(t *testing.T) {
	backend := &failingStore{
		MemoryStore: kv.NewMemoryStore(),
		deleteErr:   map[string]error{KeyToken: errors.New("locked")},
	}
	s := NewStore(backend, nil)

	err := s.Clear()
	if err == nil {
		t.Fatal("Clear() error = nil, want token delete failure")
	}
	if len(backend.deleteCalls) != 2 {
		t.Errorf("deleteCalls = %v, want both keys", backend.deleteCalls)
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore(kv.NewMemoryStore(), nil)

	var events []EventType
	unsubscribe := s.Subscribe(func(e Event) {
		events = append(events, e.Type)
		if e.Type == EventLogin && (e.Session == nil || e.Session.Token != "tok") {
			t.Errorf("login event session = %+v", e.Session)
		}
	})

	s.Set("tok", &domain.User{ID: 1})
	s.Clear()
	unsubscribe()
	unsubscribe()
	s.Set("tok", nil)

	want := []EventType{EventLogin, EventLogout}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestStore_SubscriberCanReadStore(t *testing.T) {
	s := NewStore(kv.NewMemoryStore(), nil)

	var sawToken bool
	s.Subscribe(func(e Event) {
		_, sawToken = s.Token()
	})
	s.Set("tok", nil)

	if !sawToken {
		t.Error("subscriber did not observe the written token")
	}
}
