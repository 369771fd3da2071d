package api

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/skillswap/client/internal/account"
	"github.com/skillswap/client/internal/auth"
	"github.com/skillswap/client/internal/client"
	"github.com/skillswap/client/internal/connection"
	"github.com/skillswap/client/internal/directory"
	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/internal/editor"
	"github.com/skillswap/client/internal/kv"
	"github.com/skillswap/client/internal/repository"
	"github.com/skillswap/client/internal/session"
	"github.com/skillswap/client/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// HARNESS
// =============================================================================

type testServer struct {
	*httptest.Server
	repo *repository.MemoryRepository
	jwt  *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	auth.Cost = bcrypt.MinCost
	logger := zap.NewNop()
	repo := repository.NewMemoryRepository()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	ts := &testServer{repo: repo, jwt: jwtManager}

	// the handler is bound after the server exists so photo URLs can use its address
	var handler http.Handler
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	photos, err := storage.NewLocalPhotoStorage(t.TempDir(), ts.URL+"/uploads")
	if err != nil {
		t.Fatal(err)
	}

	authService := domain.NewAuthService(repo, jwtManager, nil, true)
	profileService := domain.NewProfileService(repo, repo, photos, logger)
	connectionService := domain.NewConnectionService(repo, repo)

	handler = NewRouter(RouterConfig{
		AuthHandler:       NewAuthHandler(authService, true, logger),
		ProfileHandler:    NewProfileHandler(profileService, logger),
		ConnectionHandler: NewConnectionHandler(connectionService, logger),
		HealthHandler:     NewHealthHandler("test", nil),
		JWTManager:        jwtManager,
		Uploads:           http.FileServer(http.Dir(photos.Dir())),
		Logger:            logger,
	}).Setup()

	return ts
}

// member bundles the client-side packages for one logged-in user
type member struct {
	id          int64
	sessions    *session.Store
	account     *account.Client
	directory   *directory.Client
	connections *connection.Client
	editor      *editor.Editor
}

func (ts *testServer) newMember(t *testing.T) *member {
	t.Helper()
	sessions := session.NewStore(kv.NewMemoryStore(), nil)
	api, err := client.New(ts.URL, sessions)
	if err != nil {
		t.Fatal(err)
	}
	return &member{
		sessions:    sessions,
		account:     account.NewClient(api, sessions, nil),
		directory:   directory.NewClient(api),
		connections: connection.NewClient(api, sessions, nil),
		editor:      editor.New(editor.NewClient(api), nil),
	}
}

// signUp registers, verifies and logs in a member
func (ts *testServer) signUp(t *testing.T, first, last, email string) *member {
	t.Helper()
	ctx := context.Background()
	m := ts.newMember(t)

	if _, err := m.account.Register(ctx, domain.RegisterRequest{
		FirstName: first, LastName: last, Email: email,
		Password: "secret1", ConfirmPassword: "secret1",
	}); err != nil {
		t.Fatalf("Register(%s) error = %v", email, err)
	}

	if _, err := m.account.Login(ctx, email, "secret1"); !client.IsValidation(err) {
		t.Fatalf("Login before verification err = %v, want validation", err)
	}

	token, ok := ts.repo.VerificationToken(email)
	if !ok {
		t.Fatalf("no verification token for %s", email)
	}
	if _, err := m.account.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}

	user, err := m.account.Login(ctx, email, "secret1")
	if err != nil {
		t.Fatalf("Login(%s) error = %v", email, err)
	}
	m.id = user.ID
	return m
}

func (m *member) editProfile(t *testing.T, fn func(e *editor.Editor)) {
	t.Helper()
	ctx := context.Background()
	if _, err := m.editor.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := m.editor.Edit(); err != nil {
		t.Fatal(err)
	}
	fn(m.editor)
	if err := m.editor.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

// =============================================================================
// TESTS
// =============================================================================

func TestE2E_DirectorySearch(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	ada := ts.signUp(t, "Ada", "Lovelace", "ada@example.com")
	ada.editProfile(t, func(e *editor.Editor) {
		e.SetAvailability("weekend")
		e.AddSkillOffered("React")
		e.SetLocation("London")
	})
	bob := ts.signUp(t, "Bob", "Builder", "bob@example.com")
	bob.editProfile(t, func(e *editor.Editor) {
		e.SetAvailability("weekend")
		e.AddSkillWanted("react native")
	})
	carol := ts.signUp(t, "Carol", "Shaw", "carol@example.com")
	carol.editProfile(t, func(e *editor.Editor) {
		e.SetAvailability("working")
		e.AddSkillOffered("React")
	})

	listing, err := ada.directory.ListProfiles(ctx, directory.Query{Page: 0, Size: 6, Search: "react", Availability: "weekend"})
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}

	if len(listing.Items) != 2 || listing.TotalElements != 2 || listing.TotalPages != 1 {
		t.Fatalf("listing = %+v", listing)
	}
	for _, card := range listing.Items {
		if card.Availability != "weekend" || card.Photo != domain.PlaceholderPhotoURL {
			t.Errorf("card = %+v", card)
		}
	}
	got := directory.Summary(false, len(listing.Items), listing.TotalElements, "react")
	if want := "Showing 2 of 2 professionals matching “react”"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	all, err := ada.directory.ListProfiles(ctx, directory.Query{Page: 0, Size: 2})
	if err != nil {
		t.Fatal(err)
	}
	if all.TotalElements != 3 || all.TotalPages != 2 || len(all.Items) != 2 {
		t.Errorf("unfiltered listing = %+v", all)
	}
}

func TestE2E_ConnectionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	ada := ts.signUp(t, "Ada", "Lovelace", "ada@example.com")
	bob := ts.signUp(t, "Bob", "Builder", "bob@example.com")
	carol := ts.signUp(t, "Carol", "Shaw", "carol@example.com")

	// ARRANGE: two requests waiting for Ada
	res, err := bob.connections.SendRequest(ctx, ada.id, "Teach me math?")
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if res.Message != "Connection request sent successfully to Ada Lovelace" {
		t.Errorf("Message = %q", res.Message)
	}
	if _, err := carol.connections.SendRequest(ctx, ada.id, ""); err != nil {
		t.Fatal(err)
	}

	_, err = bob.connections.SendRequest(ctx, ada.id, "again")
	if !client.IsValidation(err) || err.Error() != domain.ErrConnectionExists.Error() {
		t.Errorf("duplicate request err = %v", err)
	}
	if _, err := bob.connections.SendRequest(ctx, bob.id, ""); !errors.Is(err, connection.ErrSelfRequest) {
		t.Errorf("self request err = %v", err)
	}

	received, err := ada.connections.ListReceived(ctx)
	if err != nil {
		t.Fatalf("ListReceived() error = %v", err)
	}
	if len(received) != 2 {
		t.Fatalf("received %d requests, want 2", len(received))
	}
	var fromBob, fromCarol int64
	for _, r := range received {
		switch r.SenderID {
		case bob.id:
			fromBob = r.ID
		case carol.id:
			fromCarol = r.ID
		}
	}

	// ACT
	if _, err := ada.connections.Respond(ctx, fromBob, domain.DecisionAccept); err != nil {
		t.Fatalf("Respond(accept) error = %v", err)
	}

	// ASSERT: only the accepted request changed, locally and on the server
	reloaded, err := ada.connections.ListReceived(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range reloaded {
		want := domain.RequestStatusPending
		if r.ID == fromBob {
			want = domain.RequestStatusAccepted
		}
		if r.Status != want {
			t.Errorf("request %d status = %s, want %s", r.ID, r.Status, want)
		}
	}

	// a second answer is rejected and the cache reflects the server
	_, err = ada.connections.Respond(ctx, fromBob, domain.DecisionDecline)
	if !client.IsValidation(err) || err.Error() != domain.ErrRequestProcessed.Error() {
		t.Errorf("second respond err = %v", err)
	}
	for _, r := range ada.connections.Requests() {
		if r.ID == fromBob && r.Status != domain.RequestStatusAccepted {
			t.Errorf("cache shows %s after rejected decline", r.Status)
		}
	}

	// only the receiver may answer
	if _, err := bob.connections.ListReceived(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := bob.connections.Respond(ctx, fromCarol, domain.DecisionAccept); !client.IsValidation(err) {
		t.Errorf("non-receiver respond err = %v", err)
	}

	sent, err := bob.connections.ListSent(ctx)
	if err != nil || len(sent) != 1 || sent[0].Status != domain.RequestStatusAccepted {
		t.Errorf("ListSent() = %+v, %v", sent, err)
	}

	stats, err := ada.directory.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.SuccessfulMatches != 1 || stats.TotalConnectionRequests != 2 || stats.ActiveMembers != 3 {
		t.Errorf("stats = %+v", stats)
	}

	profile, err := ada.directory.GetProfile(ctx, bob.id)
	if err != nil {
		t.Fatal(err)
	}
	if profile.CompletedSwaps != 1 {
		t.Errorf("bob completed swaps = %d, want 1", profile.CompletedSwaps)
	}
}

func TestE2E_LogoutRequiresLogin(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	ada := ts.signUp(t, "Ada", "Lovelace", "ada@example.com")
	bob := ts.signUp(t, "Bob", "Builder", "bob@example.com")

	if err := ada.account.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := ada.sessions.Get(); ok {
		t.Error("session survived logout")
	}
	if _, err := ada.connections.SendRequest(ctx, bob.id, "hi"); !errors.Is(err, client.ErrLoginRequired) {
		t.Errorf("SendRequest after logout err = %v", err)
	}
}

func TestE2E_RejectedTokenIsUnauthorized(t *testing.T) {
	ts := newTestServer(t)
	m := ts.newMember(t)
	if err := m.sessions.Set("not-a-jwt", &domain.User{ID: 1}); err != nil {
		t.Fatal(err)
	}

	_, err := m.connections.ListReceived(context.Background())
	if !client.IsUnauthorized(err) {
		t.Errorf("err = %v, want unauthorized", err)
	}
}

func TestE2E_EditorAndPhoto(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ada := ts.signUp(t, "Ada", "Lovelace", "ada@example.com")

	ada.editProfile(t, func(e *editor.Editor) {
		e.SetBio("Poet of numbers")
		e.AddSkillOffered("Math")
		e.AddSkillOffered(" math ")
		e.SetPublic(false)
	})

	me, err := ada.editor.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if me.Bio != "Poet of numbers" || len(me.SkillsOffered) != 1 || me.IsProfilePublic {
		t.Errorf("profile after save = %+v", me)
	}

	// private profiles leave the directory
	if _, err := ada.directory.GetProfile(ctx, ada.id); !client.IsNetwork(err) {
		t.Errorf("GetProfile(private) err = %v", err)
	}

	var img bytes.Buffer
	if err := png.Encode(&img, imaging.New(1600, 1200, color.NRGBA{G: 255, A: 255})); err != nil {
		t.Fatal(err)
	}
	url, err := ada.editor.UploadPhoto(ctx, "me.png", &img)
	if err != nil {
		t.Fatalf("UploadPhoto() error = %v", err)
	}
	if !strings.HasPrefix(url, ts.URL+"/uploads/") || !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("photo url = %q", url)
	}

	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET photo status = %d", resp.StatusCode)
	}
}

func TestE2E_Rate(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ada := ts.signUp(t, "Ada", "Lovelace", "ada@example.com")
	bob := ts.signUp(t, "Bob", "Builder", "bob@example.com")

	if err := bob.directory.Rate(ctx, ada.id, 4, "patient and clear"); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if err := bob.directory.Rate(ctx, bob.id, 5, ""); !client.IsValidation(err) {
		t.Errorf("self rating err = %v", err)
	}

	card, err := bob.directory.GetProfile(ctx, ada.id)
	if err != nil {
		t.Fatal(err)
	}
	if card.Rating != 4 || card.TotalReviews != 1 {
		t.Errorf("card = %+v", card)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/health/", "/health/ready", "/health/live"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d", path, resp.StatusCode)
		}
	}
}
