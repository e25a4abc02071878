package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/akinfemi/lifeboard/internal/apperr"
	"github.com/akinfemi/lifeboard/internal/auth"
	"github.com/akinfemi/lifeboard/internal/data"
	"github.com/akinfemi/lifeboard/internal/messaging"
	"github.com/akinfemi/lifeboard/internal/normalize"
)

// fakeUsers provides the subset of UsersStore the handlers use.
type fakeUsers struct {
	users map[string]*data.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[string]*data.User{}} }

func (f *fakeUsers) CreateUser(_ context.Context, email, hashedPassword string) (*data.User, error) {
	email = normalize.Email(email)
	if _, ok := f.users[email]; ok {
		return nil, apperr.New(apperr.CodeConflict, "user already exists")
	}
	u := &data.User{ID: bson.NewObjectID(), Email: email, Password: hashedPassword, CreatedAt: time.Now()}
	f.users[email] = u
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*data.User, error) {
	u, ok := f.users[normalize.Email(email)]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "user not found")
	}
	return u, nil
}

func (f *fakeUsers) UserExists(_ context.Context, email string) (bool, error) {
	_, ok := f.users[normalize.Email(email)]
	return ok, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, email string, displayName, bio *string) (*data.User, error) {
	u, ok := f.users[normalize.Email(email)]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "user not found")
	}
	if displayName != nil {
		u.DisplayName = *displayName
	}
	if bio != nil {
		u.Bio = *bio
	}
	return u, nil
}

// fakeTasks provides the subset of TasksStore the handlers use.
type fakeTasks struct {
	tasks map[string]*data.Task
}

func newFakeTasks() *fakeTasks { return &fakeTasks{tasks: map[string]*data.Task{}} }

func (f *fakeTasks) CreateTask(_ context.Context, owner, title string, due *time.Time) (*data.Task, error) {
	t := &data.Task{ID: bson.NewObjectID(), Owner: normalize.Email(owner), Title: title, DueAt: due, CreatedAt: time.Now()}
	f.tasks[t.ID.Hex()] = t
	return t, nil
}

func (f *fakeTasks) ListTasks(_ context.Context, owner string) ([]*data.Task, error) {
	var out []*data.Task
	for _, t := range f.tasks {
		if t.Owner == normalize.Email(owner) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTasks) UpdateTask(_ context.Context, owner, id string, u data.TaskUpdate) (*data.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "task not found")
	}
	if t.Owner != normalize.Email(owner) {
		return nil, apperr.New(apperr.CodeForbidden, "not the owner of this task")
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Done != nil {
		t.Done = *u.Done
	}
	return t, nil
}

func (f *fakeTasks) DeleteTask(_ context.Context, owner, id string) error {
	t, ok := f.tasks[id]
	if !ok {
		return apperr.New(apperr.CodeNotFound, "task not found")
	}
	if t.Owner != normalize.Email(owner) {
		return apperr.New(apperr.CodeForbidden, "not the owner of this task")
	}
	delete(f.tasks, id)
	return nil
}

// fakeGoals and fakeShares are no-op stands-ins for handlers not under test.
type fakeGoals struct{}

func (fakeGoals) CreateGoal(context.Context, string, string, time.Time) (*data.Goal, error) {
	return &data.Goal{}, nil
}
func (fakeGoals) ListGoals(context.Context, string) ([]*data.Goal, error) { return nil, nil }
func (fakeGoals) UpdateGoal(context.Context, string, string, data.GoalUpdate) (*data.Goal, error) {
	return nil, apperr.New(apperr.CodeNotFound, "goal not found")
}
func (fakeGoals) DeleteGoal(context.Context, string, string) error {
	return apperr.New(apperr.CodeNotFound, "goal not found")
}

type fakeShares struct{}

func (fakeShares) CreateShare(context.Context, string, string, string) (*data.Share, error) {
	return &data.Share{}, nil
}
func (fakeShares) ListSharesByOwner(context.Context, string) ([]*data.Share, error)   { return nil, nil }
func (fakeShares) ListSharesForGrantee(context.Context, string) ([]*data.Share, error) { return nil, nil }
func (fakeShares) DeleteShare(context.Context, string, string) error {
	return apperr.New(apperr.CodeNotFound, "share not found")
}

func newTestServer(t *testing.T) (*Server, http.Handler, *auth.JWTManager) {
	t.Helper()
	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)
	engine := messaging.NewEngine(messaging.NewMemoryStore(), nil)
	srv := newServer(nil, newFakeUsers(), newFakeTasks(), fakeGoals{}, fakeShares{}, engine, jwtMgr)
	return srv, srv.routes(nil), jwtMgr
}

func doJSON(t *testing.T, h http.Handler, mgr *auth.JWTManager, method, path, email string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if email != "" {
		token, _, err := mgr.GenerateToken("uid-"+email, email)
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestAuthRequired(t *testing.T) {
	_, h, mgr := newTestServer(t)

	rec, _ := doJSON(t, h, mgr, http.MethodGet, "/v1/messages/drafts", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/messages/drafts", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec2.Code)
	}
}

func TestMessageLifecycleOverHTTP(t *testing.T) {
	_, h, mgr := newTestServer(t)

	// alice drafts a message to bob
	rec, body := doJSON(t, h, mgr, http.MethodPost, "/v1/messages/drafts", "alice@example.com",
		map[string]string{"to": "bob@example.com", "content": "hi"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("draft: expected 201, got %d (%v)", rec.Code, body)
	}
	id := body["message"].(map[string]any)["id"].(string)

	// it shows up in her drafts
	rec, body = doJSON(t, h, mgr, http.MethodGet, "/v1/messages/drafts", "alice@example.com", nil)
	if rec.Code != http.StatusOK || len(body["messages"].([]any)) != 1 {
		t.Fatalf("listDrafts: code=%d body=%v", rec.Code, body)
	}

	// bob cannot edit alice's draft
	rec, _ = doJSON(t, h, mgr, http.MethodPatch, "/v1/messages/drafts/"+id, "bob@example.com",
		map[string]string{"content": "hijacked"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign editDraft: expected 403, got %d", rec.Code)
	}

	// alice sends it
	rec, _ = doJSON(t, h, mgr, http.MethodPost, "/v1/messages/drafts/"+id+"/send", "alice@example.com",
		map[string]string{"to": "bob@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("send: expected 200, got %d", rec.Code)
	}

	// sending again conflicts
	rec, _ = doJSON(t, h, mgr, http.MethodPost, "/v1/messages/drafts/"+id+"/send", "alice@example.com",
		map[string]string{"to": "bob@example.com"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("double send: expected 409, got %d", rec.Code)
	}

	// both views see the text
	rec, body = doJSON(t, h, mgr, http.MethodGet, "/v1/messages/sent?to=bob@example.com", "alice@example.com", nil)
	if rec.Code != http.StatusOK || len(body["messages"].([]any)) != 1 {
		t.Fatalf("listSent: code=%d body=%v", rec.Code, body)
	}
	rec, body = doJSON(t, h, mgr, http.MethodGet, "/v1/messages/received?from=alice@example.com", "bob@example.com", nil)
	if rec.Code != http.StatusOK || len(body["messages"].([]any)) != 1 {
		t.Fatalf("listReceived: code=%d body=%v", rec.Code, body)
	}
	recvID := body["messages"].([]any)[0].(map[string]any)["id"].(string)
	if recvID == id {
		t.Fatal("recipient copy must have its own id")
	}

	// a third party cannot read it
	rec, _ = doJSON(t, h, mgr, http.MethodGet, "/v1/messages/"+id, "mallory@example.com", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign read: expected 403, got %d", rec.Code)
	}

	// bob can read his copy but not edit it
	rec, _ = doJSON(t, h, mgr, http.MethodGet, "/v1/messages/"+recvID, "bob@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read own copy: expected 200, got %d", rec.Code)
	}
	rec, _ = doJSON(t, h, mgr, http.MethodPatch, "/v1/messages/"+id, "bob@example.com",
		map[string]string{"content": "tampered"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("recipient edit: expected 403, got %d", rec.Code)
	}

	// alice edits the sent message; the recipient copy follows
	rec, _ = doJSON(t, h, mgr, http.MethodPatch, "/v1/messages/"+id, "alice@example.com",
		map[string]string{"content": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("editSent: expected 200, got %d", rec.Code)
	}
	rec, body = doJSON(t, h, mgr, http.MethodGet, "/v1/messages/received?from=alice@example.com", "bob@example.com", nil)
	got := body["messages"].([]any)[0].(map[string]any)["content"].(string)
	if rec.Code != http.StatusOK || got != "hello" {
		t.Fatalf("mirror content = %q, want hello (code %d)", got, rec.Code)
	}

	// alice deletes; both halves disappear
	rec, _ = doJSON(t, h, mgr, http.MethodDelete, "/v1/messages/"+id, "alice@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deleteSent: expected 200, got %d", rec.Code)
	}
	rec, body = doJSON(t, h, mgr, http.MethodGet, "/v1/messages/sent?to=bob@example.com", "alice@example.com", nil)
	if len(body["messages"].([]any)) != 0 {
		t.Fatalf("sent list not empty after delete: %v", body)
	}
	rec, body = doJSON(t, h, mgr, http.MethodGet, "/v1/messages/received?from=alice@example.com", "bob@example.com", nil)
	if len(body["messages"].([]any)) != 0 {
		t.Fatalf("received list not empty after delete: %v", body)
	}
}

func TestUnknownMessageIs404(t *testing.T) {
	_, h, mgr := newTestServer(t)

	rec, _ := doJSON(t, h, mgr, http.MethodGet, "/v1/messages/does-not-exist", "alice@example.com", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDraftDelete(t *testing.T) {
	_, h, mgr := newTestServer(t)

	_, body := doJSON(t, h, mgr, http.MethodPost, "/v1/messages/drafts", "alice@example.com",
		map[string]string{"to": "bob@example.com", "content": "scratch"})
	id := body["message"].(map[string]any)["id"].(string)

	rec, _ := doJSON(t, h, mgr, http.MethodDelete, "/v1/messages/drafts/"+id, "bob@example.com", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign deleteDraft: expected 403, got %d", rec.Code)
	}

	rec, _ = doJSON(t, h, mgr, http.MethodDelete, "/v1/messages/drafts/"+id, "alice@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deleteDraft: expected 200, got %d", rec.Code)
	}

	rec, body = doJSON(t, h, mgr, http.MethodGet, "/v1/messages/drafts", "alice@example.com", nil)
	if len(body["messages"].([]any)) != 0 {
		t.Fatalf("drafts not empty after delete: %v", body)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	_, h, mgr := newTestServer(t)

	rec, body := doJSON(t, h, mgr, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"email": "new@example.com", "password": "hunter2"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%v)", rec.Code, body)
	}
	if body["token"] == "" {
		t.Fatal("register did not return a token")
	}

	rec, _ = doJSON(t, h, mgr, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"email": "new@example.com", "password": "hunter2"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}

	rec, body = doJSON(t, h, mgr, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"email": "new@example.com", "password": "hunter2"})
	if rec.Code != http.StatusOK || body["token"] == "" {
		t.Fatalf("login: code=%d body=%v", rec.Code, body)
	}

	rec, _ = doJSON(t, h, mgr, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"email": "new@example.com", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rec.Code)
	}
}

func TestProfileUpdate(t *testing.T) {
	srv, h, mgr := newTestServer(t)

	// seed the account directly through the fake store
	if _, err := srv.users.CreateUser(context.Background(), "pat@example.com", "hashed"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	rec, body := doJSON(t, h, mgr, http.MethodPatch, "/v1/profile", "pat@example.com",
		map[string]string{"displayName": "Pat"})
	if rec.Code != http.StatusOK {
		t.Fatalf("updateProfile: expected 200, got %d (%v)", rec.Code, body)
	}
	if body["profile"].(map[string]any)["displayName"] != "Pat" {
		t.Fatalf("displayName not updated: %v", body)
	}

	rec, body = doJSON(t, h, mgr, http.MethodGet, "/v1/profile", "pat@example.com", nil)
	if rec.Code != http.StatusOK || body["profile"].(map[string]any)["displayName"] != "Pat" {
		t.Fatalf("getProfile: code=%d body=%v", rec.Code, body)
	}
}

func TestCreateShareRequiresGranteeAccount(t *testing.T) {
	srv, h, mgr := newTestServer(t)

	rec, _ := doJSON(t, h, mgr, http.MethodPost, "/v1/shares", "alice@example.com",
		map[string]string{"grantee": "ghost@example.com", "resourceId": "res-1"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("share to unknown grantee: expected 404, got %d", rec.Code)
	}

	if _, err := srv.users.CreateUser(context.Background(), "bob@example.com", "hashed"); err != nil {
		t.Fatalf("seed grantee: %v", err)
	}
	rec, _ = doJSON(t, h, mgr, http.MethodPost, "/v1/shares", "alice@example.com",
		map[string]string{"grantee": "bob@example.com", "resourceId": "res-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("share to existing grantee: expected 201, got %d", rec.Code)
	}
}

func TestTaskEndpoints(t *testing.T) {
	_, h, mgr := newTestServer(t)

	rec, body := doJSON(t, h, mgr, http.MethodPost, "/v1/tasks", "alice@example.com",
		map[string]string{"title": "water plants"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("createTask: expected 201, got %d", rec.Code)
	}
	id := body["task"].(map[string]any)["id"].(string)

	rec, _ = doJSON(t, h, mgr, http.MethodPatch, "/v1/tasks/"+id, "bob@example.com",
		map[string]any{"done": true})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign updateTask: expected 403, got %d", rec.Code)
	}

	rec, body = doJSON(t, h, mgr, http.MethodPatch, "/v1/tasks/"+id, "alice@example.com",
		map[string]any{"done": true})
	if rec.Code != http.StatusOK || body["task"].(map[string]any)["done"] != true {
		t.Fatalf("updateTask: code=%d body=%v", rec.Code, body)
	}

	rec, _ = doJSON(t, h, mgr, http.MethodDelete, "/v1/tasks/"+id, "alice@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deleteTask: expected 200, got %d", rec.Code)
	}
}
