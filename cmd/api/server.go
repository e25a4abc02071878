package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akinfemi/lifeboard/internal/auth"
	"github.com/akinfemi/lifeboard/internal/data"
	"github.com/akinfemi/lifeboard/internal/messaging"
	"github.com/akinfemi/lifeboard/internal/middleware"
)

// UsersStore is the subset of the users store the handlers use.
type UsersStore interface {
	CreateUser(ctx context.Context, email, hashedPassword string) (*data.User, error)
	GetUserByEmail(ctx context.Context, email string) (*data.User, error)
	UserExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, email string, displayName, bio *string) (*data.User, error)
}

// TasksStore is the subset of the tasks store the handlers use.
type TasksStore interface {
	CreateTask(ctx context.Context, owner, title string, due *time.Time) (*data.Task, error)
	ListTasks(ctx context.Context, owner string) ([]*data.Task, error)
	UpdateTask(ctx context.Context, owner, id string, u data.TaskUpdate) (*data.Task, error)
	DeleteTask(ctx context.Context, owner, id string) error
}

// GoalsStore is the subset of the goals store the handlers use.
type GoalsStore interface {
	CreateGoal(ctx context.Context, owner, title string, targetAt time.Time) (*data.Goal, error)
	ListGoals(ctx context.Context, owner string) ([]*data.Goal, error)
	UpdateGoal(ctx context.Context, owner, id string, u data.GoalUpdate) (*data.Goal, error)
	DeleteGoal(ctx context.Context, owner, id string) error
}

// SharesStore is the subset of the shares store the handlers use.
type SharesStore interface {
	CreateShare(ctx context.Context, owner, grantee, resourceID string) (*data.Share, error)
	ListSharesByOwner(ctx context.Context, owner string) ([]*data.Share, error)
	ListSharesForGrantee(ctx context.Context, grantee string) ([]*data.Share, error)
	DeleteShare(ctx context.Context, owner, id string) error
}

// Server holds the stores, the messaging engine and the auth manager, and
// implements every HTTP handler.
type Server struct {
	log    *slog.Logger
	users  UsersStore
	tasks  TasksStore
	goals  GoalsStore
	shares SharesStore
	msgs   *messaging.Engine
	auth   *auth.JWTManager
}

// newServer returns a ready-to-use Server wired with stores and auth manager.
func newServer(logger *slog.Logger, users UsersStore, tasks TasksStore, goals GoalsStore, shares SharesStore, msgs *messaging.Engine, authMgr *auth.JWTManager) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		log:    logger,
		users:  users,
		tasks:  tasks,
		goals:  goals,
		shares: shares,
		msgs:   msgs,
		auth:   authMgr,
	}
}

// routes builds the chi router. Register and login are the only routes
// outside the auth wall; they carry the rate limiter instead.
func (s *Server) routes(limiter *middleware.LimiterStore) chi.Router {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(middleware.RateLimit(limiter))
			}
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/messages/drafts", s.handleCreateDraft)
			r.Get("/messages/drafts", s.handleListDrafts)
			r.Patch("/messages/drafts/{id}", s.handleEditDraft)
			r.Delete("/messages/drafts/{id}", s.handleDeleteDraft)
			r.Post("/messages/drafts/{id}/send", s.handleSend)
			r.Get("/messages/sent", s.handleListSent)
			r.Get("/messages/received", s.handleListReceived)
			r.Get("/messages/{id}", s.handleReadMessage)
			r.Patch("/messages/{id}", s.handleEditSent)
			r.Delete("/messages/{id}", s.handleDeleteSent)

			r.Post("/tasks", s.handleCreateTask)
			r.Get("/tasks", s.handleListTasks)
			r.Patch("/tasks/{id}", s.handleUpdateTask)
			r.Delete("/tasks/{id}", s.handleDeleteTask)

			r.Post("/goals", s.handleCreateGoal)
			r.Get("/goals", s.handleListGoals)
			r.Patch("/goals/{id}", s.handleUpdateGoal)
			r.Delete("/goals/{id}", s.handleDeleteGoal)

			r.Get("/profile", s.handleGetProfile)
			r.Patch("/profile", s.handleUpdateProfile)

			r.Post("/shares", s.handleCreateShare)
			r.Get("/shares", s.handleListShares)
			r.Get("/shares/received", s.handleListSharesReceived)
			r.Delete("/shares/{id}", s.handleDeleteShare)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
