package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akinfemi/lifeboard/internal/apperr"
	"github.com/akinfemi/lifeboard/internal/auth"
	"github.com/akinfemi/lifeboard/internal/data"
)

// handleRegister creates an account: hashes the password, stores the user,
// returns a JWT token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error("failed to hash password", "error", err)
		writeError(w, err)
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Email, hashed)
	if err != nil {
		s.log.Warn("create user failed", "error", err)
		writeError(w, err)
		return
	}

	token, expiresAt, err := s.auth.GenerateToken(user.ID.Hex(), user.Email)
	if err != nil {
		s.log.Error("failed to generate token", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"msg":       "account created",
		"token":     token,
		"userId":    user.ID.Hex(),
		"expiresAt": expiresAt,
	})
}

// handleLogin authenticates a user and returns a JWT token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, expiresAt, err := s.auth.GenerateToken(user.ID.Hex(), user.Email)
	if err != nil {
		s.log.Error("failed to generate token", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"msg":       "logged in",
		"token":     token,
		"userId":    user.ID.Hex(),
		"expiresAt": expiresAt,
	})
}

// --- messaging ---

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	var req struct {
		To      string `json:"to"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.To == "" {
		writeBadRequest(w, "recipient is required")
		return
	}

	msg, err := s.msgs.Draft(r.Context(), claims.Email, req.To, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"msg": "draft created", "message": msg})
}

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	drafts, err := s.msgs.Drafts(r.Context(), claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "drafts", "messages": emptyIfNil(drafts)})
}

func (s *Server) handleEditDraft(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}
	id := chi.URLParam(r, "id")

	var req struct {
		Content *string `json:"content"`
		To      *string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	// only the draft's author may edit it
	if err := s.msgs.AssertSenderIs(r.Context(), claims.Email, id); err != nil {
		writeError(w, err)
		return
	}

	msg, err := s.msgs.EditDraft(r.Context(), id, req.Content, req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "draft updated", "message": msg})
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	if err := s.msgs.DeleteDraft(r.Context(), claims.Email, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "draft deleted"})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}
	id := chi.URLParam(r, "id")

	var req struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.To == "" {
		writeBadRequest(w, "recipient is required")
		return
	}

	msg, err := s.msgs.Send(r.Context(), id, claims.Email, req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "message sent", "message": msg})
}

func (s *Server) handleListSent(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}
	to := r.URL.Query().Get("to")
	if to == "" {
		writeBadRequest(w, "to query parameter is required")
		return
	}

	msgs, err := s.msgs.Sent(r.Context(), claims.Email, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "sent messages", "messages": emptyIfNil(msgs)})
}

// handleListReceived lists the recipient-side records of messages sent to
// the authenticated user by the sender named in the "from" parameter. The
// (sender, recipient) pair is always named from the original message's
// perspective.
func (s *Server) handleListReceived(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}
	from := r.URL.Query().Get("from")
	if from == "" {
		writeBadRequest(w, "from query parameter is required")
		return
	}

	msgs, err := s.msgs.Received(r.Context(), from, claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "received messages", "messages": emptyIfNil(msgs)})
}

func (s *Server) handleReadMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	msg, err := s.msgs.Read(r.Context(), claims.Email, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "message", "message": msg})
}

func (s *Server) handleEditSent(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}
	id := chi.URLParam(r, "id")

	var req struct {
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Content == nil {
		writeBadRequest(w, "content is required")
		return
	}

	// post-send edits are sender-only
	if err := s.msgs.AssertSenderIs(r.Context(), claims.Email, id); err != nil {
		writeError(w, err)
		return
	}

	msg, err := s.msgs.EditSent(r.Context(), id, *req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "message updated", "message": msg})
}

func (s *Server) handleDeleteSent(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	if err := s.msgs.DeleteSent(r.Context(), claims.Email, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "message deleted"})
}

// --- tasks ---

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	var req struct {
		Title string     `json:"title"`
		DueAt *time.Time `json:"dueAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Title == "" {
		writeBadRequest(w, "title is required")
		return
	}

	task, err := s.tasks.CreateTask(r.Context(), claims.Email, req.Title, req.DueAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"msg": "task created", "task": task})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	tasks, err := s.tasks.ListTasks(r.Context(), claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "tasks", "tasks": emptyIfNil(tasks)})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	var req struct {
		Title *string    `json:"title"`
		Done  *bool      `json:"done"`
		DueAt *time.Time `json:"dueAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	task, err := s.tasks.UpdateTask(r.Context(), claims.Email, chi.URLParam(r, "id"),
		data.TaskUpdate{Title: req.Title, Done: req.Done, DueAt: req.DueAt})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "task updated", "task": task})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	if err := s.tasks.DeleteTask(r.Context(), claims.Email, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "task deleted"})
}

// --- goals ---

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	var req struct {
		Title    string    `json:"title"`
		TargetAt time.Time `json:"targetAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Title == "" {
		writeBadRequest(w, "title is required")
		return
	}

	goal, err := s.goals.CreateGoal(r.Context(), claims.Email, req.Title, req.TargetAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"msg": "goal created", "goal": goal})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	goals, err := s.goals.ListGoals(r.Context(), claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "goals", "goals": emptyIfNil(goals)})
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	var req struct {
		Title    *string    `json:"title"`
		Progress *int       `json:"progress"`
		TargetAt *time.Time `json:"targetAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	goal, err := s.goals.UpdateGoal(r.Context(), claims.Email, chi.URLParam(r, "id"),
		data.GoalUpdate{Title: req.Title, Progress: req.Progress, TargetAt: req.TargetAt})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "goal updated", "goal": goal})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	if err := s.goals.DeleteGoal(r.Context(), claims.Email, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "goal deleted"})
}

// --- profile ---

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "profile", "profile": user})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	var req struct {
		DisplayName *string `json:"displayName"`
		Bio         *string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), claims.Email, req.DisplayName, req.Bio)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "profile updated", "profile": user})
}

// --- shares ---

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	var req struct {
		Grantee    string `json:"grantee"`
		ResourceID string `json:"resourceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Grantee == "" || req.ResourceID == "" {
		writeBadRequest(w, "grantee and resourceId are required")
		return
	}

	// a share only makes sense toward an account that can see it
	exists, err := s.users.UserExists(r.Context(), req.Grantee)
	if err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		writeError(w, apperr.New(apperr.CodeNotFound, "grantee has no account"))
		return
	}

	share, err := s.shares.CreateShare(r.Context(), claims.Email, req.Grantee, req.ResourceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"msg": "share created", "share": share})
}

func (s *Server) handleListShares(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	shares, err := s.shares.ListSharesByOwner(r.Context(), claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "shares", "shares": emptyIfNil(shares)})
}

func (s *Server) handleListSharesReceived(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	shares, err := s.shares.ListSharesForGrantee(r.Context(), claims.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "shares", "shares": emptyIfNil(shares)})
}

func (s *Server) handleDeleteShare(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, "missing auth claims")
		return
	}

	if err := s.shares.DeleteShare(r.Context(), claims.Email, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "share revoked"})
}

// emptyIfNil keeps list responses as [] instead of null.
func emptyIfNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
