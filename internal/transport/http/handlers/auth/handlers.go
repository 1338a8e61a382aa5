package authhandler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"crm/internal/domain/audit"
	"crm/internal/domain/auth"
	"crm/internal/transport/http/api"
	"crm/internal/transport/http/middleware"
	"crm/internal/transport/http/shared"
)

type Service interface {
	Login(ctx context.Context, email, password string) (string, *auth.User, error)
	CreateUser(ctx context.Context, input auth.CreateUserInput) (*auth.User, error)
	GetUser(ctx context.Context, id string) (*auth.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*auth.User, error)
}

type Handler struct {
	Service Service
	Audit   shared.Auditor
}

func NewHandler(service Service, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

// RegisterRoutes mounts the authenticated account routes. Login is mounted
// separately because it runs before the auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/me", h.HandleMe)
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireCapability(auth.CapUsersManage))
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	token, user, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
			return
		}
		shared.FailInternal(w, r, "login_failed", "login failed", err)
		return
	}
	api.Success(w, loginResponse{Token: token, User: user}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	user, err := h.Service.GetUser(r.Context(), actor.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "user no longer exists", middleware.GetRequestID(r.Context()))
			return
		}
		shared.FailInternal(w, r, "user_lookup_failed", "failed to load user", err)
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	users, err := h.Service.ListUsers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		shared.FailInternal(w, r, "user_list_failed", "failed to list users", err)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())

	var payload auth.CreateUserInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, r, err)
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("name", payload.Name, "is required")
	v.Required("role", payload.Role, "is required")
	if len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	user, err := h.Service.CreateUser(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidRole):
			api.Fail(w, http.StatusBadRequest, "invalid_role", "unknown role "+strings.TrimSpace(payload.Role), middleware.GetRequestID(r.Context()))
		case errors.Is(err, auth.ErrEmailTaken):
			api.Fail(w, http.StatusConflict, "email_taken", "email already registered", middleware.GetRequestID(r.Context()))
		default:
			shared.FailInternal(w, r, "user_create_failed", "failed to create user", err)
		}
		return
	}

	shared.RecordAudit(r, h.Audit, actor.UserID, audit.ActionUserCreate, "user", user.ID, nil, user)
	api.Created(w, user, middleware.GetRequestID(r.Context()))
}
