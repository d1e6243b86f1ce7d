package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/doctorportal/internal/config"
	"github.com/geocoder89/doctorportal/internal/domain/user"
	"github.com/geocoder89/doctorportal/internal/http/middlewares"
	"github.com/geocoder89/doctorportal/internal/observability"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	List(ctx context.Context) ([]user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpsertProfile(ctx context.Context, email string, profile user.Profile) (user.UpdateResult, error)
	SetRole(ctx context.Context, email, role string) (user.UpdateResult, error)
}

type TokenIssuer interface {
	GenerateAccessToken(email string) (string, error)
}

type UsersHandler struct {
	repo        UserStore
	tokens      TokenIssuer
	issuePolicy string
	prom        *observability.Prom
}

func NewUsersHandler(repo UserStore, tokens TokenIssuer, issuePolicy string, prom *observability.Prom) *UsersHandler {
	if issuePolicy == "" {
		issuePolicy = config.IssuePolicySession
	}
	return &UsersHandler{repo: repo, tokens: tokens, issuePolicy: issuePolicy, prom: prom}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := storeContext(ctx)
	defer cancel()

	users, err := h.repo.List(cctx)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "users.list_failed", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersHandler) AdminStatus(ctx *gin.Context) {
	email := ctx.Param("email")

	cctx, cancel := storeContext(ctx)
	defer cancel()

	u, err := h.repo.GetByEmail(cctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		slog.Default().ErrorContext(ctx.Request.Context(), "users.get_failed", "err", err)
		RespondInternal(ctx, "Could not check admin status")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"admin": u.IsAdmin()})
}

// SaveProfile upserts the caller's profile and returns a fresh access token.
// Under the session policy a token is only minted for the holder of a session
// for the same email, or for an email that has no profile yet.
func (h *UsersHandler) SaveProfile(ctx *gin.Context) {
	email := ctx.Param("email")

	var profile user.Profile
	if !BindJSON(ctx, &profile) {
		return
	}

	if err := profile.Validate(); err != nil {
		RespondBadRequest(ctx, "Invalid profile", gin.H{"reason": err.Error()})
		return
	}

	cctx, cancel := storeContext(ctx)
	defer cancel()

	if h.issuePolicy == config.IssuePolicySession && !h.authorizeIssue(ctx, cctx, email) {
		return
	}

	result, err := h.repo.UpsertProfile(cctx, email, profile)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "users.upsert_failed", "err", err)
		RespondInternal(ctx, "Could not save profile")
		return
	}

	token, err := h.tokens.GenerateAccessToken(email)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "users.token_failed", "err", err)
		RespondInternal(ctx, "Could not issue token")
		return
	}
	h.prom.ObserveTokenIssued()

	ctx.JSON(http.StatusOK, gin.H{
		"result": result,
		"token":  token,
	})
}

// authorizeIssue writes the error response itself and reports whether the
// request may continue.
func (h *UsersHandler) authorizeIssue(ctx *gin.Context, cctx context.Context, email string) bool {
	if caller, ok := middlewares.EmailFromContext(ctx); ok {
		if caller != email {
			RespondForbidden(ctx, "Token does not belong to this email")
			return false
		}
		return true
	}

	_, err := h.repo.GetByEmail(cctx, email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		return true
	case err != nil:
		slog.Default().ErrorContext(ctx.Request.Context(), "users.get_failed", "err", err)
		RespondInternal(ctx, "Could not save profile")
		return false
	default:
		RespondUnAuthorized(ctx, "Sign in to update an existing profile")
		return false
	}
}

// PromoteAdmin runs behind RequireAdmin, so the caller is already known to be
// an admin here.
func (h *UsersHandler) PromoteAdmin(ctx *gin.Context) {
	target := ctx.Param("email")

	cctx, cancel := storeContext(ctx)
	defer cancel()

	result, err := h.repo.SetRole(cctx, target, user.RoleAdmin)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "users.promote_failed", "err", err)
		RespondInternal(ctx, "Could not promote user")
		return
	}

	if result.MatchedCount == 0 {
		RespondNotFound(ctx, "User not found")
		return
	}

	caller, _ := middlewares.EmailFromContext(ctx)
	slog.Default().InfoContext(ctx.Request.Context(), "users.promoted", "target", target, "by", caller)

	ctx.JSON(http.StatusOK, result)
}
