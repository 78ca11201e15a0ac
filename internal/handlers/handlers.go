// Package handlers provides HTTP handlers for the coordination API.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/strayaid-systems/strayaid/internal/conversation"
	"github.com/strayaid-systems/strayaid/internal/dispatch"
	"github.com/strayaid-systems/strayaid/internal/identity"
	"github.com/strayaid-systems/strayaid/internal/repository"
	"github.com/strayaid-systems/strayaid/internal/service"
	"github.com/strayaid-systems/strayaid/pkg/httputil"
	"github.com/strayaid-systems/strayaid/pkg/logging"
)

// Handler holds the HTTP handlers for the coordination API.
type Handler struct {
	svc      *service.Service
	verifier *identity.Verifier
	logger   *logging.Logger
}

// New creates a Handler. verifier may be nil, in which case identity comes
// from X-User-ID / X-User-Role headers (development and tests only).
func New(svc *service.Service, verifier *identity.Verifier, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, verifier: verifier, logger: logger}
}

// requireIdentity extracts the caller's identity from the bearer token.
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (*identity.Identity, bool) {
	if h.verifier == nil {
		id := r.Header.Get("X-User-ID")
		if id == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "authentication required")
			return nil, false
		}
		return &identity.Identity{ID: id, Role: r.Header.Get("X-User-Role")}, true
	}

	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		httputil.WriteError(w, http.StatusUnauthorized, "bearer token required")
		return nil, false
	}

	id, err := h.verifier.Verify(strings.TrimSpace(authz[len("Bearer "):]))
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
		return nil, false
	}
	return id, true
}

// HealthCheck handles GET /healthz
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyCheck handles GET /readyz
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": err.Error(),
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// caseIDFromPath extracts the case ID segment from /api/v1/cases/{id}[/...].
func caseIDFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/cases/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// writeDomainError maps engine errors onto HTTP statuses. Losing a race is a
// 409 with a named code, never a 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, dispatch.ErrResolutionNoteRequired),
		errors.Is(err, conversation.ErrInvalidMessage):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrCaseNotFound),
		errors.Is(err, repository.ErrAssignmentNotFound),
		errors.Is(err, repository.ErrBadCaseRef):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dispatch.ErrProposalConflict):
		httputil.WriteConflict(w, "proposal_conflict", err.Error())
	case errors.Is(err, dispatch.ErrStaleProposal):
		httputil.WriteConflict(w, "stale_proposal", err.Error())
	case errors.Is(err, dispatch.ErrInvalidTransition):
		httputil.WriteConflict(w, "invalid_transition", err.Error())
	case errors.Is(err, service.ErrNoPendingProposal):
		httputil.WriteConflict(w, "no_pending_proposal", err.Error())
	case errors.Is(err, conversation.ErrThreadClosed):
		httputil.WriteConflict(w, "thread_closed", err.Error())
	case errors.Is(err, dispatch.ErrNotAssignmentHolder),
		errors.Is(err, conversation.ErrNotParticipant):
		httputil.WriteError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("request failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
