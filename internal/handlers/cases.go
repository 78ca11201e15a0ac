package handlers

import (
	"net/http"

	"github.com/strayaid-systems/strayaid/internal/identity"
	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/pkg/httputil"
	"github.com/strayaid-systems/strayaid/pkg/logging"
)

// SubmitReportHandler handles POST /api/v1/reports
func (h *Handler) SubmitReportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	if !id.Can(identity.CapSubmitReport) {
		httputil.WriteError(w, http.StatusForbidden, "role cannot submit reports")
		return
	}

	var req models.SubmitReportRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	kase, err := h.svc.SubmitReport(r.Context(), id.ID, &req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "report submitted",
		logging.CaseID(kase.ID), logging.CaseRef(kase.Ref), logging.ReporterID(id.ID))
	httputil.WriteJSON(w, http.StatusCreated, kase)
}

// CasesHandler handles GET /api/v1/cases
func (h *Handler) CasesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	req := &models.ListCasesRequest{
		State:   r.URL.Query().Get("state"),
		Urgency: r.URL.Query().Get("urgency"),
		Limit:   httputil.QueryInt(r, "limit", 50),
		Offset:  httputil.QueryInt(r, "offset", 0),
	}

	// Citizens see only their own cases. Responders can filter to theirs.
	if !id.IsResponder() {
		req.ReporterID = id.ID
	} else if r.URL.Query().Get("mine") == "true" {
		req.ResponderID = id.ID
	}

	cases, err := h.svc.ListCases(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"cases": cases,
		"count": len(cases),
	})
}

// CaseHandler handles GET /api/v1/cases/{id}, where id is the internal
// identifier or the DOG###### display reference.
func (h *Handler) CaseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := h.requireIdentity(w, r); !ok {
		return
	}

	caseID := caseIDFromPath(r.URL.Path)
	if caseID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "case id is required")
		return
	}

	kase, err := h.svc.GetCase(r.Context(), caseID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, kase)
}

// HistoryHandler handles GET /api/v1/cases/{id}/history
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := h.requireIdentity(w, r); !ok {
		return
	}

	transitions, err := h.svc.ListTransitions(r.Context(), caseIDFromPath(r.URL.Path))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"history": transitions})
}

// AssignmentsHandler handles GET /api/v1/cases/{id}/assignments
func (h *Handler) AssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := h.requireIdentity(w, r); !ok {
		return
	}

	assignments, err := h.svc.ListAssignments(r.Context(), caseIDFromPath(r.URL.Path))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"assignments": assignments})
}

// AcceptHandler handles POST /api/v1/cases/{id}/accept
func (h *Handler) AcceptHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireResponderAction(w, r)
	if !ok {
		return
	}

	kase, err := h.svc.Accept(r.Context(), caseIDFromPath(r.URL.Path), id.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "case accepted",
		logging.CaseID(kase.ID), logging.ResponderID(id.ID))
	httputil.WriteJSON(w, http.StatusOK, kase)
}

// DeclineHandler handles POST /api/v1/cases/{id}/decline
func (h *Handler) DeclineHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireResponderAction(w, r)
	if !ok {
		return
	}

	var req models.DeclineAssignmentRequest
	if r.ContentLength > 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "declined by responder"
	}

	caseID := caseIDFromPath(r.URL.Path)
	if err := h.svc.Decline(r.Context(), caseID, id.ID, req.Reason); err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

// StartHandler handles POST /api/v1/cases/{id}/start
func (h *Handler) StartHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireResponderAction(w, r)
	if !ok {
		return
	}

	kase, err := h.svc.Start(r.Context(), caseIDFromPath(r.URL.Path), id.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, kase)
}

// ResolveHandler handles POST /api/v1/cases/{id}/resolve
func (h *Handler) ResolveHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireIdentityForMethod(w, r, http.MethodPost)
	if !ok {
		return
	}
	if !id.Can(identity.CapResolveCase) {
		httputil.WriteError(w, http.StatusForbidden, "role cannot resolve cases")
		return
	}

	var req models.ResolveCaseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	kase, err := h.svc.Resolve(r.Context(), caseIDFromPath(r.URL.Path), id.ID, req.Note)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "case resolved",
		logging.CaseID(kase.ID), logging.ResponderID(id.ID))
	httputil.WriteJSON(w, http.StatusOK, kase)
}

// WithdrawHandler handles POST /api/v1/cases/{id}/withdraw
func (h *Handler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireIdentityForMethod(w, r, http.MethodPost)
	if !ok {
		return
	}
	if !id.Can(identity.CapWithdrawCase) {
		httputil.WriteError(w, http.StatusForbidden, "role cannot withdraw cases")
		return
	}

	kase, err := h.svc.Withdraw(r.Context(), caseIDFromPath(r.URL.Path), id.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, kase)
}

// CloseHandler handles POST /api/v1/cases/{id}/close
func (h *Handler) CloseHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireIdentityForMethod(w, r, http.MethodPost)
	if !ok {
		return
	}

	kase, err := h.svc.Close(r.Context(), caseIDFromPath(r.URL.Path), id.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, kase)
}

// ReopenHandler handles POST /api/v1/cases/{id}/reopen
func (h *Handler) ReopenHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireIdentityForMethod(w, r, http.MethodPost)
	if !ok {
		return
	}

	kase, err := h.svc.Reopen(r.Context(), caseIDFromPath(r.URL.Path), id.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, kase)
}

// requireResponderAction gates POST-only endpoints that need the
// accept-assignment capability.
func (h *Handler) requireResponderAction(w http.ResponseWriter, r *http.Request) (*identity.Identity, bool) {
	id, ok := h.requireIdentityForMethod(w, r, http.MethodPost)
	if !ok {
		return nil, false
	}
	if !id.Can(identity.CapAcceptAssignment) {
		httputil.WriteError(w, http.StatusForbidden, "role cannot hold assignments")
		return nil, false
	}
	return id, true
}

func (h *Handler) requireIdentityForMethod(w http.ResponseWriter, r *http.Request, method string) (*identity.Identity, bool) {
	if r.Method != method {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	return h.requireIdentity(w, r)
}
