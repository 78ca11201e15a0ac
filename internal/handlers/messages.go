package handlers

import (
	"net/http"
	"strconv"

	"github.com/strayaid-systems/strayaid/internal/models"
	"github.com/strayaid-systems/strayaid/pkg/httputil"
	"github.com/strayaid-systems/strayaid/pkg/logging"
)

// MessagesHandler handles /api/v1/cases/{id}/messages:
// GET lists messages from ?from_seq, POST appends one.
func (h *Handler) MessagesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listMessages(w, r)
	case http.MethodPost:
		h.appendMessage(w, r)
	default:
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireIdentity(w, r); !ok {
		return
	}

	var fromSeq uint64 = 1
	if v := r.URL.Query().Get("from_seq"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid from_seq")
			return
		}
		fromSeq = n
	}
	limit := httputil.QueryInt(r, "limit", 100)

	messages, err := h.svc.ListMessages(r.Context(), caseIDFromPath(r.URL.Path), fromSeq, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}

func (h *Handler) appendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req models.AppendMessageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.svc.AppendMessage(r.Context(), caseIDFromPath(r.URL.Path), id.ID, &req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "message appended",
		logging.ThreadID(msg.ThreadID), logging.Seq(msg.Seq))
	httputil.WriteJSON(w, http.StatusCreated, msg)
}

// MarkReadHandler handles POST /api/v1/cases/{id}/messages/read
func (h *Handler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireIdentityForMethod(w, r, http.MethodPost)
	if !ok {
		return
	}

	var req models.MarkReadRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.MarkRead(r.Context(), caseIDFromPath(r.URL.Path), id.ID, req.Seq); err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UnreadHandler handles GET /api/v1/cases/{id}/messages/unread
func (h *Handler) UnreadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	unread, err := h.svc.Unread(r.Context(), caseIDFromPath(r.URL.Path), id.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]uint64{"unread": unread})
}
