package http

import (
	"net/http"

	"github.com/utafrali/ecocart/internal/contact"
	"github.com/utafrali/ecocart/pkg/httputil"
)

// SubmitContact handles POST /api/v1/contact
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contact.Input
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	msg, err := h.contact.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusAccepted, msg)
}
