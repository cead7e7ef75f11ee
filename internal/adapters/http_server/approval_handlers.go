package httpserver

import (
	"net/http"
)

// decide handles the approve/reject links from the approval mail. These are
// GETs because they are clicked straight from a mail client.
func (h *Handlers) decide(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		email := r.URL.Query().Get("email")

		d, err := h.Approval.Decide(r.Context(), token, email, approve)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func (h *Handlers) approvalStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.Approval.Status(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(st)})
}

type resendCodeRequest struct {
	Email string `json:"email"`
}

func (h *Handlers) resendCode(w http.ResponseWriter, r *http.Request) {
	var req resendCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.Approval.ResendCode(r.Context(), req.Email); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handlers) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	sess, err := h.Approval.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeErr(w, err)
		return
	}
	// token + user in one payload; the client persists both and redirects once
	writeJSON(w, http.StatusOK, sess)
}
