package httpserver

import (
	"io"
	"net/http"

	"staybook/internal/domain"
)

const maxImageBytes = 8 << 20

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type registerResponse struct {
	User            domain.User `json:"user"`
	Token           string      `json:"token,omitempty"`
	PendingApproval bool        `json:"pendingApproval,omitempty"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	user, sess, err := h.Auth.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := registerResponse{User: user}
	if sess != nil {
		resp.Token = sess.Token
	} else {
		resp.PendingApproval = true
	}
	writeJSON(w, http.StatusCreated, resp)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	sess, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), bearerToken(r)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.Auth.ChangePassword(r.Context(), currentUser(r).ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type changeSubscriptionRequest struct {
	Plan string `json:"plan"`
}

func (h *Handlers) changeSubscription(w http.ResponseWriter, r *http.Request) {
	var req changeSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.Auth.ChangeSubscription(r.Context(), currentUser(r).ID, req.Plan); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"plan": req.Plan})
}

func (h *Handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Profile(r.Context(), currentUser(r).ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Bio   *string `json:"bio,omitempty"`
}

func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	u, err := h.Auth.UpdateProfile(r.Context(), currentUser(r).ID, domain.ProfileUpdate{
		Name: req.Name, Phone: req.Phone, Bio: req.Bio,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// uploadImage accepts a multipart "image" part for either kind of image.
func (h *Handlers) uploadImage(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "expected a multipart form with an image part")
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", "image part is missing")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
		if err != nil {
			writeErr(w, err)
			return
		}
		path, err := h.Auth.SaveImage(r.Context(), currentUser(r).ID, kind, header.Filename, data)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"path": path})
	}
}
