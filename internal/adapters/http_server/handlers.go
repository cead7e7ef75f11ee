package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"staybook/internal/app"
	"staybook/internal/domain"
)

type Handlers struct {
	Auth     *app.AuthService
	Hotels   *app.HotelService
	Places   *app.PlacesService
	Approval *app.ApprovalService
	Support  *app.SupportService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const genericErrMsg = "Something went wrong. Please try again."

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/logout", h.requireUser(h.logout))
			r.Post("/change-password", h.requireUser(h.changePassword))
			r.Post("/change-subscription", h.requireUser(h.changeSubscription))
			r.Get("/profile", h.requireUser(h.getProfile))
			r.Put("/profile", h.requireUser(h.updateProfile))
			r.Post("/upload-profile-image", h.requireUser(h.uploadImage("profile")))
			r.Post("/upload-cover-image", h.requireUser(h.uploadImage("cover")))
		})

		r.Route("/admin-approval", func(r chi.Router) {
			r.Get("/approve", h.decide(true))
			r.Get("/reject", h.decide(false))
			r.Get("/status", h.approvalStatus)
			r.Post("/resend-code", h.resendCode)
			r.Post("/verify-code", h.verifyCode)
		})

		r.Route("/places", func(r chi.Router) {
			r.Post("/search-nearby", h.searchNearby)
			r.Post("/search-text", h.searchText)
			r.Get("/media/*", h.media)
		})

		r.Route("/hotels", func(r chi.Router) {
			r.Get("/", h.listHotels)
			r.Post("/", h.requireUser(h.createHotel))
			r.Get("/{id}", h.getHotel)
			r.Get("/{id}/availability", h.availability)
			r.Post("/{id}/payment", h.requireUser(h.payment))
		})

		r.Get("/support/maintenance-status", h.maintenanceStatus)
	})
}

// ---- shared plumbing ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeErr maps domain sentinels onto statuses. Client errors carry the
// server-side message; everything unexpected collapses to the generic
// fallback so internals never leak.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		writeProblem(w, http.StatusConflict, "Unavailable", "the selected dates are no longer available")
	case errors.Is(err, domain.ErrCodeExpired):
		writeProblem(w, http.StatusGone, "Code Expired", "the verification code expired, request a new one")
	case errors.Is(err, domain.ErrUpstreamDown):
		writeProblem(w, http.StatusBadGateway, "Upstream Unavailable", genericErrMsg)
	default:
		log.Error().Err(err).Msg("unhandled handler error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", genericErrMsg)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrValidation
	}
	return nil
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- auth plumbing ----

type ctxKey int

const userCtxKey ctxKey = iota

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

func (h *Handlers) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.Auth.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userCtxKey, u)))
	}
}

func currentUser(r *http.Request) domain.User {
	u, _ := r.Context().Value(userCtxKey).(domain.User)
	return u
}

// ---- hotels ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	q := domain.HotelsQuery{Limit: 50}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		q.Limit = l
	}
	if v := r.URL.Query().Get("city"); v != "" {
		q.City = &v
	}
	if v := r.URL.Query().Get("country"); v != "" {
		q.Country = &v
	}
	if v := r.URL.Query().Get("q"); v != "" {
		q.Q = &v
	}

	out, err := h.Hotels.ListHotels(r.Context(), q)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Hotels.GetHotel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}

	etag, body := calcETagAndBody(resp)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

type createHotelRequest struct {
	Name             string   `json:"name"`
	Price            *float64 `json:"price,omitempty"`
	Types            []string `json:"types,omitempty"`
	FormattedAddress *string  `json:"formattedAddress,omitempty"`
	City             *string  `json:"city,omitempty"`
	Country          *string  `json:"country,omitempty"`
	Images           []string `json:"images,omitempty"`
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var in createHotelRequest
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	rec := domain.HotelRecord{
		Name:             &in.Name,
		Price:            in.Price,
		Types:            in.Types,
		FormattedAddress: in.FormattedAddress,
		City:             in.City,
		Country:          in.Country,
		Images:           in.Images,
	}
	out, err := h.Hotels.CreateUserHotel(r.Context(), currentUser(r).ID, rec)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, domain.ErrValidation
	}
	return t, nil
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	in, err := parseDate(r.URL.Query().Get("check_in"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "check_in must be YYYY-MM-DD")
		return
	}
	out, err := parseDate(r.URL.Query().Get("check_out"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "check_out must be YYYY-MM-DD")
		return
	}
	av, err := h.Hotels.Availability(r.Context(), chi.URLParam(r, "id"), in, out)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, av)
}

type paymentRequest struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

func (h *Handlers) payment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	in, err := parseDate(req.CheckIn)
	if err != nil {
		writeErr(w, err)
		return
	}
	out, err := parseDate(req.CheckOut)
	if err != nil {
		writeErr(w, err)
		return
	}
	b, err := h.Hotels.Pay(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"), in, out)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// ---- places ----

type nearbyRequest struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius float64 `json:"radius"`
}

func (h *Handlers) searchNearby(w http.ResponseWriter, r *http.Request) {
	var req nearbyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Radius <= 0 {
		req.Radius = 1500
	}
	out, err := h.Places.SearchNearby(r.Context(), req.Lat, req.Lng, req.Radius)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type textSearchRequest struct {
	Query string `json:"query"`
}

func (h *Handlers) searchText(w http.ResponseWriter, r *http.Request) {
	var req textSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	out, err := h.Places.SearchText(r.Context(), req.Query)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) media(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "*")
	data, ctype, err := h.Places.Media(r.Context(), ref)
	if err != nil {
		writeErr(w, err)
		return
	}
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("failed to write media body")
	}
}

// ---- support ----

func (h *Handlers) maintenanceStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Support.MaintenanceStatus(r.Context()))
}
