package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	server "staybook/internal/adapters/http_server"
	"staybook/internal/app"
	"staybook/internal/domain"
)

// ---- in-memory ports ----

type memStore struct {
	users     map[int64]domain.User
	hotels    map[string]domain.HotelRecord
	approvals map[int64]domain.ApprovalRequest
	bookings  []domain.Booking
	nextID    int64
	lookups   int
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[int64]domain.User{},
		hotels:    map[string]domain.HotelRecord{},
		approvals: map[int64]domain.ApprovalRequest{},
	}
}

func (m *memStore) CreateUser(_ context.Context, u domain.User) (int64, error) {
	m.nextID++
	u.ID = m.nextID
	m.users[u.ID] = u
	return u.ID, nil
}
func (m *memStore) GetUser(_ context.Context, id int64) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}
func (m *memStore) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}
func (m *memStore) UpdateProfile(_ context.Context, id int64, p domain.ProfileUpdate) error {
	u := m.users[id]
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Phone != nil {
		u.Phone = p.Phone
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	m.users[id] = u
	return nil
}
func (m *memStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	u := m.users[id]
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}
func (m *memStore) UpdatePlan(_ context.Context, id int64, plan string) error {
	u := m.users[id]
	u.Plan = plan
	m.users[id] = u
	return nil
}
func (m *memStore) UpdateRole(_ context.Context, id int64, role string) error {
	u := m.users[id]
	u.Role = role
	m.users[id] = u
	return nil
}
func (m *memStore) UpdateImage(_ context.Context, id int64, kind, path string) error { return nil }

func (m *memStore) UpsertHotel(_ context.Context, h domain.HotelRecord) error {
	m.hotels[h.ID] = h
	return nil
}
func (m *memStore) SaveEstimate(_ context.Context, id string, price float64) error { return nil }
func (m *memStore) LogMiss(_ context.Context, q string, st int, r string) error    { return nil }
func (m *memStore) GetHotel(_ context.Context, id string) (domain.HotelRecord, error) {
	h, ok := m.hotels[id]
	if !ok {
		return domain.HotelRecord{}, domain.ErrNotFound
	}
	return h, nil
}
func (m *memStore) ListHotels(_ context.Context, q domain.HotelsQuery) (domain.HotelsPage, error) {
	var out []domain.HotelRecord
	for _, h := range m.hotels {
		out = append(out, h)
	}
	return domain.HotelsPage{Items: out}, nil
}

func (m *memStore) CreateApproval(_ context.Context, a domain.ApprovalRequest) (int64, error) {
	m.lookups++
	m.nextID++
	a.ID = m.nextID
	m.approvals[a.ID] = a
	return a.ID, nil
}
func (m *memStore) GetApprovalByToken(_ context.Context, token string) (domain.ApprovalRequest, error) {
	m.lookups++
	for _, a := range m.approvals {
		if a.Token == token {
			return a, nil
		}
	}
	return domain.ApprovalRequest{}, domain.ErrNotFound
}
func (m *memStore) GetApprovalByEmail(_ context.Context, email string) (domain.ApprovalRequest, error) {
	m.lookups++
	for _, a := range m.approvals {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.ApprovalRequest{}, domain.ErrNotFound
}
func (m *memStore) SetApprovalStatus(_ context.Context, id int64, st domain.ApprovalStatus) error {
	m.lookups++
	a := m.approvals[id]
	a.Status = st
	m.approvals[id] = a
	return nil
}
func (m *memStore) SetApprovalCode(_ context.Context, id int64, code string, exp time.Time) error {
	m.lookups++
	a := m.approvals[id]
	a.Code = &code
	a.CodeExpiresAt = &exp
	m.approvals[id] = a
	return nil
}

func (m *memStore) CreateBooking(_ context.Context, b domain.Booking) (int64, error) {
	m.bookings = append(m.bookings, b)
	return int64(len(m.bookings)), nil
}
func (m *memStore) OverlappingBookings(_ context.Context, hotelID string, in, out time.Time) (int, error) {
	n := 0
	for _, b := range m.bookings {
		if b.HotelID == hotelID && b.CheckIn.Before(out) && b.CheckOut.After(in) {
			n++
		}
	}
	return n, nil
}

type memCache struct{ store map[string][]byte }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *memCache) Set(_ context.Context, key string, v any, _ int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *memCache) Del(_ context.Context, key string) error {
	delete(c.store, key)
	return nil
}

type memMailer struct{ sent int }

func (m *memMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent++
	return nil
}

// ---- harness ----

type harness struct {
	ts    *httptest.Server
	store *memStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemStore()
	cache := &memCache{}
	mailer := &memMailer{}

	approval := app.NewApprovalService(store, store, mailer, cache,
		"http://api.test", "boss@test", 15*time.Minute, time.Hour)
	auth := app.NewAuthService(store, approval, cache, time.Hour, t.TempDir())
	hotels := app.NewHotelService(store, store, cache, time.Minute)
	support := app.NewSupportService(cache, false)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Auth:     auth,
		Hotels:   hotels,
		Approval: approval,
		Support:  support,
	})

	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return &harness{ts: ts, store: store}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

// ---- tests ----

func TestAuthFlowOverHTTP(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@test", "password": "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d: %s", resp.StatusCode, body)
	}
	var reg struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &reg)
	if reg.Token == "" {
		t.Fatal("expected a token")
	}

	resp, body = h.do(t, "GET", "/api/auth/profile", reg.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status %d: %s", resp.StatusCode, body)
	}

	// no token -> problem+json 401
	resp, _ = h.do(t, "GET", "/api/auth/profile", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem+json, got %s", ct)
	}
}

func TestApprovePage_NoParams_NoLookups(t *testing.T) {
	h := newHarness(t)

	before := h.store.lookups
	resp, body := h.do(t, "GET", "/api/admin-approval/approve", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var d struct {
		AlreadyProcessed bool `json:"alreadyProcessed"`
	}
	_ = json.Unmarshal(body, &d)
	if !d.AlreadyProcessed {
		t.Fatalf("expected already-processed, got %s", body)
	}
	if h.store.lookups != before {
		t.Fatal("expected no repository traffic")
	}
}

func TestAdminApprovalOverHTTP(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Bo", "email": "bo@test", "password": "hunter2hunter2", "role": "admin",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d: %s", resp.StatusCode, body)
	}

	resp, body = h.do(t, "GET", "/api/admin-approval/status?email=bo@test", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint %d: %s", resp.StatusCode, body)
	}
	var st struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &st)
	if st.Status != "pending" {
		t.Fatalf("expected pending, got %s", st.Status)
	}

	// approve via the mailed link parameters
	var req domain.ApprovalRequest
	for _, a := range h.store.approvals {
		req = a
	}
	path := fmt.Sprintf("/api/admin-approval/approve?token=%s&email=%s", req.Token, req.Email)
	resp, body = h.do(t, "GET", path, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve %d: %s", resp.StatusCode, body)
	}

	var approved domain.ApprovalRequest
	for _, a := range h.store.approvals {
		approved = a
	}
	resp, body = h.do(t, "POST", "/api/admin-approval/verify-code", "", map[string]string{
		"email": "bo@test", "code": *approved.Code,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify %d: %s", resp.StatusCode, body)
	}
	var sess domain.Session
	_ = json.Unmarshal(body, &sess)
	if sess.Token == "" || sess.User.Role != domain.RoleAdmin {
		t.Fatalf("unexpected session: %s", body)
	}

	// a second verify must not mint another session
	resp, _ = h.do(t, "POST", "/api/admin-approval/verify-code", "", map[string]string{
		"email": "bo@test", "code": *approved.Code,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on re-verify, got %d", resp.StatusCode)
	}
}

func TestGetHotel_ETagRoundTrip(t *testing.T) {
	h := newHarness(t)
	name := "Hotel Unirii"
	price := 300.0
	h.store.hotels["h1"] = domain.HotelRecord{ID: "h1", Name: &name, Price: &price}

	resp, _ := h.do(t, "GET", "/api/hotels/h1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req, _ := http.NewRequest("GET", h.ts.URL+"/api/hotels/h1", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", resp2.StatusCode)
	}
}

func TestBookingOverHTTP(t *testing.T) {
	h := newHarness(t)
	price := 300.0
	h.store.hotels["h1"] = domain.HotelRecord{ID: "h1", Price: &price}

	_, body := h.do(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@test", "password": "hunter2hunter2",
	})
	var reg struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &reg)

	resp, body := h.do(t, "GET", "/api/hotels/h1/availability?check_in=2026-09-10&check_out=2026-09-12", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("availability %d: %s", resp.StatusCode, body)
	}
	var av domain.Availability
	_ = json.Unmarshal(body, &av)
	if !av.Available || av.Total != 200 {
		t.Fatalf("unexpected quote: %+v", av)
	}

	resp, body = h.do(t, "POST", "/api/hotels/h1/payment", reg.Token, map[string]string{
		"checkIn": "2026-09-10", "checkOut": "2026-09-12",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("payment %d: %s", resp.StatusCode, body)
	}

	// same dates again -> conflict
	resp, _ = h.do(t, "POST", "/api/hotels/h1/payment", reg.Token, map[string]string{
		"checkIn": "2026-09-10", "checkOut": "2026-09-12",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	resp, _ = h.do(t, "GET", "/api/hotels/h1/availability?check_in=bad&check_out=2026-09-12", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", resp.StatusCode)
	}
}

func TestMaintenanceStatus(t *testing.T) {
	h := newHarness(t)
	resp, body := h.do(t, "GET", "/api/support/maintenance-status", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var ms struct {
		Maintenance bool `json:"maintenance"`
	}
	_ = json.Unmarshal(body, &ms)
	if ms.Maintenance {
		t.Fatal("expected maintenance off")
	}
}
