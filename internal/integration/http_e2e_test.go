//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "staybook/internal/adapters/http_server"
	redisad "staybook/internal/adapters/redis"
	"staybook/internal/app"
	"staybook/internal/domain"
	mysqlrepo "staybook/internal/storage/mysql"
)

// ---------- helpers ----------
func pstr(s string) *string     { return &s }
func pfloat(f float64) *float64 { return &f }

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("migrations dir %s is missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

type logMailer struct{}

func (logMailer) Send(context.Context, string, string, string) error { return nil }

// ---------- the test ----------
func TestHTTP_EndToEnd_BrowseAndBook(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=staybook",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "staybook")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	approval := app.NewApprovalService(repo, repo, logMailer{}, cache,
		"http://api.test", "approver@test", 15*time.Minute, time.Hour)
	auth := app.NewAuthService(repo, approval, cache, time.Hour, t.TempDir())
	hotels := app.NewHotelService(repo, repo, cache, time.Minute)
	support := app.NewSupportService(cache, false)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{
		Auth: auth, Hotels: hotels, Approval: approval, Support: support,
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)

	// Seed a trusted-price hotel straight through the repo.
	h := domain.HotelRecord{
		ID:      "ChIJe2e1",
		Name:    pstr("Hotel Unirii"),
		Price:   pfloat(999),
		City:    pstr("Bucharest"),
		Country: pstr("RO"),
		RawJSON: []byte(`{}`),
	}
	if err := repo.UpsertHotel(ctx, h); err != nil {
		t.Fatalf("UpsertHotel: %v", err)
	}

	// Browse: list then detail, priced on the way out.
	res, err := http.Get(ts.URL + "/api/hotels/?city=Bucharest")
	if err != nil {
		t.Fatalf("GET list: %v", err)
	}
	var page struct {
		Items []struct {
			ID           string `json:"id"`
			NightlyPrice int    `json:"nightlyPrice"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	res.Body.Close()
	if len(page.Items) != 1 || page.Items[0].NightlyPrice != 330 {
		t.Fatalf("unexpected listing: %+v", page.Items)
	}

	// Register and book.
	body, _ := json.Marshal(map[string]string{
		"name": "Ana", "email": "ana@e2e.test", "password": "hunter2hunter2",
	})
	res, err = http.Post(ts.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	var reg struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&reg); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusCreated || reg.Token == "" {
		t.Fatalf("register status %d token %q", res.StatusCode, reg.Token)
	}

	payBody, _ := json.Marshal(map[string]string{"checkIn": "2026-09-10", "checkOut": "2026-09-13"})
	req, _ := http.NewRequest("POST", ts.URL+"/api/hotels/ChIJe2e1/payment", bytes.NewReader(payBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	var booking struct {
		Nights   int `json:"Nights"`
		TotalRON int `json:"TotalRON"`
	}
	if err := json.NewDecoder(res.Body).Decode(&booking); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("payment status %d", res.StatusCode)
	}
	if booking.Nights != 3 || booking.TotalRON != 990 {
		t.Fatalf("unexpected booking: %+v", booking)
	}

	// Same dates are now taken.
	req, _ = http.NewRequest("POST", ts.URL+"/api/hotels/ChIJe2e1/payment", bytes.NewReader(payBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("payment repeat: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for double booking, got %d", res.StatusCode)
	}
}
