package app_test

import (
	"context"
	"testing"
	"time"

	"staybook/internal/app"
	"staybook/internal/domain"
)

func newAuthStack(t *testing.T) (*app.AuthService, *fakeUsers, *fakeApprovals, *fakeMailer, *fakeCache) {
	t.Helper()
	users := newFakeUsers()
	approvals := newFakeApprovals()
	mailer := &fakeMailer{}
	cache := &fakeCache{}
	approval := newApprovalSvc(users, approvals, mailer, cache)
	auth := app.NewAuthService(users, approval, cache, time.Hour, t.TempDir())
	return auth, users, approvals, mailer, cache
}

func TestRegister_RegularUserGetsSession(t *testing.T) {
	auth, _, _, _, cache := newAuthStack(t)

	u, sess, err := auth.Register(context.Background(), "Ana", "Ana@Example.com", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.Email != "ana@example.com" || u.Role != domain.RoleUser || u.Plan != domain.PlanFree {
		t.Fatalf("unexpected user: %+v", u)
	}
	if sess == nil || sess.Token == "" {
		t.Fatal("expected a session")
	}
	if _, ok := cache.store["session:"+sess.Token]; !ok {
		t.Fatal("session not stored")
	}
}

func TestRegister_AdminRequestStaysUserWithoutSession(t *testing.T) {
	auth, users, approvals, mailer, _ := newAuthStack(t)

	u, sess, err := auth.Register(context.Background(), "Bogdan", "b@example.com", "hunter2hunter2", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if sess != nil {
		t.Fatal("no session until the code is verified")
	}
	stored, _ := users.GetUser(context.Background(), u.ID)
	if stored.Role != domain.RoleUser {
		t.Fatalf("role must stay user, got %s", stored.Role)
	}
	req, err := approvals.GetApprovalByEmail(context.Background(), "b@example.com")
	if err != nil || req.Status != domain.ApprovalPending {
		t.Fatalf("expected pending approval, got %+v (%v)", req, err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one approver mail, got %d", len(mailer.sent))
	}
}

func TestRegister_Validation(t *testing.T) {
	auth, _, _, _, _ := newAuthStack(t)

	cases := []struct{ name, email, pass string }{
		{"", "a@b.c", "hunter2hunter2"},
		{"Ana", "not-an-email", "hunter2hunter2"},
		{"Ana", "a@b.c", "short"},
	}
	for _, c := range cases {
		if _, _, err := auth.Register(context.Background(), c.name, c.email, c.pass, ""); err == nil {
			t.Fatalf("expected validation error for %+v", c)
		}
	}
}

func TestLoginLogout(t *testing.T) {
	auth, _, _, _, _ := newAuthStack(t)
	if _, _, err := auth.Register(context.Background(), "Ana", "a@b.c", "hunter2hunter2", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	sess, err := auth.Login(context.Background(), "a@b.c", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	got, err := auth.Authenticate(context.Background(), sess.Token)
	if err != nil || got.Email != "a@b.c" {
		t.Fatalf("authenticate: %+v (%v)", got, err)
	}

	if err := auth.Logout(context.Background(), sess.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := auth.Authenticate(context.Background(), sess.Token); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	auth, _, _, _, _ := newAuthStack(t)
	if _, _, err := auth.Register(context.Background(), "Ana", "a@b.c", "hunter2hunter2", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := auth.Login(context.Background(), "a@b.c", "wrong-password"); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	auth, _, _, _, _ := newAuthStack(t)
	u, _, err := auth.Register(context.Background(), "Ana", "a@b.c", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := auth.ChangePassword(context.Background(), u.ID, "wrong", "newpassword123"); err == nil {
		t.Fatal("expected error with wrong current password")
	}
	if err := auth.ChangePassword(context.Background(), u.ID, "hunter2hunter2", "newpassword123"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := auth.Login(context.Background(), "a@b.c", "newpassword123"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestChangeSubscription(t *testing.T) {
	auth, users, _, _, _ := newAuthStack(t)
	u, _, err := auth.Register(context.Background(), "Ana", "a@b.c", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := auth.ChangeSubscription(context.Background(), u.ID, "gold"); err == nil {
		t.Fatal("expected validation error for unknown plan")
	}
	if err := auth.ChangeSubscription(context.Background(), u.ID, domain.PlanPremium); err != nil {
		t.Fatalf("change: %v", err)
	}
	got, _ := users.GetUser(context.Background(), u.ID)
	if got.Plan != domain.PlanPremium {
		t.Fatalf("plan: %s", got.Plan)
	}
}

func TestSaveImage_DegradesToPlaceholder(t *testing.T) {
	users := newFakeUsers()
	approvals := newFakeApprovals()
	cache := &fakeCache{}
	approval := newApprovalSvc(users, approvals, &fakeMailer{}, cache)
	// point the upload dir at a path that cannot be created
	auth := app.NewAuthService(users, approval, cache, time.Hour, "/dev/null/uploads")

	u, _, err := auth.Register(context.Background(), "Ana", "a@b.c", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	path, err := auth.SaveImage(context.Background(), u.ID, "profile", "me.png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("save image must not fail the request: %v", err)
	}
	if path != "/uploads/placeholder.png" {
		t.Fatalf("expected placeholder path, got %s", path)
	}
}

func TestSaveImage_WritesFile(t *testing.T) {
	auth, _, _, _, _ := newAuthStack(t)
	u, _, err := auth.Register(context.Background(), "Ana", "a@b.c", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	path, err := auth.SaveImage(context.Background(), u.ID, "cover", "beach.jpg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if path == "/uploads/placeholder.png" {
		t.Fatal("expected a real stored path")
	}
}
