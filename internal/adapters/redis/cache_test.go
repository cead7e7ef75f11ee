package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	redisad "staybook/internal/adapters/redis"
	"staybook/internal/domain"
)

func newCache(t *testing.T) *redisad.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	return redisad.New(mr.Addr(), "", 0)
}

func TestCache_SetGetDel(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	u := domain.User{ID: 7, Name: "Ana", Email: "ana@example.com", Role: domain.RoleUser}
	if err := c.Set(ctx, "session:abc", u, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got domain.User
	ok, err := c.Get(ctx, "session:abc", &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.ID != 7 || got.Email != "ana@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if err := c.Del(ctx, "session:abc"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, err = c.Get(ctx, "session:abc", &got)
	if err != nil {
		t.Fatalf("get after del: %v", err)
	}
	if ok {
		t.Fatal("expected miss after delete")
	}
}

func TestCache_MissIsNotAnError(t *testing.T) {
	c := newCache(t)

	var dst string
	ok, err := c.Get(context.Background(), "nope", &dst)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}
