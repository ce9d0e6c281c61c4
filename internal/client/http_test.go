package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abemar/pingconsole/internal/routes"
)

func authServer(t *testing.T, status int, check func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		if r.URL.Path != "/api/auth/checkAuthentication/" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte("denied"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckAuthenticationOK(t *testing.T) {
	var gotAuth, gotCookie, gotMethod string
	srv := authServer(t, http.StatusOK, func(r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		if c, err := r.Cookie("sessionid"); err == nil {
			gotCookie = c.Value
		}
	})

	c := NewHTTPClient(srv.URL, "tok", routes.Table{Prefix: "/api/"}, WithSessionCookie("sessionid", "abc"))
	if err := c.CheckAuthentication(context.Background()); err != nil {
		t.Fatalf("CheckAuthentication() error: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q, want Bearer tok", gotAuth)
	}
	if gotCookie != "abc" {
		t.Errorf("cookie = %q, want abc", gotCookie)
	}
}

func TestCheckAuthenticationUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := authServer(t, status, nil)
		c := NewHTTPClient(srv.URL, "", routes.Table{Prefix: "/api/"})
		if err := c.CheckAuthentication(context.Background()); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("status %d: error = %v, want ErrUnauthorized", status, err)
		}
	}
}

func TestCheckAuthenticationServerError(t *testing.T) {
	srv := authServer(t, http.StatusInternalServerError, nil)
	c := NewHTTPClient(srv.URL, "", routes.Table{Prefix: "/api/"})
	err := c.CheckAuthentication(context.Background())
	if err == nil || errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want non-auth failure", err)
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "denied") {
		t.Errorf("error %q should carry status and body", err)
	}
}

func TestCheckAuthenticationNoToken(t *testing.T) {
	srv := authServer(t, http.StatusOK, func(r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("unexpected Authorization header %q", h)
		}
	})
	c := NewHTTPClient(srv.URL, "", routes.Table{Prefix: "/api/"}, WithTimeout(time.Second))
	if err := c.CheckAuthentication(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestCheckAuthenticationCancelled(t *testing.T) {
	srv := authServer(t, http.StatusOK, nil)
	c := NewHTTPClient(srv.URL, "", routes.Table{Prefix: "/api/"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.CheckAuthentication(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
