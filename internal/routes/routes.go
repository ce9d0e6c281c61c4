// Package routes names the backend endpoints the console talks to.
package routes

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	WSConnect = "ws/onConnect/"
	AuthCheck = "auth/checkAuthentication/"
)

var ErrScheme = errors.New("routes: scheme must be ws or wss")

// Resolver maps a route name to a server path.
type Resolver interface {
	GetRoute(name string) string
}

// Table resolves names under a fixed API prefix.
type Table struct {
	Prefix string
}

// GetRoute joins the prefix and name with exactly one slash between them.
func (t Table) GetRoute(name string) string {
	prefix := t.Prefix
	if prefix == "" {
		prefix = "/"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(name, "/")
}

// Endpoint builds the socket URL for path on host.
func Endpoint(scheme, host, path string) (string, error) {
	if scheme != "ws" && scheme != "wss" {
		return "", fmt.Errorf("%w: %q", ErrScheme, scheme)
	}
	if host == "" {
		return "", errors.New("routes: empty host")
	}
	u := url.URL{Scheme: scheme, Host: host, Path: path}
	return u.String(), nil
}

// HTTPBase converts ws://host:port/path to http://host:port, and wss to https.
func HTTPBase(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", err
	}
	scheme := "http"
	switch u.Scheme {
	case "ws":
	case "wss":
		scheme = "https"
	default:
		return "", fmt.Errorf("%w: %q", ErrScheme, u.Scheme)
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host), nil
}
