// Package testserver runs the full HTTP stack against a test store.
package testserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganot/verdant/internal/api"
	"github.com/ganot/verdant/internal/domain/contact"
	"github.com/ganot/verdant/internal/domain/content"
	"github.com/ganot/verdant/internal/domain/project"
	"github.com/ganot/verdant/internal/kv"
	"github.com/ganot/verdant/internal/mcp"
)

type TestServer struct {
	Server   *httptest.Server
	Store    kv.Store
	Token    string
	Projects *project.Service
}

// New serves the REST API and the MCP endpoint on store, with token as the
// admin bearer token.
func New(t *testing.T, store kv.Store, token string) *TestServer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	projects := project.NewService(store, logger)
	contacts, err := contact.NewService(store, logger)
	require.NoError(t, err)
	sections, err := content.NewService(store, logger)
	require.NoError(t, err)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: projects,
			Ordering: projects.Ordering(),
			Content:  sections,
		},
		Version: "test",
		Logger:  logger,
	})

	server := httptest.NewServer(api.NewRouter(api.Config{
		Store:     store,
		Projects:  projects,
		Contacts:  contacts,
		Content:   sections,
		TokenHash: string(hash),
		MCP:       mcp.NewHTTPHandler(mcpServer),
		Logger:    logger,
	}))
	t.Cleanup(server.Close)

	return &TestServer{
		Server:   server,
		Store:    store,
		Token:    token,
		Projects: projects,
	}
}

// Client returns an HTTP client that sends the admin token on every request.
func (ts *TestServer) Client() *http.Client {
	return &http.Client{Transport: bearer{token: ts.Token, next: http.DefaultTransport}}
}

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(req)
}
