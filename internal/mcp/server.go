package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/verdant/internal/domain/content"
	"github.com/ganot/verdant/internal/domain/project"
)

// ProjectService defines portfolio operations needed by MCP.
type ProjectService interface {
	GetPage(ctx context.Context, page, size int, view project.View) (*project.Page, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	GetBySlug(ctx context.Context, slug string) (*project.Project, error)
	Reorder(ctx context.Context, ids []string) error
}

// OrderingService defines ordering maintenance needed by MCP.
type OrderingService interface {
	EnsureInitialized(ctx context.Context) (bool, error)
	Compact(ctx context.Context) (int, error)
}

// ContentService defines content reads needed by MCP.
type ContentService interface {
	Get(ctx context.Context, name string) (*content.Section, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Ordering OrderingService
	Content  ContentService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

const serverInstructions = `verdant manages a landscaping portfolio.

- list_projects pages through projects in display order (rank 0 first).
  Use view "optimized" for listings; it carries only the hero image.
- get_project fetches one project by id or slug.
- reorder_projects replaces the display order. Pass every project id:
  ids left out drop out of the listing.
- init_ordering builds the display order from creation dates if it does
  not exist yet; compact_ordering renumbers ranks without changing order.
- Marketing copy is readable as resources under verdant://content/.`

// NewServer creates and configures an MCP server with all tools and resources.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "verdant",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services)
	if cfg.Services.Content != nil {
		registerContentResources(server, cfg.Services.Content)
	}
	return server
}

// NewHTTPHandler serves the server over the streamable HTTP transport.
func NewHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)
}
