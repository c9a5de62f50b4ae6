package mcp

import (
	"context"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/verdant/internal/domain/project"
)

const (
	defaultPageSize = 9
	maxPageSize     = 50
)

type listProjectsInput struct {
	Page int    `json:"page,omitempty" jsonschema:"page number starting at 1 (default 1)"`
	Size int    `json:"size,omitempty" jsonschema:"projects per page (default 9, max 50)"`
	View string `json:"view,omitempty" jsonschema:"full or optimized (default full)"`
}

type getProjectInput struct {
	ID   string `json:"id,omitempty" jsonschema:"project id"`
	Slug string `json:"slug,omitempty" jsonschema:"project slug, used when id is empty"`
}

type reorderProjectsInput struct {
	IDs []string `json:"ids" jsonschema:"every project id in the desired display order"`
}

type emptyInput struct{}

type initOrderingOutput struct {
	Migrated bool `json:"migrated"`
}

type compactOrderingOutput struct {
	Count int `json:"count"`
}

type okOutput struct {
	OK bool `json:"ok"`
}

func registerTools(server *sdkmcp.Server, svc Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List portfolio projects one page at a time, in display order",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in listProjectsInput) (*sdkmcp.CallToolResult, any, error) {
		page, size := in.Page, in.Size
		if page == 0 {
			page = 1
		}
		if size == 0 {
			size = defaultPageSize
		}
		if size > maxPageSize {
			size = maxPageSize
		}
		pg, err := svc.Projects.GetPage(ctx, page, size, project.ParseView(in.View))
		if err != nil {
			return errorResult(err), nil, nil
		}
		res, err := jsonResult(pg)
		return res, nil, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get one project by id or slug",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in getProjectInput) (*sdkmcp.CallToolResult, any, error) {
		var (
			p   *project.Project
			err error
		)
		switch {
		case in.ID != "":
			p, err = svc.Projects.Get(ctx, in.ID)
		case in.Slug != "":
			p, err = svc.Projects.GetBySlug(ctx, in.Slug)
		default:
			return errorResult(errors.Join(project.ErrInvalidInput, errors.New("id or slug is required"))), nil, nil
		}
		if err != nil {
			return errorResult(err), nil, nil
		}
		if p == nil {
			return errorResult(project.ErrProjectNotFound), nil, nil
		}
		res, err := jsonResult(p)
		return res, nil, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "reorder_projects",
		Description: "Replace the portfolio display order with the given ids",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in reorderProjectsInput) (*sdkmcp.CallToolResult, any, error) {
		if err := svc.Projects.Reorder(ctx, in.IDs); err != nil {
			return errorResult(err), nil, nil
		}
		res, err := jsonResult(okOutput{OK: true})
		return res, nil, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "init_ordering",
		Description: "Build the display order from creation dates if it does not exist yet",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
		migrated, err := svc.Ordering.EnsureInitialized(ctx)
		if err != nil {
			return errorResult(err), nil, nil
		}
		res, err := jsonResult(initOrderingOutput{Migrated: migrated})
		return res, nil, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "compact_ordering",
		Description: "Renumber display ranks to 0..n-1 without changing the order",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
		n, err := svc.Ordering.Compact(ctx)
		if err != nil {
			return errorResult(err), nil, nil
		}
		res, err := jsonResult(compactOrderingOutput{Count: n})
		return res, nil, err
	})
}
