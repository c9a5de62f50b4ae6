package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/verdant/internal/domain/content"
)

const contentURIPrefix = "verdant://content/"

func registerContentResources(server *sdkmcp.Server, svc ContentService) {
	for _, name := range content.Sections {
		uri := contentURIPrefix + name
		server.AddResource(&sdkmcp.Resource{
			URI:         uri,
			Name:        "content_" + name,
			Title:       "Content: " + name,
			Description: "The " + name + " section of the marketing site",
			MIMEType:    "application/json",
		}, func(ctx context.Context, _ *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			sec, err := svc.Get(ctx, name)
			if err != nil {
				return nil, err
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(sec.Data),
				}},
			}, nil
		})
	}
}
