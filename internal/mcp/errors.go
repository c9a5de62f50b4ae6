package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/verdant/internal/domain/project"
	"github.com/ganot/verdant/internal/kv"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: err.Error(), RecoveryHint: "List projects to find valid ids"}
	case errors.Is(err, project.ErrDuplicateSlug):
		return &APIError{Code: "DUPLICATE_SLUG", Message: err.Error(), RecoveryHint: "Choose another slug"}
	case errors.Is(err, project.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, kv.ErrUnavailable):
		return &APIError{Code: "STORE_UNAVAILABLE", Message: "store unavailable", RecoveryHint: "Retry later"}
	default:
		return &APIError{Code: "INTERNAL", Message: "internal error"}
	}
}

// errorResult reports err to the client as a tool-level error.
func errorResult(err error) *sdkmcp.CallToolResult {
	data, _ := json.Marshal(MapError(err))
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func jsonResult(v any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}
