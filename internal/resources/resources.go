// Package resources implements MCP resource handlers for session memory.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (recall://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/recall/internal/memory"
)

// ActiveSessionURI addresses the active session resource.
const ActiveSessionURI = "recall://session/active"

// recentLimit bounds the observations embedded in the active session view.
const recentLimit = 10

// Handler manages memory resource endpoints.
type Handler struct {
	cfg memory.Config
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(cfg memory.Config) *Handler {
	return &Handler{cfg: cfg}
}

// activeSessionView is the JSON body of the active session resource.
type activeSessionView struct {
	Active  bool                  `json:"active"`
	Session *memory.Session       `json:"session,omitempty"`
	Recent  []memory.SearchResult `json:"recent,omitempty"`
}

// ActiveSessionResource returns the MCP resource definition for the active
// session.
func (h *Handler) ActiveSessionResource() mcp.Resource {
	return mcp.NewResource(
		ActiveSessionURI,
		"Active Session",
		mcp.WithResourceDescription("The most recently started active session and its latest observations"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleActiveSession returns the active session as JSON. With no active
// session the body is {"active": false}.
func (h *Handler) HandleActiveSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view := activeSessionView{}
	err := memory.With(h.cfg, func(s *memory.Store) error {
		sess, err := s.ActiveSession()
		if errors.Is(err, memory.ErrNoActiveSession) {
			return nil
		}
		if err != nil {
			return err
		}
		view.Active = true
		view.Session = sess

		view.Recent, err = s.Search("", memory.SearchOptions{SessionID: sess.ID, Limit: recentLimit})
		return err
	})
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling active session: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
