package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quillback/logbook/internal/store"
)

// registerRecentResource exposes the most recent extraction, activities
// included, at logbook://recent.
func registerRecentResource(s *server.MCPServer, st store.Store) {
	resource := mcp.NewResource(
		"logbook://recent",
		"Most Recent Extraction",
		mcp.WithResourceDescription("The most recently stored extraction with its weekday activities."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		extractions, err := st.ListExtractions(ctx, store.ListOpts{Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("listing extractions: %w", err)
		}
		if len(extractions) == 0 {
			return nil, fmt.Errorf("no extractions stored yet")
		}

		data, _ := json.MarshalIndent(extractions[0], "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
