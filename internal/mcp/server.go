// Package mcp provides a Model Context Protocol server for Logbook.
//
// It exposes extraction, search, history, and stats as MCP tools, plus
// the most recent extraction as an MCP resource, over stdio transport
// (Claude Desktop, Cursor, and similar clients).
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/observe"
	"github.com/quillback/logbook/internal/ocr"
	"github.com/quillback/logbook/internal/refine"
	"github.com/quillback/logbook/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store   store.Store
	Engine  *extract.Engine
	Refiner *refine.Refiner // optional, for refine=true extract calls
	Version string
}

// dbMu serializes all MCP tool calls that touch the database.
// The mcp-go library dispatches handlers concurrently via goroutines,
// and SQLite supports only one writer at a time. The mutex guarantees a
// save has finished before a following search or history call reads.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all Logbook tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	if cfg.Engine == nil {
		cfg.Engine = extract.NewEngine(extract.DefaultOptions())
	}

	s := server.NewMCPServer(
		"Logbook",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerExtractTool(s, cfg)
	registerSearchTool(s, cfg.Store)
	registerHistoryTool(s, cfg.Store)
	registerStatsTool(s, cfg.Store)

	registerRecentResource(s, cfg.Store)

	return s
}

// extractToolResult is the compact tool payload: the full text is left
// out so results stay small in a model context.
type extractToolResult struct {
	ID         int64                     `json:"id,omitempty"`
	Duplicate  bool                      `json:"duplicate,omitempty"`
	Success    bool                      `json:"success"`
	Activities map[extract.DayKey]string `json:"activities"`
	Confidence float64                   `json:"confidence"`
	Warnings   []string                  `json:"warnings"`
}

func registerExtractTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("logbook_extract",
		mcp.WithDescription("Structure a scanned logbook page into weekday activities. Input is either plain text or OCR annotation JSON. The result is persisted and deduplicated by content."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Description("Raw page text. Use when no OCR annotation is available."),
		),
		mcp.WithString("annotation",
			mcp.Description("OCR annotation JSON (flat {\"text\": ...} or with a page hierarchy). Takes precedence over text."),
		),
		mcp.WithString("source",
			mcp.Description("Source label for the stored extraction (e.g. a filename). Defaults to 'mcp'."),
		),
		mcp.WithBoolean("refine",
			mcp.Description("Repair OCR artifacts with the configured LLM before storing (default: false)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		ann, err := annotationFromArgs(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res := cfg.Engine.Extract(ann)

		if req.GetBool("refine", false) && cfg.Refiner.Enabled() {
			res.Activities = cfg.Refiner.Refine(ctx, res.Activities)
		}

		out := extractToolResult{
			Success:    res.Success,
			Activities: res.Activities,
			Confidence: res.Confidence,
			Warnings:   res.Warnings,
		}

		if cfg.Store != nil {
			source := "mcp"
			if v, err := req.RequireString("source"); err == nil && v != "" {
				source = v
			}
			saved, created, err := cfg.Store.SaveResult(ctx, res, source)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("save error: %v", err)), nil
			}
			out.ID = saved.ID
			out.Duplicate = !created
		}

		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// annotationFromArgs builds the engine input from the annotation or text
// argument, annotation taking precedence.
func annotationFromArgs(req mcp.CallToolRequest) (*ocr.Annotation, error) {
	if raw, err := req.RequireString("annotation"); err == nil && strings.TrimSpace(raw) != "" {
		ann, err := ocr.DecodeAnnotation([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid annotation: %v", err)
		}
		return ann, nil
	}
	if text, err := req.RequireString("text"); err == nil && strings.TrimSpace(text) != "" {
		return &ocr.Annotation{Text: text}, nil
	}
	return nil, fmt.Errorf("text or annotation is required")
}

func registerSearchTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("logbook_search",
		mcp.WithDescription("Full-text search over stored logbook activities. Returns matched days with highlighted snippets and the extraction they belong to."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 10, max: 50)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		limit := 10
		if v, err := req.RequireFloat("limit"); err == nil && v > 0 {
			limit = int(v)
			if limit > 50 {
				limit = 50
			}
		}

		hits, err := st.SearchActivities(ctx, query, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(hits, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// historyEntry is the compact listing row returned by logbook_history.
type historyEntry struct {
	ID         int64    `json:"id"`
	Source     string   `json:"source,omitempty"`
	Days       []string `json:"days"`
	Confidence float64  `json:"confidence"`
	Warnings   int      `json:"warnings"`
	CreatedAt  string   `json:"created_at"`
}

func registerHistoryTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("logbook_history",
		mcp.WithDescription("List recent extractions, newest first: which days were found, confidence, and warning counts. Use logbook_search to look inside activity text."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of extractions to return (default: 10, max: 50)"),
		),
		mcp.WithString("source",
			mcp.Description("Only list extractions with this source label"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		opts := store.ListOpts{Limit: 10}
		if v, err := req.RequireFloat("limit"); err == nil && v > 0 {
			opts.Limit = int(v)
			if opts.Limit > 50 {
				opts.Limit = 50
			}
		}
		if v, err := req.RequireString("source"); err == nil && v != "" {
			opts.Source = v
		}

		extractions, err := st.ListExtractions(ctx, opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history error: %v", err)), nil
		}

		entries := make([]historyEntry, 0, len(extractions))
		for _, e := range extractions {
			days := make([]string, 0, len(e.Activities))
			for _, day := range extract.Weekdays() {
				if _, ok := e.Activities[day]; ok {
					days = append(days, string(day))
				}
			}
			entries = append(entries, historyEntry{
				ID:         e.ID,
				Source:     e.Source,
				Days:       days,
				Confidence: e.Confidence,
				Warnings:   len(e.Warnings),
				CreatedAt:  e.CreatedAt.Format(time.RFC3339),
			})
		}

		data, _ := json.MarshalIndent(entries, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStatsTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("logbook_stats",
		mcp.WithDescription("Logbook store statistics: extraction and activity totals, average confidence, success rate, per-day coverage, freshness, and quality alerts."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := observe.Gather(ctx, st)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(stats, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}
