package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aranel/songsmith/internal/learning"
	"github.com/aranel/songsmith/internal/storage"
	"github.com/aranel/songsmith/internal/styles"
	"github.com/aranel/songsmith/internal/worker"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store *storage.Store
}

// NewMCPServer creates an MCP server exposing song generation to
// agent clients. Tools enqueue work on the same job queue the HTTP
// surface uses; the background worker does the actual synthesis.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"songsmith",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("songsmith — theme-to-song studio: compose songs, inspect generations, and read studio statistics."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("compose_song",
			mcp.WithDescription("Queue a new song generation for a theme. Returns the generation id to poll."),
			mcp.WithString("theme", mcp.Description("Theme of the song, e.g. \"Epic Battle\""), mcp.Required()),
			mcp.WithString("title", mcp.Description("Optional song title")),
			mcp.WithString("voice_style", mcp.Description("heroic_male, soprano, choir, or whisper (derived from the theme when omitted)")),
			mcp.WithString("music_style", mcp.Description("epic, pop, dark, gregorian, fantasy, gladiator, or emotional (derived from the theme when omitted)")),
		),
		mcpComposeSong(deps),
	)

	s.AddTool(
		mcp.NewTool("get_generation",
			mcp.WithDescription("Fetch one generation record by id, including status and artifact paths."),
			mcp.WithString("id", mcp.Description("Generation id"), mcp.Required()),
		),
		mcpGetGeneration(deps),
	)

	s.AddTool(
		mcp.NewTool("list_generations",
			mcp.WithDescription("List recent generations, newest first."),
			mcp.WithString("status", mcp.Description("Optional status filter: pending, running, completed, failed")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpListGenerations(deps),
	)

	s.AddTool(
		mcp.NewTool("studio_stats",
			mcp.WithDescription("Read aggregate studio statistics: totals, success rate, style counts, popular theme keywords."),
		),
		mcpStudioStats(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"songsmith://stats",
			"Studio Statistics",
			mcp.WithResourceDescription("Aggregate generation statistics as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStats(deps),
	)

	return s
}

func mcpComposeSong(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		theme, err := req.RequireString("theme")
		if err != nil {
			return mcpError("theme is required"), nil
		}

		voiceStyle := req.GetString("voice_style", "")
		musicStyle := req.GetString("music_style", "")
		if voiceStyle != "" && !styles.ValidVoice(voiceStyle) {
			return mcpError(fmt.Sprintf("unknown voice style %q", voiceStyle)), nil
		}
		if musicStyle != "" && !styles.ValidMusic(musicStyle) {
			return mcpError(fmt.Sprintf("unknown music style %q", musicStyle)), nil
		}
		voiceStyle, musicStyle = styles.Suggest(theme, voiceStyle, musicStyle)

		g, err := deps.Store.CreateGeneration(storage.NewGeneration{
			Title:      req.GetString("title", ""),
			Theme:      theme,
			VoiceStyle: voiceStyle,
			MusicStyle: musicStyle,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to create generation: %v", err)), nil
		}

		payload, err := json.Marshal(worker.Payload{GenerationID: g.ID})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal job payload: %v", err)), nil
		}
		job := storage.Job{
			ID:          uuid.New().String(),
			Type:        worker.JobType,
			PayloadJSON: string(payload),
		}
		if err := deps.Store.EnqueueJob(job); err != nil {
			return mcpError(fmt.Sprintf("created generation but failed to queue it: %v", err)), nil
		}

		b, err := json.Marshal(g)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal generation: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetGeneration(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		g, err := deps.Store.GetGeneration(id)
		if err == storage.ErrNotFound {
			return mcpError(fmt.Sprintf("generation %s not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load generation: %v", err)), nil
		}

		b, err := json.Marshal(display(g, time.Now().UTC()))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal generation: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListGenerations(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		list, err := deps.Store.ListGenerations(req.GetString("status", ""), 1, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list generations: %v", err)), nil
		}

		now := time.Now().UTC()
		for i := range list {
			list[i] = display(list[i], now)
		}

		b, err := json.Marshal(list)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal generations: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpStudioStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st, err := learning.Compute(deps.Store)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to compute stats: %v", err)), nil
		}
		b, err := json.Marshal(st)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceStats(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		st, err := learning.Compute(deps.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to compute stats: %w", err)
		}
		b, err := json.Marshal(st)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal stats: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
