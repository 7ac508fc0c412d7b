// Package mcp exposes the advisory service as Model Context Protocol tools
// and provides a small client for calling them.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"github.com/sweetpotato0/agri-advisor/rag/language"
)

// Tool names.
const (
	ToolAdvise      = "advise"
	ToolDetect      = "detect_language"
	ToolSuggestions = "suggested_questions"
)

// Advisor answers one question.
type Advisor interface {
	Advise(ctx context.Context, query, language string) answer.Response
}

// ServerInfo describes the advertised implementation.
type ServerInfo struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// NewServer builds an MCP server with the advisory tools. detector may be
// nil, in which case detect_language is not offered.
func NewServer(info ServerInfo, advisor Advisor, detector *language.Detector) *sdkmcp.Server {
	if info.Name == "" {
		info.Name = "agri-advisor"
	}
	if info.Version == "" {
		info.Version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    info.Name,
		Title:   info.Title,
		Version: info.Version,
	}, nil)

	addAdviseTool(server, advisor)
	if detector != nil {
		addDetectTool(server, detector)
	}
	addSuggestionsTool(server)
	return server
}

// Run serves on stdin/stdout until ctx ends or the client disconnects.
func Run(ctx context.Context, server *sdkmcp.Server) error {
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}

type adviseArgs struct {
	Query    string `json:"query" jsonschema:"The farmer's question, in any supported language"`
	Language string `json:"language,omitempty" jsonschema:"Optional BCP 47 language hint; empty or auto to detect"`
}

func addAdviseTool(server *sdkmcp.Server, advisor Advisor) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolAdvise,
		Description: "Answer an agricultural question with weather, market, crop advisory, soil and scheme data. The second content item is the full response as JSON.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, a adviseArgs) (*sdkmcp.CallToolResult, any, error) {
		if strings.TrimSpace(a.Query) == "" {
			return nil, nil, fmt.Errorf("query is required")
		}
		resp := advisor.Advise(ctx, a.Query, a.Language)
		data, err := json.Marshal(resp)
		if err != nil {
			logging.WithComponent("mcp").Error("encode response", "error", err)
			return nil, nil, fmt.Errorf("encode response: %w", err)
		}
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{
				&sdkmcp.TextContent{Text: answer.Render(resp)},
				&sdkmcp.TextContent{Text: string(data)},
			},
		}, nil, nil
	})
}

type detectArgs struct {
	Text string `json:"text" jsonschema:"Text whose language should be detected"`
}

func addDetectTool(server *sdkmcp.Server, detector *language.Detector) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolDetect,
		Description: "Detect the language of a question and report whether speech input is supported for it",
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, a detectArgs) (*sdkmcp.CallToolResult, any, error) {
		d := detector.Detect(a.Text)
		data, err := json.Marshal(d)
		if err != nil {
			return nil, nil, err
		}
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		}, nil, nil
	})
}

func addSuggestionsTool(server *sdkmcp.Server) {
	type args struct{}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        ToolSuggestions,
		Description: "List example questions the advisor answers well",
	}, func(context.Context, *sdkmcp.CallToolRequest, args) (*sdkmcp.CallToolResult, any, error) {
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{
				&sdkmcp.TextContent{Text: strings.Join(answer.SuggestedQuestions, "\n")},
			},
		}, nil, nil
	})
}
