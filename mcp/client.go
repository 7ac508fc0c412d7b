package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"github.com/sweetpotato0/agri-advisor/rag/language"
)

// ErrClientClosed is returned by calls on a closed Client.
var ErrClientClosed = errors.New("mcp: client closed")

// ToolError is a failure reported by the server for one tool call.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("mcp: tool %s failed: %s", e.Tool, e.Message)
}

// ClientOptions tunes a Client. The zero value is usable.
type ClientOptions struct {
	// KeepAlive pings the server at this interval when positive.
	KeepAlive time.Duration
	// Terminate is how long a launched server gets to exit on Close.
	Terminate time.Duration
	Logger    *slog.Logger
}

func (o ClientOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.WithComponent("mcp-client")
}

// Client calls the advisory tools of one MCP server session.
type Client struct {
	mu      sync.Mutex
	session *sdkmcp.ClientSession
	logger  *slog.Logger
}

// Launch starts argv as an MCP server speaking over its stdin and stdout
// and connects to it. The server's stderr is forwarded to the log.
func Launch(ctx context.Context, argv []string, opts ClientOptions) (*Client, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("mcp: empty server command")
	}
	logger := opts.logger()
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stderr = stderrLog{logger: logger.With("server", argv[0])}
	return Connect(ctx, &sdkmcp.CommandTransport{Command: cmd, TerminateDuration: opts.Terminate}, opts)
}

// Connect performs the handshake over transport.
func Connect(ctx context.Context, transport sdkmcp.Transport, opts ClientOptions) (*Client, error) {
	logger := opts.logger()
	impl := &sdkmcp.Implementation{Name: "agri-advisor-client", Version: "0.1.0"}
	sdkClient := sdkmcp.NewClient(impl, &sdkmcp.ClientOptions{
		KeepAlive: opts.KeepAlive,
		LoggingMessageHandler: func(_ context.Context, req *sdkmcp.LoggingMessageRequest) {
			if req != nil && req.Params != nil {
				logger.Info("server log", "level", req.Params.Level, "data", req.Params.Data)
			}
		},
	})
	session, err := sdkClient.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect: %w", err)
	}
	return &Client{session: session, logger: logger}, nil
}

// CallTool invokes name and returns the text items of its result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) ([]string, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		return nil, ErrClientClosed
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("mcp: call %s: %w", name, err)
	}
	var texts []string
	for _, item := range res.Content {
		if t, ok := item.(*sdkmcp.TextContent); ok {
			texts = append(texts, t.Text)
		}
	}
	if res.IsError {
		msg := strings.Join(texts, "; ")
		if msg == "" {
			msg = "no message"
		}
		return nil, &ToolError{Tool: name, Message: msg}
	}
	return texts, nil
}

// Advise asks the remote advisor. The last text item carries the response
// as JSON.
func (c *Client) Advise(ctx context.Context, query, lang string) (answer.Response, error) {
	texts, err := c.CallTool(ctx, ToolAdvise, map[string]any{"query": query, "language": lang})
	if err != nil {
		return answer.Response{}, err
	}
	var resp answer.Response
	if err := decodeLast(ToolAdvise, texts, &resp); err != nil {
		return answer.Response{}, err
	}
	return resp, nil
}

// DetectLanguage asks the remote detector about text.
func (c *Client) DetectLanguage(ctx context.Context, text string) (language.Detection, error) {
	texts, err := c.CallTool(ctx, ToolDetect, map[string]any{"text": text})
	if err != nil {
		return language.Detection{}, err
	}
	var d language.Detection
	if err := decodeLast(ToolDetect, texts, &d); err != nil {
		return language.Detection{}, err
	}
	return d, nil
}

// Suggestions lists the server's example questions.
func (c *Client) Suggestions(ctx context.Context) ([]string, error) {
	texts, err := c.CallTool(ctx, ToolSuggestions, map[string]any{})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range texts {
		for _, line := range strings.Split(t, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out, nil
}

// Close ends the session. Closing twice is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()
	if session == nil {
		return nil
	}
	return session.Close()
}

func decodeLast(tool string, texts []string, v any) error {
	if len(texts) == 0 {
		return &ToolError{Tool: tool, Message: "empty result"}
	}
	if err := json.Unmarshal([]byte(texts[len(texts)-1]), v); err != nil {
		return fmt.Errorf("mcp: decode %s result: %w", tool, err)
	}
	return nil
}

// stderrLog forwards a launched server's stderr lines to the log.
type stderrLog struct {
	logger *slog.Logger
}

func (w stderrLog) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w.logger.Debug("server stderr", "line", line)
		}
	}
	return len(p), nil
}
