// Package mcp binds a tool dispatcher to the Model Context Protocol stdio
// transport.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/developer-mesh/review-mcp/internal/observability"
	"github.com/developer-mesh/review-mcp/internal/tools"
)

// Caller runs a tool call and always produces a result envelope.
type Caller interface {
	Call(ctx context.Context, name string, arguments map[string]interface{}) tools.Result
}

// Server exposes a tool catalog to MCP hosts.
type Server struct {
	mcp    *server.MCPServer
	caller Caller
	names  map[string]bool
	logger observability.Logger
}

// NewServer registers every definition with an MCP server named name.
func NewServer(name, version string, defs []tools.ToolDefinition, caller Caller, logger observability.Logger) (*Server, error) {
	s := &Server{
		mcp: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		caller: caller,
		names:  make(map[string]bool, len(defs)),
		logger: logger,
	}

	for _, def := range defs {
		schema, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to encode schema for %s: %w", def.Name, err)
		}
		s.mcp.AddTool(mcp.NewToolWithRawSchema(def.Name, def.Description, schema), s.handle)
		s.names[def.Name] = true
	}

	logger.Info("MCP server configured", map[string]interface{}{
		"server": name,
		"tools":  len(defs),
	})

	return s, nil
}

func (s *Server) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return ToCallToolResult(s.caller.Call(ctx, req.Params.Name, req.GetArguments())), nil
}

// ToCallToolResult converts the dispatcher envelope into a protocol result.
func ToCallToolResult(res tools.Result) *mcp.CallToolResult {
	if res.IsError {
		return mcp.NewToolResultError(res.Text)
	}
	return mcp.NewToolResultText(res.Text)
}

// toolCall is the part of a tools/call request needed to route it.
type toolCall struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      *mcp.RequestId `json:"id"`
	Method  mcp.MCPMethod  `json:"method"`
	Params  struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	} `json:"params"`
}

// HandleMessage processes a single JSON-RPC message. A tools/call naming a
// tool outside the catalog still goes to the caller, so the client receives
// an isError result rather than a protocol error.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	var call toolCall
	if err := json.Unmarshal(message, &call); err == nil &&
		call.JSONRPC == mcp.JSONRPC_VERSION &&
		call.Method == mcp.MethodToolsCall &&
		call.ID != nil && !call.ID.IsNil() &&
		!s.names[call.Params.Name] {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      *call.ID,
			Result:  ToCallToolResult(s.caller.Call(ctx, call.Params.Name, call.Params.Arguments)),
		}
	}
	return s.mcp.HandleMessage(ctx, message)
}

// ServeStdio reads newline-delimited JSON-RPC messages from in and writes one
// response line per request to out. It returns when in is exhausted or ctx is
// cancelled; neither is reported as an error.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer, errLog *log.Logger) error {
	if errLog == nil {
		errLog = log.New(io.Discard, "", 0)
	}

	type readResult struct {
		line string
		err  error
	}
	lines := make(chan readResult)
	go func() {
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadString('\n')
			select {
			case lines <- readResult{line: line, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	s.logger.Info("Serving MCP over stdio", nil)
	for {
		var next readResult
		select {
		case <-ctx.Done():
			return nil
		case next = <-lines:
		}

		if line := strings.TrimSpace(next.line); line != "" {
			if err := s.serveLine(ctx, line, out); err != nil {
				errLog.Printf("Error writing response: %v", err)
				return err
			}
		}

		if next.err != nil {
			if errors.Is(next.err, io.EOF) {
				return nil
			}
			errLog.Printf("Error reading input: %v", next.err)
			return next.err
		}
	}
}

func (s *Server) serveLine(ctx context.Context, line string, out io.Writer) error {
	var response mcp.JSONRPCMessage
	if !json.Valid([]byte(line)) {
		response = mcp.NewJSONRPCError(mcp.NewRequestId(nil), mcp.PARSE_ERROR, "Parse error", nil)
	} else {
		response = s.HandleMessage(ctx, json.RawMessage(line))
	}
	if response == nil {
		return nil
	}

	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}
