package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/pkg/protocol"
	"github.com/richard-senior/nflodds/pkg/tools"
	"github.com/richard-senior/nflodds/pkg/transport"
	"github.com/richard-senior/nflodds/pkg/util/nflodds"
)

const (
	serverName    = "nflodds"
	serverVersion = "1.0.0"
	// some clients namespace tool names with this prefix
	toolPrefix = "mcp___"
)

// Server represents an MCP server
type Server struct {
	transport transport.Transport
	handlers  map[string]HandlerFunc
	tools     []protocol.Tool
	toolFuncs map[string]tools.Handler
	mu        sync.Mutex
}

// HandlerFunc handles one JSON-RPC method
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

var (
	instance *Server
	once     sync.Once
)

// GetInstance returns the singleton Server reading stdin and writing stdout
func GetInstance() *Server {
	return InitInstance(transport.NewStdioTransport())
}

// InitInstance initializes the singleton Server with the given transport.
// Later calls return the existing instance
func InitInstance(t transport.Transport) *Server {
	once.Do(func() {
		instance = NewServer(t)
		instance.RegisterDefaultTools(tools.NewNflTools(nflodds.GetDatasourceInstance()))
	})
	return instance
}

// NewServer returns a server with the protocol methods registered and no tools
func NewServer(t transport.Transport) *Server {
	s := &Server{
		transport: t,
		handlers:  make(map[string]HandlerFunc),
		toolFuncs: make(map[string]tools.Handler),
	}
	s.handlers[string(protocol.MethodInitialize)] = s.handleInitialize
	s.handlers[string(protocol.MethodToolsList)] = s.handleToolsList
	s.handlers[string(protocol.MethodToolsCall)] = s.handleToolsCall
	s.handlers[string(protocol.MethodPing)] = s.handlePing
	s.handlers[string(protocol.MethodResourcesList)] = s.handleEmptyList("resources")
	s.handlers[string(protocol.MethodPromptsList)] = s.handleEmptyList("prompts")
	return s
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool protocol.Tool, handler tools.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, tool)
	s.toolFuncs[tool.Name] = handler
	logger.Info("Registered tool:", tool.Name)
}

// RegisterDefaultTools registers the NFL tools
func (s *Server) RegisterDefaultTools(nfl *tools.NflTools) {
	logger.Info("Registering default tools...")
	s.RegisterTool(tools.CurrentWeekTool(), nfl.HandleCurrentWeek)
	s.RegisterTool(tools.RecommendationsTool(), nfl.HandleRecommendations)
	s.RegisterTool(tools.WeekPredictionsTool(), nfl.HandleWeekPredictions)
	s.RegisterTool(tools.TeamPageTool(), nfl.HandleTeamPage)
}

// GetTools returns the list of registered tools
func (s *Server) GetTools() []protocol.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Tool(nil), s.tools...)
}

// Start processes requests until stdin closes or the process is signalled
func (s *Server) Start() error {
	logger.Info("Starting MCP server")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ProcessRequests(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
		return nil
	}
}

// ProcessRequests reads and answers requests until the transport is exhausted.
// io.EOF is a clean shutdown and returns nil
func (s *Server) ProcessRequests(ctx context.Context) error {
	for {
		req, err := s.transport.ReadRequest()
		if err != nil {
			var perr *transport.ParseError
			if errors.As(err, &perr) {
				logger.Warn("Dropping invalid request", perr.Raw, perr.Err)
				if werr := s.transport.WriteResponse(protocol.NewJsonRpcErrorResponse(protocol.ErrParse, perr.Error(), nil, nil)); werr != nil {
					return werr
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		resp := s.handleRequest(ctx, req)
		if resp == nil {
			continue
		}
		if err := s.transport.WriteResponse(resp); err != nil {
			return err
		}
	}
}

// handleRequest returns the response to req, or nil for notifications
func (s *Server) handleRequest(ctx context.Context, req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse {
	logger.Info(">> ", req.Method)

	if strings.HasPrefix(req.Method, "notifications/") || req.Method == string(protocol.MethodInitialized) {
		logger.Info("Received notification:", req.Method)
		return nil
	}
	if req.IsNotification() {
		logger.Debug("Ignoring request without id", req.Method)
		return nil
	}

	handler, ok := s.handlers[req.Method]
	if !ok {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method), nil, req.ID)
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		var rpcErr *protocol.JsonRpcError
		if errors.As(err, &rpcErr) {
			return protocol.NewJsonRpcErrorResponse(rpcErr.Code, rpcErr.Message, rpcErr.Data, req.ID)
		}
		return protocol.NewJsonRpcErrorResponse(protocol.ErrToolExecutionFailed, err.Error(), nil, req.ID)
	}

	resp, err := protocol.NewJsonRpcResponse(result, req.ID)
	if err != nil {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrInternal, "Failed to marshal result: "+err.Error(), nil, req.ID)
	}
	logger.Debug("Full response:", string(resp.Result))
	return resp
}

func (s *Server) handleInitialize(_ context.Context, params json.RawMessage) (any, error) {
	version := protocol.ProtocolVersion
	var req struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid initialize params: " + err.Error()}
		}
	}
	if req.ProtocolVersion != "" {
		version = req.ProtocolVersion
	}
	logger.Info("Handling initialize request with", len(s.GetTools()), "tools, protocol", version)

	return &protocol.InitializeResult{
		ProtocolVersion: version,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		ServerInfo: protocol.ServerInfo{Name: serverName, Version: serverVersion},
	}, nil
}

func (s *Server) handleToolsList(_ context.Context, _ json.RawMessage) (any, error) {
	return &protocol.ToolsResponse{Tools: s.GetTools()}, nil
}

func (s *Server) handlePing(_ context.Context, _ json.RawMessage) (any, error) {
	return map[string]any{}, nil
}

func (s *Server) handleEmptyList(key string) HandlerFunc {
	return func(_ context.Context, _ json.RawMessage) (any, error) {
		return map[string]any{key: []any{}}, nil
	}
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, error) {
	var call protocol.ToolCallParams
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid tools/call params: " + err.Error()}
	}
	logger.Info("Tool call requested for:", call.Name)

	s.mu.Lock()
	handler, ok := s.toolFuncs[call.Name]
	if !ok {
		handler, ok = s.toolFuncs[strings.TrimPrefix(call.Name, toolPrefix)]
	}
	s.mu.Unlock()
	if !ok {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "tool not found: " + call.Name}
	}

	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}
	result, err := handler(ctx, call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("tool execution failed: %w", err)
	}
	return result, nil
}
