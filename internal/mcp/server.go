package mcp

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-covid-qr/internal/certificate"
	"github.com/a3tai/mcp-covid-qr/internal/config"
	"github.com/a3tai/mcp-covid-qr/internal/descriptions"
	"github.com/a3tai/mcp-covid-qr/internal/pdf"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *certificate.Service
	paths     *pdf.PathValidator
	mcpServer *server.MCPServer
	tools     []mcp.Tool
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *certificate.Service) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("certificate service cannot be nil")
	}

	paths, err := pdf.NewPathValidator(cfg.CertDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		paths:     paths,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	formatOption := mcp.WithString("format",
		mcp.Description("Output format: 'text' (default) or 'json'"),
		mcp.Enum(certificate.FormatText, certificate.FormatJSON),
	)

	decodeFileTool := mcp.NewTool(
		descriptions.DecodeFileTool,
		mcp.WithDescription(descriptions.DecodeFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the certificate file, absolute or relative to the configured directory"),
		),
		mcp.WithString("type",
			mcp.Description("Input type: auto (default), pdf, image, base64, encrypted or plaintext"),
		),
		formatOption,
	)
	s.addTool(decodeFileTool, s.handleDecodeFile)

	decodePayloadTool := mcp.NewTool(
		descriptions.DecodePayloadTool,
		mcp.WithDescription(descriptions.DecodePayloadDescription),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("QR code text"),
		),
		formatOption,
	)
	s.addTool(decodePayloadTool, s.handleDecodePayload)

	parseRecordTool := mcp.NewTool(
		descriptions.ParseRecordTool,
		mcp.WithDescription(descriptions.ParseRecordDescription),
		mcp.WithString("line",
			mcp.Required(),
			mcp.Description("Semicolon separated record line"),
		),
		formatOption,
	)
	s.addTool(parseRecordTool, s.handleParseRecord)

	serverInfoTool := mcp.NewTool(
		descriptions.ServerInfoTool,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	)
	s.addTool(serverInfoTool, s.handleServerInfo)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools = append(s.tools, tool)
	s.mcpServer.AddTool(tool, handler)
}

func (s *Server) handleDecodeFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	input, err := certificate.ParseInputType(request.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := s.paths.NormalizePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.service.DecodeFile(resolved, input)
	return s.respond(request, res, err)
}

func (s *Server) handleDecodePayload(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.service.FromBase64(text)
	return s.respond(request, res, err)
}

func (s *Server) handleParseRecord(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := request.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.service.FromRecordLine(line)
	return s.respond(request, res, err)
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

// respond turns a pipeline outcome into a tool result. Pipeline failures are
// reported as tool errors, not protocol errors.
func (s *Server) respond(request mcp.CallToolRequest, res *certificate.Result, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if s.config.IsDebug() {
			log.Printf("%s failed: %v", request.Params.Name, err)
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	if err := certificate.Write(&b, request.GetString("format", certificate.FormatText), res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) formatServerInfo() string {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Certificate Directory: %s\n", s.paths.Directory())
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("PDF Backend: %s\n", s.config.Backend())

	key := s.config.PublicKey
	if key == "" {
		key = "embedded issuer key"
	}
	text += fmt.Sprintf("Public Key: %s\n", key)

	text += "\nAvailable Tools:\n"
	for _, tool := range s.tools {
		summary, _, _ := strings.Cut(tool.Description, "\n")
		text += fmt.Sprintf("  - %s: %s\n", tool.Name, summary)
	}

	inputs := make([]string, 0, len(certificate.InputTypes()))
	for _, in := range certificate.InputTypes() {
		inputs = append(inputs, string(in))
	}
	text += fmt.Sprintf("\nSupported Input Types: auto, %s\n", strings.Join(inputs, ", "))

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting certificate MCP server in stdio mode")
		log.Printf("Certificate directory: %s", s.config.CertDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves the SSE transport until ctx is cancelled.
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting certificate MCP server on %s", addr)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
		if err := sse.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		return nil
	}
}
