package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/fds-extractor/internal/config"
	"github.com/a3tai/fds-extractor/internal/descriptions"
	"github.com/a3tai/fds-extractor/internal/hazard"
	"github.com/a3tai/fds-extractor/internal/pdf"
	"github.com/a3tai/fds-extractor/internal/report"
)

// Server exposes the extractor as MCP tools
type Server struct {
	config    *config.Config
	paths     *PathValidator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := NewPathValidator(cfg.RootDir)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		paths:     paths,
		logger:    logger,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

// scanOptions are the arguments shared by both extraction tools
func scanOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("mode",
			mcp.Description("'mapped' reports mapping categories, 'raw' reports hazard codes"),
			mcp.Enum(string(pdf.ModeMapped), string(pdf.ModeRaw)),
		),
		mcp.WithString("mapping",
			mcp.Description("Mapping table (term,category,flag); required in mapped mode"),
		),
		mcp.WithString("filter",
			mcp.Description("Mapping entries searched in mapped mode"),
			mcp.Enum(string(hazard.FilterPictogram), string(hazard.FilterText), string(hazard.FilterAll)),
		),
		mcp.WithString("pages",
			mcp.Description("Zero-based pages, comma separated, or 'all' (default: 0)"),
		),
		mcp.WithBoolean("product_data",
			mcp.Description("Also read product name, code and UFI from the first page"),
		),
	}
}

func (s *Server) registerTools() {
	folderOpts := append([]mcp.ToolOption{
		mcp.WithDescription(descriptions.ExtractFolderDescription),
		mcp.WithString("directory",
			mcp.Description("Folder to walk (uses the server directory if empty)"),
		),
		mcp.WithNumber("workers",
			mcp.Description("Documents processed in parallel"),
		),
	}, scanOptions()...)
	s.mcpServer.AddTool(mcp.NewTool(descriptions.ExtractFolderTool, folderOpts...), s.handleExtractFolder)

	fileOpts := append([]mcp.ToolOption{
		mcp.WithDescription(descriptions.ExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	}, scanOptions()...)
	s.mcpServer.AddTool(mcp.NewTool(descriptions.ExtractFileTool, fileOpts...), s.handleExtractFile)

	s.mcpServer.AddTool(mcp.NewTool(descriptions.ProductCodeTool,
		mcp.WithDescription(descriptions.ProductCodeDescription),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("File name or path of the sheet"),
		),
	), s.handleProductCode)
}

func (s *Server) handleExtractFolder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory, err := s.paths.Resolve(stringArg(args, "directory"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	svc, err := s.newService(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, err := svc.ExtractFolder(ctx, directory, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.recordsResult(records)
}

func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.paths.ResolveFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	svc, err := s.newService(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	record, err := svc.ExtractFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.recordsResult([]pdf.DocumentRecord{record})
}

func (s *Server) handleProductCode(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(hazard.ProductCode(name)), nil
}

// newService builds a pipeline from the tool arguments, falling back to the
// server configuration for anything not given
func (s *Server) newService(args map[string]any) (*pdf.Service, error) {
	mode, err := pdf.ParseMode(orDefault(stringArg(args, "mode"), s.config.Mode))
	if err != nil {
		return nil, err
	}
	filter, err := hazard.ParseFilter(orDefault(stringArg(args, "filter"), s.config.Filter))
	if err != nil {
		return nil, err
	}
	pages, err := pdf.ParsePages(orDefault(stringArg(args, "pages"), s.config.Pages))
	if err != nil {
		return nil, err
	}

	opts := pdf.Options{
		Mode:        mode,
		Filter:      filter,
		Pages:       pages,
		Workers:     s.config.Workers,
		MaxFileSize: s.config.MaxFileSize,
		Product:     s.config.ProductLabels(),
	}
	if w, ok := args["workers"].(float64); ok && w >= 1 {
		opts.Workers = int(w)
	}
	if on, ok := args["product_data"].(bool); ok {
		opts.Product = nil
		if on {
			opts.Product = &pdf.ProductLabels{Name: s.config.NameLabel, Code: s.config.CodeLabel, UFI: s.config.UFILabel}
		}
	}

	if mode == pdf.ModeMapped {
		mappingPath := stringArg(args, "mapping")
		if mappingPath == "" {
			return nil, fmt.Errorf("mapped mode requires the mapping argument")
		}
		mappingPath, err = s.paths.ResolveFile(mappingPath)
		if err != nil {
			return nil, err
		}
		delimiter, err := s.config.Delimiter()
		if err != nil {
			return nil, err
		}
		opts.Mapping, err = hazard.LoadMapping(mappingPath, delimiter, s.logger)
		if err != nil {
			return nil, err
		}
	}

	return pdf.NewService(opts, s.logger)
}

// recordsResult renders records as the JSON array of the extractor CLI and
// checks it against the published schema before answering
func (s *Server) recordsResult(records []pdf.DocumentRecord) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, records); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := report.ValidateJSON(buf.Bytes()); err != nil {
		s.logger.Error("tool output failed schema validation", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// Serve speaks MCP over in and out until ctx is done or in is closed
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP server", "directory", s.paths.Root(), "tools", descriptions.GetAllToolNames())

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	if err := stdio.Listen(ctx, in, out); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
