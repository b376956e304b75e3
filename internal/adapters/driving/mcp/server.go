package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medisimplify/medisimplify/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

const shutdownTimeout = 5 * time.Second

// Server exposes the document record store to MCP clients.
type Server struct {
	ports  *Ports
	server *mcp.Server

	mu   sync.Mutex
	addr string
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "medisimplify",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, nil),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Addr returns the bound HTTP address, or "" until RunHTTP is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
// Logs go to stderr so they never mix with the protocol stream.
func (s *Server) Run(ctx context.Context) error {
	s.logStartup(ctx, "stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
// Port 0 picks a free port; Addr reports the one chosen.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.logStartup(ctx, "http://"+ln.Addr().String())

	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	err = httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("mcp: stopped serving %s", ln.Addr())
		return nil
	}
	return err
}

// logStartup records the transport and how many documents are exposed.
func (s *Server) logStartup(ctx context.Context, transport string) {
	count, err := s.ports.Documents.Count(ctx)
	if err != nil {
		logger.Warn("mcp: counting documents: %v", err)
		logger.Info("mcp: serving over %s", transport)
		return
	}
	logger.Info("mcp: serving %d documents over %s", count, transport)
}
