package mcpserver

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// EndpointPath is the streamable HTTP endpoint.
const EndpointPath = "/mcp"

// Serve runs s on stdio, or as streamable HTTP on addr when addr is set,
// until ctx is canceled or the transport ends.
func Serve(ctx context.Context, s *server.MCPServer, addr string) error {
	if addr == "" {
		slog.Info("Starting MCP server on stdio")
		if err := server.ServeStdio(s); err != nil {
			return errors.NetworkError("mcp stdio server failed").WithCause(err).Build()
		}
		return nil
	}

	httpServer := server.NewStreamableHTTPServer(s, server.WithEndpointPath(EndpointPath))
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting MCP server", logfields.URL("http://"+addr+EndpointPath))
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.NetworkError("mcp http server failed").WithCause(err).
				WithContext("addr", addr).
				Build()
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
