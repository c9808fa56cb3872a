package main

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/stepgraph/internal/config"
	"github.com/dusk-indust/stepgraph/internal/graphindex"
	"github.com/dusk-indust/stepgraph/internal/mcptools"
	"github.com/dusk-indust/stepgraph/internal/session"
)

func newMCPService(sess *session.Session, cfg config.Config, logger *zap.Logger) *mcptools.WorkflowService {
	return mcptools.NewWorkflowService(sess,
		mcptools.WithAnalysisBackend(graphindex.Backend(cfg.Analysis.Backend)),
		mcptools.WithLogger(logger.Named("mcp")),
	)
}

// runServeStdio serves the MCP tools on stdin/stdout. Logs stay on stderr.
func runServeStdio(ctx context.Context, sess *session.Session, cfg config.Config, logger *zap.Logger) error {
	server := mcptools.NewMCPServer(newMCPService(sess, cfg, logger))
	logger.Info("serving MCP on stdio")
	return mcptools.RunStdio(ctx, server)
}

// runServeHTTP serves the MCP tools over streamable HTTP and logs session
// events until ctx is cancelled.
func runServeHTTP(ctx context.Context, sess *session.Session, cfg config.Config, logger *zap.Logger) error {
	server := mcptools.NewMCPServer(newMCPService(sess, cfg, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving MCP over HTTP", zap.String("addr", cfg.MCP.Addr))
		return mcptools.RunHTTP(gctx, server, cfg.MCP.Addr)
	})
	g.Go(func() error {
		logEvents(gctx, sess.Events(), logger.Named("events"))
		return nil
	})
	return g.Wait()
}

// logEvents writes session events to the logger until ctx is done or the
// stream closes.
func logEvents(ctx context.Context, events <-chan session.Event, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			logger.Debug("request status",
				zap.Uint64("request", ev.RequestID),
				zap.String("status", string(ev.Status)),
				zap.String("message", ev.Message),
			)
		}
	}
}
