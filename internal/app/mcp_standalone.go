package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pagebuilder/internal/config"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
)

// ServeMCP runs the builder as a standalone MCP server on stdin/stdout with
// no GUI. Edits are autosaved; a running desktop app picks them up through
// its page watcher.
func ServeMCP(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stack, err := OpenStack(cfg, service.NopEmitter{})
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(context.Background()); err != nil {
			log.Printf("[MCP] shutdown: %v", err)
		}
	}()

	if err := stack.Autosaver.Start(ctx); err != nil {
		return err
	}

	// Standalone mode has no frontend to answer approvals.
	mcpSrv := mcpserver.New(mcpserver.Deps{
		Emitter: service.NopEmitter{},
		Editor:  stack.Editor,
		Pages:   stack.Pages,
		Publish: stack.Publish,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Println("[MCP] Starting standalone stdio server...")
		errCh <- mcpSrv.ServeStdio()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
