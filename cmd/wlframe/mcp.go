package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/wlframe/internal/config"
	"github.com/1broseidon/wlframe/internal/logging"
	"github.com/1broseidon/wlframe/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wlframe mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'wlframe mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs, f := newInspectFlags("mcp serve", "Start the MCP server on stdio. Tools query the session served by\n'wlframe replay --serve' over its inspection socket.", os.Stderr)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	res, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	// stdout carries the MCP protocol; logs go to the configured file or stderr.
	logger, closer, err := logging.New(loggingOptions(res.Config, false, os.Stderr))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		return 1
	}
	defer closer.Close()

	client, err := f.client()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	server := mcp.NewServer(client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP server error", "error", err)
		return 1
	}
	return 0
}
