package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/wlframe/internal/config"
	"github.com/1broseidon/wlframe/internal/logging"
	"github.com/1broseidon/wlframe/internal/window"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "replay":
		os.Exit(runReplay(os.Args[2:], os.Stdout, os.Stderr))
	case "status":
		os.Exit(runStatus(os.Args[2:], os.Stdout, os.Stderr))
	case "windows":
		os.Exit(runWindows(os.Args[2:], os.Stdout, os.Stderr))
	case "offers":
		os.Exit(runOffers(os.Args[2:], os.Stdout, os.Stderr))
	case "watch":
		os.Exit(runWatch(os.Args[2:], os.Stderr))
	case "config":
		os.Exit(runConfig(os.Args[2:], os.Stdout, os.Stderr))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wlframe <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  replay <trace>      Replay a recorded session against the headless compositor")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  status              Show the status of a served session")
	fmt.Fprintln(w, "  windows             List windows of a served session")
	fmt.Fprintln(w, "  offers              List data offers of a served session")
	fmt.Fprintln(w, "  watch               Live view of a served session")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'wlframe <command> --help' for command-specific options.")
}

// parseFlags parses args and maps -h to a zero exit code.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

// sessionOptions maps the configuration onto session options.
func sessionOptions(cfg *config.Config) window.Options {
	opts := window.DefaultOptions()
	opts.Style = cfg.Style()
	opts.PreferServerSide = cfg.Decorations.PreferServerSide
	opts.UseFrameLibrary = cfg.Decorations.UseFrameLibrary
	opts.CursorSize = cfg.Cursor.Size
	opts.RepeatRate = cfg.Keyboard.RepeatRate
	opts.RepeatDelay = cfg.RepeatDelay()
	opts.MaxMimesPerOffer = cfg.Clipboard.MaxMimesPerOffer
	opts.SelfOfferFastPath = cfg.Clipboard.SelfOfferFastPath
	opts.ActivationTimeout = cfg.ActivationTimeout()
	return opts
}

// loggingOptions maps the configuration onto logger options. verbose
// forces debug output.
func loggingOptions(cfg *config.Config, verbose bool, stderr io.Writer) logging.Options {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.Options{
		Level:     level,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
		MaxFiles:  cfg.LogMaxFiles,
		Stderr:    stderr,
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		return "default"
	default:
		return string(src.Kind)
	}
}
