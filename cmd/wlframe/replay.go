package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/wlframe/internal/config"
	"github.com/1broseidon/wlframe/internal/dispatch"
	"github.com/1broseidon/wlframe/internal/ipc"
	"github.com/1broseidon/wlframe/internal/logging"
	"github.com/1broseidon/wlframe/internal/runtimepath"
	"github.com/1broseidon/wlframe/internal/trace"
	"github.com/1broseidon/wlframe/internal/window"
)

// replayEpoch is the manual clock start for deterministic replays.
var replayEpoch = time.Unix(1700000000, 0)

func runReplay(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("path", "", "Config file path (default: $WLFRAME_CONFIG, then the XDG config dir)")
	serve := fs.Bool("serve", false, "Run through the dispatch loop in real time and serve the inspection socket")
	hold := fs.Bool("hold", false, "With --serve, keep serving after the trace ends until interrupted")
	socket := fs.String("socket", "", "Inspection socket path (default: ipc.socket from config)")
	verbose := fs.Bool("v", false, "Log at debug level")
	asJSON := fs.Bool("json", false, "Print the transcript and final status as JSON")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: wlframe replay [options] <trace.yaml>")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Replay a recorded session against the headless compositor and print")
		fmt.Fprintln(stderr, "what the session reported. Without --serve the replay runs on a manual")
		fmt.Fprintln(stderr, "clock and is deterministic.")
		fmt.Fprintln(stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "replay requires exactly one trace file")
		fs.Usage()
		return 2
	}
	if *hold && !*serve {
		fmt.Fprintln(stderr, "--hold requires --serve")
		return 2
	}
	tracePath := fs.Arg(0)

	res, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg := res.Config

	logger, closer, err := logging.New(loggingOptions(cfg, *verbose, stderr))
	if err != nil {
		fmt.Fprintf(stderr, "failed to set up logging: %v\n", err)
		return 1
	}
	defer closer.Close()

	tr, err := trace.Load(tracePath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	opts := sessionOptions(cfg)
	opts.Logger = logger

	var clock *trace.ManualClock
	var now func() time.Time
	if !*serve {
		clock = trace.NewManualClock(replayEpoch)
		now = clock.Now
	}
	env, err := trace.NewEnv(tr, opts, now)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer env.Session.Close()

	logger.Info("replaying trace", "path", tracePath, "steps", len(tr.Steps), "serve", *serve)

	var status window.Status
	var runErr error
	if *serve {
		sockPath := *socket
		if sockPath == "" {
			sockPath = cfg.IPC.Socket
		}
		sockPath, err = runtimepath.SocketPath(sockPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		status, runErr = replayServed(env, tr, servedReplay{
			socket:    sockPath,
			source:    tracePath,
			queueSize: cfg.IPC.QueueSize,
			hold:      *hold,
		}, logger, stderr)
	} else {
		runErr = trace.NewPlayer(env, &trace.Direct{Session: env.Session, Clock: clock}, logger).Run(tr)
		status = env.Session.Status()
	}

	if *asJSON {
		out := struct {
			Transcript []string      `json:"transcript"`
			Status     window.Status `json:"status"`
			Error      string        `json:"error,omitempty"`
		}{Transcript: env.Recorder.Lines(), Status: status}
		if runErr != nil {
			out.Error = runErr.Error()
		}
		if err := printJSON(stdout, out); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	} else {
		p := newPrinter(stdout)
		p.section("transcript")
		for _, line := range env.Recorder.Lines() {
			p.line(line)
		}
		p.status(status, tracePath)
	}

	if runErr != nil {
		fmt.Fprintf(stderr, "replay failed: %v\n", runErr)
		return 1
	}
	return 0
}

type servedReplay struct {
	socket    string
	source    string
	queueSize int
	hold      bool
}

// replayServed runs the trace through a dispatch loop while serving the
// inspection socket. With hold set it keeps serving until interrupted.
func replayServed(env *trace.Env, tr *trace.Trace, cfg servedReplay, logger *slog.Logger, stderr io.Writer) (window.Status, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := dispatch.New(env.Session, dispatch.Config{QueueSize: cfg.queueSize, Logger: logger})
	go loop.Run(ctx)

	srv, err := ipc.NewServer(loop, ipc.ServerConfig{
		SocketPath: cfg.socket,
		Source:     cfg.source,
		Logger:     logger,
	})
	if err != nil {
		return window.Status{}, err
	}
	if err := srv.Start(); err != nil {
		return window.Status{}, err
	}
	defer srv.Stop()

	runErr := trace.NewPlayer(env, &trace.Looped{Ctx: ctx, Loop: loop}, logger).Run(tr)

	if cfg.hold && runErr == nil {
		fmt.Fprintf(stderr, "serving %s on %s, interrupt to stop\n", cfg.source, cfg.socket)
		select {
		case <-ctx.Done():
		case <-loop.Done():
		}
	}

	var status window.Status
	if err := loop.Call(ctx, func(s *window.Session) { status = s.Status() }); err != nil {
		// The loop is gone; nothing else touches the session now.
		<-loop.Done()
		status = env.Session.Status()
	}
	cancel()
	<-loop.Done()
	if runErr == nil {
		runErr = loop.Err()
	}
	return status, runErr
}
