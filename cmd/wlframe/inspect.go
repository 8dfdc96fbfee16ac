package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/1broseidon/wlframe/internal/config"
	"github.com/1broseidon/wlframe/internal/ipc"
	"github.com/1broseidon/wlframe/internal/runtimepath"
)

type inspectFlags struct {
	socket     string
	configPath string
	json       bool
}

func newInspectFlags(name, summary string, stderr io.Writer) (*flag.FlagSet, *inspectFlags) {
	f := &inspectFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.socket, "socket", "", "Inspection socket (default: ipc.socket from config, then $WLFRAME_SOCKET, then the runtime dir)")
	fs.StringVar(&f.configPath, "path", "", "Config file path (default: $WLFRAME_CONFIG, then the XDG config dir)")
	fs.BoolVar(&f.json, "json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: wlframe %s [--socket PATH] [--json]\n\n", name)
		fmt.Fprintln(stderr, summary)
		fmt.Fprintln(stderr, "")
		fs.PrintDefaults()
	}
	return fs, f
}

// client resolves the socket and returns a client for it.
func (f *inspectFlags) client() (*ipc.Client, error) {
	configured := f.socket
	if configured == "" {
		res, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		configured = res.Config.IPC.Socket
	}
	path, err := runtimepath.SocketPath(configured)
	if err != nil {
		return nil, err
	}
	return ipc.NewClient(path), nil
}

func runStatus(args []string, stdout, stderr io.Writer) int {
	fs, f := newInspectFlags("status", "Show the status of a session served by 'wlframe replay --serve'.", stderr)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := f.client()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if f.json {
		if err := printJSON(stdout, status); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}
	newPrinter(stdout).status(status.Status, status.Source)
	return 0
}

func runWindows(args []string, stdout, stderr io.Writer) int {
	fs, f := newInspectFlags("windows", "List the windows of a served session.", stderr)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := f.client()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	data, err := client.GetWindows()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if f.json {
		if err := printJSON(stdout, data); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}
	newPrinter(stdout).windows(data)
	return 0
}

func runOffers(args []string, stdout, stderr io.Writer) int {
	fs, f := newInspectFlags("offers", "List the live data offers of a served session.", stderr)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "offers takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := f.client()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	data, err := client.GetOffers()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if f.json {
		if err := printJSON(stdout, data); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}
	newPrinter(stdout).offers(data)
	return 0
}
