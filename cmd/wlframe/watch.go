package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/wlframe/internal/tui"
)

func runWatch(args []string, stderr io.Writer) int {
	fs, f := newInspectFlags("watch", "Open a live view of a served session.", stderr)
	interval := fs.Duration("interval", tui.DefaultInterval, "Refresh interval")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "watch takes no arguments")
		fs.Usage()
		return 2
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(stderr, "watch needs a terminal; use 'wlframe status --json' in scripts")
		return 2
	}

	client, err := f.client()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := tui.Run(client, *interval); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
