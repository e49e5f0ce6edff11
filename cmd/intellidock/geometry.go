package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/1broseidon/intellidock/internal/ipc"
)

func printGeometryUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  intellidock geometry list [--json]")
	fmt.Fprintln(w, "  intellidock geometry forget <wm_class>")
	fmt.Fprintln(w, "  intellidock geometry clear")
}

func runGeometry(args []string) int {
	if len(args) == 0 {
		printGeometryUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "list":
		return runGeometryList(args[1:])
	case "forget":
		return runGeometryForget(args[1:])
	case "clear":
		return runGeometryClear(args[1:])
	case "help", "-h", "--help":
		printGeometryUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown geometry command: %s\n\n", args[0])
		printGeometryUsage(os.Stderr)
		return 2
	}
}

func runGeometryList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print entries as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellidock geometry list [--json]")
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	entries, err := ipc.NewClient().ListGeometry()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("no remembered geometry")
		return 0
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "APP\tGEOMETRY\tUPDATED")
	for _, e := range entries {
		updated := "pending"
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%dx%d+%d+%d\t%s\n", e.AppID, e.Width, e.Height, e.X, e.Y, updated)
	}
	tw.Flush()
	return 0
}

func runGeometryForget(args []string) int {
	fs := flag.NewFlagSet("forget", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellidock geometry forget <wm_class>")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		fs.Usage()
		return 2
	}
	appID := strings.TrimSpace(fs.Arg(0))

	if err := ipc.NewClient().ForgetGeometry(appID); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("forgot %s\n", appID)
	return 0
}

func runGeometryClear(args []string) int {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: intellidock geometry clear")
	}
	if code := parseNoArgs(fs, args); code >= 0 {
		return code
	}

	n, err := ipc.NewClient().ClearGeometry()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("removed %d entries\n", n)
	return 0
}
