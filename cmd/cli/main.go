// Command activities is a CLI client for the activities API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/and161185/activities/internal/api"
	"github.com/and161185/activities/internal/client"
	"github.com/and161185/activities/internal/store"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const usageText = `activities CLI
Usage:
  activities [-addr URL] [-timeout DUR] <cmd> [args]

Commands:
  version
  list       [-grouped]
  get        -id <id>
  create     [-id <id>] -title T -description D -category C -date 2020-01-01T18:00 -city C -venue V
  edit       -id <id> [-title T] [-description D] [-category C] [-date D] [-city C] [-venue V]
  rm         -id <id>
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses global flags and dispatches a subcommand. It returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("activities", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOr("ACTIVITIES_URL", "http://localhost:5000"), "server base URL")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	agent := client.New(*addr, client.WithHTTPClient(&http.Client{Timeout: *timeout}))
	s := store.New(agent)
	defer s.Close()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	var err error
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "activities %s (%s)\n", version, buildDate)
	case "list":
		err = cmdList(ctx, s, rest, stdout)
	case "get":
		err = cmdGet(ctx, s, rest, stdout)
	case "create":
		err = cmdCreate(ctx, s, rest, stdout)
	case "edit":
		err = cmdEdit(ctx, s, rest, stdout)
	case "rm":
		err = cmdRemove(ctx, s, rest, stdout)
	default:
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, describe(err))
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// describe renders a failure as kind=<kind> msg=<msg> field=<name:message>...
func describe(err error) string {
	var ce *client.Error
	if !errors.As(err, &ce) {
		return fmt.Sprintf("kind=error msg=%q", err.Error())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "kind=%s msg=%q", ce.Kind, ce.Message)
	names := make([]string, 0, len(ce.Fields))
	for name := range ce.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " field=%s:%q", name, ce.Fields[name])
	}
	if ce.Kind == api.KindUnavailable && ce.Unwrap() != nil {
		fmt.Fprintf(&b, " cause=%q", ce.Unwrap().Error())
	}
	return b.String()
}
