package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeAdmin   = "admin-service"
	ModeConsole = "console"
	ModeToken   = "token"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "config/config.yaml"

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeAdmin, "admin", "a":
		return ModeAdmin, true
	case ModeConsole, "monitor", "c":
		return ModeConsole, true
	case ModeToken, "key", "t":
		return ModeToken, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `console --config=prod.yaml`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := range args {
		arg := args[i]
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<service>")
	}

	m, ok := isKnownMode(mode)
	if !ok {
		return "", out, fmt.Errorf("unknown mode %q", mode)
	}

	return m, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./ride-console --mode=<service> [flags]

Services (modes):
  admin-service     Ride aggregation API (active rides + driver telemetry)
  console           Live monitoring console (pollers, map sync, view socket)
  token             Mint an operator token for the console or the API

Examples:
  ./ride-console --mode=admin-service --config=config/config.yaml --max-concurrent=50
  ./ride-console --mode=console --config=config/config.yaml
  ./ride-console --mode=token --subject=ops-1 --role=OPERATOR`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./ride-console --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
