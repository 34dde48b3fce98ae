package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminservice "ride-console/cmd/admin_service"
	consoleapp "ride-console/cmd/console"
	"ride-console/internal/cli"
	"ride-console/internal/general/config"
)

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse mode and collect the remaining args for that mode
	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch mode {

	case cli.ModeAdmin:
		fs := flag.NewFlagSet(cli.ModeAdmin, flag.ContinueOnError)
		cfgPath := fs.String("config", cli.DefaultConfigPath, "Path to the YAML config file")
		maxConc := fs.Int("max-concurrent", 50, "Maximum number of concurrent HTTP requests to process")
		cli.AttachUsage(fs, cli.ModeAdmin)

		parseOrExit(fs, svcArgs)
		if *maxConc < 1 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if err := adminservice.Run(ctx, *cfgPath, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeConsole:
		fs := flag.NewFlagSet(cli.ModeConsole, flag.ContinueOnError)
		cfgPath := fs.String("config", cli.DefaultConfigPath, "Path to the YAML config file")
		cli.AttachUsage(fs, cli.ModeConsole)

		parseOrExit(fs, svcArgs)
		if err := consoleapp.Run(ctx, *cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeToken:
		fs := flag.NewFlagSet(cli.ModeToken, flag.ContinueOnError)
		subject := fs.String("subject", "", "Operator or service account id (token subject)")
		role := fs.String("role", "OPERATOR", "Role: ADMIN | OPERATOR")
		secret := fs.String("secret", "", "JWT HMAC secret (HS256); read from --config when empty")
		cfgPath := fs.String("config", cli.DefaultConfigPath, "Path to the YAML config file")
		ttl := fs.Duration("ttl", 2*time.Hour, "Token lifetime")
		cli.AttachUsage(fs, cli.ModeToken)

		parseOrExit(fs, svcArgs)
		if *subject == "" {
			fmt.Fprintln(os.Stderr, "Error: --subject is required")
			fs.Usage()
			os.Exit(2)
		}
		if *secret == "" {
			cfg, err := config.LoadFromFile(*cfgPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				os.Exit(1)
			}
			*secret = cfg.JWT.SecretKey
		}

		token, claims, err := cli.GenerateOperatorToken(*secret, *ttl, *subject, *role)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

		fmt.Println("TOKEN:")
		fmt.Println(token)
		fmt.Println("\nCLAIMS:")
		fmt.Printf("  sub:  %s\n", claims.Subject)
		fmt.Printf("  role: %s\n", claims.Role)
		fmt.Printf("  iat:  %s\n", claims.IssuedAt.Time.UTC().Format(time.RFC3339))
		fmt.Printf("  exp:  %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
		return

	default:
		// should not happen because ParseMode validates known modes
		fmt.Fprintln(os.Stderr, "Error: unknown mode")
		os.Exit(2)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}

// parseOrExit parses mode flags, exiting 0 on -h and 2 on bad flags.
func parseOrExit(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
