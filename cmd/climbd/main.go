// climbd logs treadmill runs to Strava as manual activities.
//
// Without a subcommand it opens the interactive TUI: a login screen when
// there is no valid stored token, otherwise the activity form. The same
// flows are available non-interactively:
//
//	climbd login     authorize with Strava in the browser
//	climbd upload    upload one activity described by flags
//	climbd logout    forget the stored tokens
//	climbd status    show whether a valid token is stored
//	climbd version   print the version
//
// Strava's client secret never reaches this program: the authorization
// code exchange and the upload go through relay functions hosted on
// Supabase.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"climbd/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are accepted before the subcommand.
type globalFlags struct {
	configPath string
	noBrowser  bool
}

func run() error {
	var global globalFlags

	flagSet := pflag.NewFlagSet("climbd", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&global.configPath, "config", os.Getenv("CLIMBD_CONFIG"), "path to the YAML config file")
	flagSet.BoolVar(&global.noBrowser, "no-browser", false, "print the Strava authorize URL instead of opening a browser")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	command := ""
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	if command == "version" {
		fmt.Printf("climbd %s\n", version)
		return nil
	}

	cfg, err := config.Load(global.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "":
		return runTUI(ctx, cfg, global)
	case "login":
		return runLogin(ctx, cfg, global, args)
	case "upload":
		return runUpload(ctx, cfg, args)
	case "logout":
		return runLogout(ctx, cfg, args)
	case "status":
		return runStatus(ctx, cfg, args)
	default:
		return fmt.Errorf("unknown command %q (run climbd --help)", command)
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `climbd logs treadmill runs to Strava.

Usage:
  climbd [flags]            open the interactive form
  climbd [flags] login      authorize with Strava
  climbd [flags] upload     upload one activity (see climbd upload --help)
  climbd [flags] logout     forget the stored tokens
  climbd [flags] status     show the login state
  climbd version            print the version

Configuration is read from --config or CLIMBD_CONFIG; environment
variables such as STRAVA_CLIENT_ID and CLIMBD_RELAY_URL override it.

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
