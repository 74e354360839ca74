package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"climbd/internal/activity"
	"climbd/internal/config"
	"climbd/internal/flow"
	"climbd/internal/token"
	"climbd/internal/tui"
)

// parseFlags parses a subcommand's flags. It returns done when --help was
// printed.
func parseFlags(flagSet *pflag.FlagSet, args []string, usage string) (done bool, err error) {
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s\n\nFlags:\n", usage)
		flagSet.SetOutput(os.Stderr)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return false, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return false, nil
}

func runTUI(ctx context.Context, cfg config.Config, global globalFlags) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the interactive form needs a terminal; use climbd login and climbd upload instead")
	}

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	receiver, err := a.receiver()
	if err != nil {
		return err
	}

	bridge := tui.NewBridge()
	deps := a.deps(bridge, bridge)
	present := bridge.Present
	if !global.noBrowser {
		present = func(url string) {
			bridge.Present(url)
			openBrowser(url, a.logger)
		}
	}

	model := tui.New(ctx, tui.Options{
		Router:    flow.NewEntryRouter(deps),
		Auth:      flow.NewAuthFlow(deps, receiver, a.relay, present),
		Submitter: flow.NewSubmitter(deps, a.relay, a.journal),
		Form:      activity.NewForm(time.Now()),
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.SetProgram(program)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runLogin(ctx context.Context, cfg config.Config, global globalFlags, args []string) error {
	flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
	if done, err := parseFlags(flagSet, args, "climbd login"); done || err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	receiver, err := a.receiver()
	if err != nil {
		return err
	}

	out := newPrinter(os.Stderr)
	present := func(url string) {
		fmt.Fprintf(os.Stderr, "Open this link to authorize climbd:\n\n  %s\n\nWaiting for Strava (Ctrl-C to cancel)...\n", url)
		if !global.noBrowser {
			openBrowser(url, a.logger)
		}
	}

	auth := flow.NewAuthFlow(a.deps(out, out), receiver, a.relay, present)
	if auth.Login(ctx) != flow.StateAuthenticated {
		return exitFailed
	}
	fmt.Fprintln(os.Stderr, "Signed in to Strava.")
	return nil
}

// uploadFlags maps form fields to their flag names.
var uploadFlags = []struct {
	field activity.Field
	usage string
}{
	{activity.FieldTitle, "activity title"},
	{activity.FieldDistance, "distance in km"},
	{activity.FieldDuration, "duration as hh:mm:ss"},
	{activity.FieldDate, "start date as dd/mm/yyyy (default today)"},
	{activity.FieldTime, "start time as hh:mm (default now)"},
	{activity.FieldIncline, "treadmill incline in %"},
	{activity.FieldElevation, "elevation gain in m (default distance × incline × 10)"},
}

func runUpload(ctx context.Context, cfg config.Config, args []string) error {
	flagSet := pflag.NewFlagSet("upload", pflag.ContinueOnError)
	values := make(map[activity.Field]*string, len(uploadFlags))
	for _, f := range uploadFlags {
		values[f.field] = flagSet.String(f.field.String(), "", f.usage)
	}
	if done, err := parseFlags(flagSet, args, "climbd upload --title T --distance KM --duration HH:MM:SS [flags]"); done || err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	form := uploadForm(time.Now(), values, flagSet.Changed)

	out := newPrinter(os.Stderr)
	submitter := flow.NewSubmitter(a.deps(out, out), a.relay, a.journal)
	return outcomeError(submitter.Submit(ctx, form))
}

// uploadForm fills a form from the flags that were set. An explicit
// elevation wins over the derived one.
func uploadForm(now time.Time, values map[activity.Field]*string, changed func(name string) bool) *activity.Form {
	form := activity.NewForm(now)

	initial := make(map[activity.Field]string)
	for field, value := range values {
		if field != activity.FieldElevation && changed(field.String()) {
			initial[field] = *value
		}
	}
	form.Apply(initial)

	if changed(activity.FieldElevation.String()) {
		form.Apply(map[activity.Field]string{activity.FieldElevation: *values[activity.FieldElevation]})
	}
	return form
}

func runLogout(ctx context.Context, cfg config.Config, args []string) error {
	flagSet := pflag.NewFlagSet("logout", pflag.ContinueOnError)
	if done, err := parseFlags(flagSet, args, "climbd logout"); done || err != nil {
		return err
	}

	tokens := token.NewStore(storageFor(cfg))
	if err := tokens.ClearAll(ctx); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Signed out.")
	return nil
}

func runStatus(ctx context.Context, cfg config.Config, args []string) error {
	flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
	if done, err := parseFlags(flagSet, args, "climbd status"); done || err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	out := newPrinter(os.Stderr)
	route := flow.NewEntryRouter(a.deps(out, out)).Route(ctx)
	if route != flow.RouteUploadActivity {
		fmt.Println("signed out")
		return nil
	}

	expiresAt, err := a.tokens.ExpiresAt(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("signed in, token expires %s\n", describeExpiry(expiresAt))
	return nil
}

// describeExpiry renders a stored expires_at for humans.
func describeExpiry(expiresAt string) string {
	secs := token.ParseInt(expiresAt)
	if math.IsNaN(secs) || secs <= 0 {
		return fmt.Sprintf("at %q (unreadable, treated as valid)", expiresAt)
	}
	return time.Unix(int64(secs), 0).Local().Format(time.RFC1123)
}
