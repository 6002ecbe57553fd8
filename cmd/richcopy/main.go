package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"richcopy/common"
	"richcopy/config"
	"richcopy/configure"
	"richcopy/export"
	"richcopy/misc"
	"richcopy/settings"
	"richcopy/state"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			// secrets are masked on dump
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}

	settingsFile := env.Cfg.Settings.Path
	if cmd.IsSet("settings") {
		settingsFile = cmd.String("settings")
	}
	store, err := settings.NewFileStore(settingsFile)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare settings store: %w", err)
	}
	env.Store = store
	if env.Settings, err = store.Load(); err != nil {
		return ctx, fmt.Errorf("unable to load settings: %w", err)
	}
	env.Rpt.Store("settings/"+filepath.Base(store.Path()), store.Path())
	env.Log.Debug("Settings loaded", zap.String("location", store.Path()), zap.String("profile", env.Settings.ActiveProfileName))
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Regular errors are returned from subcommands, cli.Exit() is not used.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	if log := state.EnvFromContext(ctx).Log; log != nil {
		log.Warn("Unknown command, nothing to do", zap.String("command", name))
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:         "profile",
		Usage:        "Manages style profiles",
		OnUsageError: usageErrorHandler,
		Commands: []*cli.Command{
			{Name: "list", Usage: "Lists profiles, active one is marked", Action: configure.ListProfiles},
			{Name: "add", Usage: "Adds profile", ArgsUsage: "NAME PATH", Action: configure.AddProfile},
			{Name: "remove", Usage: "Removes profile", ArgsUsage: "NAME", Action: configure.RemoveProfile},
			{Name: "rename", Usage: "Renames profile", ArgsUsage: "OLD NEW", Action: configure.RenameProfile},
			{Name: "path", Usage: "Changes stylesheet of the profile", ArgsUsage: "NAME PATH", Action: configure.SetProfilePath},
			{Name: "select", Usage: "Makes profile active, \"" + settings.DefaultProfileName + "\" selects ambient theme",
				ArgsUsage: "NAME", Action: configure.SelectProfile},
		},
		CustomHelpTemplate: fmt.Sprintf(`%s
PATH:
    stylesheet path relative to the vault root, profile stylesheet is used
    verbatim instead of the ambient theme
`, cli.CommandHelpTemplate),
	}
}

func imagesCommand() *cli.Command {
	return &cli.Command{
		Name:         "images",
		Usage:        "Sets how local images are handled",
		OnUsageError: usageErrorHandler,
		Commands: []*cli.Command{
			{Name: common.ImageHandlingEmbed.String(), Usage: "Embeds local images as data URIs",
				Action: configure.Images(common.ImageHandlingEmbed)},
			{Name: common.ImageHandlingKeepReference.String(), Usage: "Keeps image references as written",
				Action: configure.Images(common.ImageHandlingKeepReference)},
		},
	}
}

func main() {

	// allow graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "copies markdown documents as styled rich text",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
			&cli.StringFlag{Name: "settings", DefaultText: "", Usage: "keep user settings in `FILE` (YAML or JSON)"},
		},
		Commands: []*cli.Command{
			{
				Name:         "export",
				Usage:        "Copies document as rich text with computed styles inlined",
				OnUsageError: usageErrorHandler,
				Action:       export.Run,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sink", Usage: "artifact `DESTINATION` (supported: " + strings.Join(common.ClipboardSinkNames(), ", ") + ")"},
					&cli.StringFlag{Name: "engine", Usage: "rendering `ENGINE` (supported: " + strings.Join(common.EngineNames(), ", ") + ")"},
					&cli.StringFlag{Name: "out", Usage: "write artifact to `DIRECTORY` instead of clipboard"},
				},
				ArgsUsage: "DOCUMENT",
				CustomHelpTemplate: fmt.Sprintf(`%s
DOCUMENT:
    path to markdown document, vault root is taken from configuration or if
    absent - directory of the document

Active style profile and image handling mode come from user settings, see
"profile" and "images" commands.
`, cli.CommandHelpTemplate),
			},
			profileCommand(),
			imagesCommand(),
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputting configuration", zap.String("state", state), zap.String("file", fname))

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
