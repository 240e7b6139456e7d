// Package cmd provides the CLI commands for Pilltick.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/output"
	"github.com/hojoonlee/pilltick/internal/runtime"
	"github.com/hojoonlee/pilltick/internal/schedule"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagUser   string
	flagDebug  bool
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pilltick",
	Short: "Medication alarm scheduler and reminder daemon",
	Long: `Pilltick schedules medication alarms from your registered medicines
and fires them on time, with snooze, dose logging, and push delivery
to subscribed devices.

Examples:
  pilltick medicine add Aspirin --at 8am --at 8pm
  pilltick alarm list
  pilltick daemon start
  pilltick doses --on yesterday`,
	// Errors are printed once, through Die, with their follow-up hint.
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagDebug {
			logging.InitDebug()
		} else {
			logging.Init(logging.DefaultConfig())
		}

		if !needsRuntime(cmd) {
			return nil
		}

		var format output.Format
		switch flagFormat {
		case "json":
			format = output.FormatJSON
		case "plain":
			format = output.FormatPlain
		default:
			format = output.FormatCLI
		}

		var colorMode output.ColorMode
		switch flagColor {
		case "always":
			colorMode = output.ColorAlways
		case "never":
			colorMode = output.ColorNever
		default:
			colorMode = output.ColorAuto
		}

		opts := runtime.DefaultOptions()
		opts.Format = format
		opts.ColorMode = colorMode
		opts.Debug = flagDebug
		if flagUser != "" {
			opts.UserID = flagUser
		}

		var err error
		ctx, err = runtime.New(opts)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			return ctx.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: show today's alarm schedule
		return runAlarmList(cmd, args)
	},
}

// needsRuntime reports whether the command requires the shared context.
// Daemon management commands talk to the PID file only; the running daemon
// holds the store lock, so opening the store here would conflict.
func needsRuntime(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "completion", "help", "version", "__complete":
		return false
	// take and snooze reach the running daemon over its control socket;
	// the daemon owns the store.
	case "take", "snooze":
		return false
	}

	// Test sends only call the collaborator; they work while the daemon
	// is running.
	if cmd.Name() == "test" && cmd.Parent() != nil {
		switch cmd.Parent().Name() {
		case "alarm", "push":
			return false
		}
	}

	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "daemon" {
			// Foreground start runs the daemon in this process and owns
			// the store for its lifetime.
			return cmd.Name() == "start" && daemonStartFlagForeground
		}
	}
	return true
}

// runAlarmList shows the merged alarm schedule.
func runAlarmList(cmd *cobra.Command, args []string) error {
	medicines, err := ctx.MedicineRepo.ListEnabled(ctx.UserID)
	if err != nil {
		return err
	}

	groups := schedule.BuildTriggerGroups(medicines)

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(groups)
	}

	ctx.CLIFormatter().PrintTriggerGroups(groups)
	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately. A command error is printed with its follow-up hint and
// ends the process.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		Die(err)
	}
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "",
		"User the command acts for (default: PILLTICK_USER or \"default\")")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("pilltick %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
	},
}

// Die prints an error and exits.
func Die(err error) {
	os.Stderr.WriteString("Error: " + runtime.FormatError(err) + "\n")
	if hint := runtime.GetSuggestion(err); hint != "" {
		os.Stderr.WriteString(hint + "\n")
	}
	os.Exit(1)
}
