package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/parser"
)

// Doses command flags.
var (
	dosesFlagAll bool
	dosesFlagOn  string
)

// dosesCmd shows the dose history.
var dosesCmd = &cobra.Command{
	Use:     "doses",
	Aliases: []string{"logs", "history"},
	Short:   "Show taken doses",
	Long: `Show doses recorded as taken.

Examples:
  pilltick doses                 # today
  pilltick doses --on yesterday
  pilltick doses --on 2026-08-30
  pilltick doses --all`,
	RunE: runDoses,
}

func init() {
	dosesCmd.Flags().BoolVar(&dosesFlagAll, "all", false,
		"Show the full history")
	dosesCmd.Flags().StringVar(&dosesFlagOn, "on", "",
		"Show doses for a specific day")

	rootCmd.AddCommand(dosesCmd)
}

// runDoses handles the doses command.
func runDoses(cmd *cobra.Command, args []string) error {
	var entries []*model.DoseLog
	var err error

	switch {
	case dosesFlagAll:
		entries, err = ctx.DoseLogRepo.List(ctx.UserID)
	case dosesFlagOn != "":
		day, perr := parser.ParseDay(dosesFlagOn)
		if perr != nil {
			return perr
		}
		entries, err = ctx.DoseLogRepo.ListOn(ctx.UserID, day)
	default:
		entries, err = ctx.DoseLogRepo.ListToday(ctx.UserID)
	}
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(entries)
	}

	ctx.CLIFormatter().PrintDoseLogs(entries)
	return nil
}
