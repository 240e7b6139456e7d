package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/parser"
)

// Medicine command flags.
var (
	medicineAddFlagAt         []string
	medicineAddFlagDays       string
	medicineAddFlagDosage     string
	medicineAddFlagTiming     string
	medicineAddFlagSnoozeMax  int
	medicineAddFlagSnoozeMins int
)

// medicineCmd represents the medicine command.
var medicineCmd = &cobra.Command{
	Use:     "medicine [command]",
	Aliases: []string{"med", "m"},
	Short:   "Manage registered medicines",
	Long: `Manage the medicines that drive the alarm schedule.

Examples:
  pilltick medicine add Aspirin --at 8am --at 8pm
  pilltick medicine add "Vitamin D" --at 08:00 --days weekdays --dosage 1000IU
  pilltick medicine list
  pilltick medicine disable 3f2a1b
  pilltick medicine remove 3f2a1b`,
	RunE: runMedicineList,
}

// medicineAddCmd registers a new medicine.
var medicineAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a new medicine",
	Args:  cobra.ExactArgs(1),
	RunE:  runMedicineAdd,
}

// medicineListCmd lists all medicines.
var medicineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered medicines",
	RunE:  runMedicineList,
}

// medicineEnableCmd re-enables a disabled medicine.
var medicineEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a medicine's alarms",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setMedicineEnabled(args[0], true)
	},
}

// medicineDisableCmd disables a medicine without removing it.
var medicineDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a medicine's alarms",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setMedicineEnabled(args[0], false)
	},
}

// medicineRemoveCmd deletes a medicine.
var medicineRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a medicine",
	Args:    cobra.ExactArgs(1),
	RunE:    runMedicineRemove,
}

func init() {
	medicineAddCmd.Flags().StringArrayVar(&medicineAddFlagAt, "at", nil,
		"Dose time, repeatable (e.g. --at 8am --at 20:00)")
	medicineAddCmd.Flags().StringVar(&medicineAddFlagDays, "days", "",
		"Days: daily, weekdays, weekend, or a list like mon,wed,fri")
	medicineAddCmd.Flags().StringVar(&medicineAddFlagDosage, "dosage", "",
		"Dosage text shown in reminders (e.g. 100mg)")
	medicineAddCmd.Flags().StringVar(&medicineAddFlagTiming, "timing", "",
		"Meal timing: before_meal, after_meal, anytime")
	medicineAddCmd.Flags().IntVar(&medicineAddFlagSnoozeMax, "snooze-max", 0,
		"Max snoozes per alarm (0 = default)")
	medicineAddCmd.Flags().IntVar(&medicineAddFlagSnoozeMins, "snooze-interval", 0,
		"Snooze delay in minutes (0 = default)")

	medicineCmd.AddCommand(medicineAddCmd)
	medicineCmd.AddCommand(medicineListCmd)
	medicineCmd.AddCommand(medicineEnableCmd)
	medicineCmd.AddCommand(medicineDisableCmd)
	medicineCmd.AddCommand(medicineRemoveCmd)

	rootCmd.AddCommand(medicineCmd)
}

// runMedicineAdd handles the medicine add command.
func runMedicineAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("medicine name is required")
	}
	if len(medicineAddFlagAt) == 0 {
		return fmt.Errorf("at least one dose time is required (--at)")
	}

	times, err := parser.ParseDoseTimes(medicineAddFlagAt)
	if err != nil {
		return err
	}

	days, err := parser.ParseDays(medicineAddFlagDays)
	if err != nil {
		return err
	}

	med := model.NewMedicine(ctx.UserID, name, times, days)
	med.Dosage = medicineAddFlagDosage
	med.Timing = medicineAddFlagTiming
	med.SnoozeCount = medicineAddFlagSnoozeMax
	med.SnoozeInterval = medicineAddFlagSnoozeMins

	if err := ctx.MedicineRepo.Create(med); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(med)
	}

	cli := ctx.CLIFormatter()
	cli.Success(fmt.Sprintf("Added %s", name))
	cli.PrintMedicine(med)
	return nil
}

// runMedicineList handles the medicine list command.
func runMedicineList(cmd *cobra.Command, args []string) error {
	medicines, err := ctx.MedicineRepo.ListByUser(ctx.UserID)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(medicines)
	}

	cli := ctx.CLIFormatter()
	if len(medicines) == 0 {
		cli.Muted("No medicines registered.")
		cli.Muted("Use 'pilltick medicine add' to register one.")
		return nil
	}

	for i, med := range medicines {
		if i > 0 {
			ctx.Formatter.Println("")
		}
		cli.PrintMedicine(med)
	}
	return nil
}

// setMedicineEnabled flips the enabled flag on a medicine.
func setMedicineEnabled(shortID string, enabled bool) error {
	med, err := ctx.MedicineRepo.GetByShortID(shortID)
	if err != nil {
		return err
	}

	med.Enabled = enabled
	if err := ctx.MedicineRepo.Update(med); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(med)
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("%s %s", med.Name, state))
	return nil
}

// runMedicineRemove handles the medicine remove command.
func runMedicineRemove(cmd *cobra.Command, args []string) error {
	med, err := ctx.MedicineRepo.GetByShortID(args[0])
	if err != nil {
		return err
	}

	if err := ctx.MedicineRepo.Delete(med.Key); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"removed": med.Name})
	}

	ctx.CLIFormatter().Success(fmt.Sprintf("Removed %s", med.Name))
	return nil
}
