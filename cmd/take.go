package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hojoonlee/pilltick/internal/daemon"
)

var takeFlagEvidence string

// takeCmd acknowledges the firing alarm through the daemon.
var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Acknowledge the firing alarm",
	Long: `Acknowledge the alarm the daemon is currently sounding.

With --evidence the photo is verified before the dose is recorded;
without it the dose is recorded directly.

Examples:
  pilltick take
  pilltick take --evidence ~/pill.jpg`,
	RunE: runTake,
}

// snoozeCmd defers the firing alarm.
var snoozeCmd = &cobra.Command{
	Use:   "snooze",
	Short: "Snooze the firing alarm",
	Long: `Defer the alarm the daemon is currently sounding. Each alarm
carries a snooze budget; once it is spent the alarm keeps sounding
until the dose is taken.`,
	RunE: runSnooze,
}

func init() {
	takeCmd.Flags().StringVar(&takeFlagEvidence, "evidence", "",
		"Photo of the dose for verification")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(snoozeCmd)
}

// runTake handles the take command.
func runTake(cmd *cobra.Command, args []string) error {
	client := daemon.NewControlClient()
	if err := client.Take(context.Background(), takeFlagEvidence); err != nil {
		return err
	}

	if takeFlagEvidence != "" {
		fmt.Println("Dose verified and recorded")
	} else {
		fmt.Println("Dose recorded")
	}
	return nil
}

// runSnooze handles the snooze command.
func runSnooze(cmd *cobra.Command, args []string) error {
	delay, err := daemon.NewControlClient().Snooze(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Alarm snoozed for %s\n", delay)
	return nil
}
