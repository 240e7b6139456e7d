package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hojoonlee/pilltick/internal/daemon"
)

// alarmCmd represents the alarm command.
var alarmCmd = &cobra.Command{
	Use:     "alarm [command]",
	Aliases: []string{"a"},
	Short:   "Inspect and test the alarm schedule",
	Long: `Inspect the merged alarm schedule and send test alarms.

Medicines sharing a time and day set merge into one alarm, so one
reminder covers every medicine due at that moment.

Examples:
  pilltick alarm list
  pilltick alarm test`,
	RunE: runAlarmList,
}

// alarmListCmd lists the merged alarm schedule.
var alarmListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the merged alarm schedule",
	RunE:  runAlarmList,
}

// alarmTestCmd sends a test push to every subscribed device.
var alarmTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test alarm to subscribed devices",
	RunE:  runAlarmTest,
}

func init() {
	alarmCmd.AddCommand(alarmListCmd)
	alarmCmd.AddCommand(alarmTestCmd)

	rootCmd.AddCommand(alarmCmd)
}

// runAlarmTest handles the alarm test command.
func runAlarmTest(cmd *cobra.Command, args []string) error {
	d := daemon.NewDaemon(nil, resolveUserID())
	if err := d.SendTestAlarm(context.Background()); err != nil {
		return err
	}

	cmd.Println("✓ Test alarm requested. Check your subscribed devices.")
	return nil
}
