package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hojoonlee/pilltick/internal/api"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/push"
)

// Push command flags.
var (
	pushSubscribeFlagEndpoint string
	pushSubscribeFlagP256dh   string
	pushSubscribeFlagAuth     string
)

// pushCmd represents the push command.
var pushCmd = &cobra.Command{
	Use:   "push [command]",
	Short: "Manage push subscriptions",
	Long: `Manage the push subscriptions that deliver alarms to devices.

A subscription is the endpoint and key pair a device's push platform
hands out. Registering it with the collaborator lets alarms reach the
device even when the app is closed.

Examples:
  pilltick push status
  pilltick push subscribe --endpoint https://push.example/abc --p256dh KEY --auth SECRET
  pilltick push unsubscribe`,
	RunE: runPushStatus,
}

// pushStatusCmd shows the registered subscriptions.
var pushStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registered push subscriptions",
	RunE:  runPushStatus,
}

// pushSubscribeCmd registers a device subscription.
var pushSubscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Register a device push subscription",
	RunE:  runPushSubscribe,
}

// pushUnsubscribeCmd removes the device subscription.
var pushUnsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe",
	Short: "Remove the device push subscription",
	RunE:  runPushUnsubscribe,
}

// pushTestCmd asks the collaborator to push a test notification.
var pushTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test push to subscribed devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := api.NewClient()
		err := client.SendTestPush(context.Background(), resolveUserID(),
			model.DefaultPushTitle, "테스트 알림입니다")
		if err != nil {
			return err
		}
		cmd.Println("✓ Test push requested. Check your subscribed devices.")
		return nil
	},
}

func init() {
	pushSubscribeCmd.Flags().StringVar(&pushSubscribeFlagEndpoint, "endpoint", "",
		"Push endpoint URL issued by the device's push platform")
	pushSubscribeCmd.Flags().StringVar(&pushSubscribeFlagP256dh, "p256dh", "",
		"Subscription p256dh key")
	pushSubscribeCmd.Flags().StringVar(&pushSubscribeFlagAuth, "auth", "",
		"Subscription auth secret")
	pushSubscribeCmd.MarkFlagRequired("endpoint")

	pushCmd.AddCommand(pushStatusCmd)
	pushCmd.AddCommand(pushSubscribeCmd)
	pushCmd.AddCommand(pushUnsubscribeCmd)
	pushCmd.AddCommand(pushTestCmd)

	rootCmd.AddCommand(pushCmd)
}

// newPushManager builds a manager around the locally recorded subscription,
// standing in for the push platform the browser would provide.
func newPushManager(current *model.PushSubscription) *push.Manager {
	platform := &push.StaticService{
		IsSupported:  true,
		Current:      current,
		NextEndpoint: pushSubscribeFlagEndpoint,
		NextP256dh:   pushSubscribeFlagP256dh,
		NextAuth:     pushSubscribeFlagAuth,
	}
	return push.NewManager(platform, api.NewClient(), ctx.SubscriptionRepo, ctx.UserID)
}

// runPushStatus handles the push status command.
func runPushStatus(cmd *cobra.Command, args []string) error {
	subs, err := ctx.SubscriptionRepo.ListByUser(ctx.UserID)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(subs)
	}

	cli := ctx.CLIFormatter()
	if len(subs) == 0 {
		cli.Muted("No push subscriptions registered.")
		cli.Muted("Use 'pilltick push subscribe' to register this device.")
		return nil
	}

	cli.Title(fmt.Sprintf("Push subscriptions (%d)", len(subs)))
	for _, sub := range subs {
		ctx.Formatter.Printf("  %s\n", sub.Endpoint)
	}
	return nil
}

// runPushSubscribe handles the push subscribe command.
func runPushSubscribe(cmd *cobra.Command, args []string) error {
	mgr := newPushManager(nil)
	if err := mgr.Subscribe(context.Background()); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{
			"status":   "subscribed",
			"endpoint": pushSubscribeFlagEndpoint,
		})
	}

	ctx.CLIFormatter().Success("Subscribed " + pushSubscribeFlagEndpoint)
	return nil
}

// runPushUnsubscribe handles the push unsubscribe command.
func runPushUnsubscribe(cmd *cobra.Command, args []string) error {
	// Hand the manager the last recorded subscription as the live handle so
	// the platform and the server agree on which endpoint goes away.
	var current *model.PushSubscription
	if subs, err := ctx.SubscriptionRepo.ListByUser(ctx.UserID); err == nil && len(subs) > 0 {
		current = subs[len(subs)-1]
	}

	mgr := newPushManager(current)
	if err := mgr.Unsubscribe(context.Background()); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "unsubscribed"})
	}

	ctx.CLIFormatter().Success("Unsubscribed")
	return nil
}
