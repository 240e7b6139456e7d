package daemon

import (
	"fmt"
	"os"

	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/worker"
)

// consoleNotifier is the daemon's system notification surface. It writes
// the notification to stdout (which the background daemon redirects into
// its log file) and records it in the structured log.
type consoleNotifier struct{}

func newConsoleNotifier() *consoleNotifier {
	return &consoleNotifier{}
}

func (n *consoleNotifier) Show(notif worker.Notification) error {
	fmt.Fprintf(os.Stdout, "%s  %s\n", notif.Title, notif.Body)

	logging.Info("notification",
		logging.KeyTag, notif.Tag,
		"title", notif.Title,
		"body", notif.Body)
	return nil
}

func (n *consoleNotifier) Close(tag string) {
	logging.DebugLog("notification dismissed", logging.KeyTag, tag)
}
