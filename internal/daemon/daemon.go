package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/hojoonlee/pilltick/internal/api"
	"github.com/hojoonlee/pilltick/internal/config"
	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/notify"
	"github.com/hojoonlee/pilltick/internal/schedule"
	"github.com/hojoonlee/pilltick/internal/scheduler"
	"github.com/hojoonlee/pilltick/internal/storage"
	"github.com/hojoonlee/pilltick/internal/worker"
)

// Daemon manages the background alarm process: the trigger evaluator, the
// delivery worker, snooze deferrals, and store housekeeping.
type Daemon struct {
	pidFile *PIDFile
	db      *storage.DB
	userID  string

	startedAt time.Time
	debug     bool
}

// Status represents the daemon status.
type Status struct {
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// NewDaemon creates a new daemon manager for the given user.
func NewDaemon(db *storage.DB, userID string) *Daemon {
	return &Daemon{
		pidFile: NewPIDFile(),
		db:      db,
		userID:  userID,
	}
}

// SetDebug enables debug mode.
func (d *Daemon) SetDebug(debug bool) {
	d.debug = debug
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() *Status {
	status := &Status{}

	pid := d.pidFile.GetRunningPID()
	if pid > 0 {
		status.Running = true
		status.PID = pid
		if state, err := d.readState(); err == nil {
			status.StartedAt = state.StartedAt
			status.Uptime = formatUptime(time.Since(state.StartedAt))
		}
	}
	return status
}

// IsRunning returns true if the daemon is running.
func (d *Daemon) IsRunning() bool {
	return d.pidFile.IsRunning()
}

// Start runs the daemon in the foreground until a shutdown signal.
func (d *Daemon) Start(ctx context.Context) error {
	if d.IsRunning() {
		return ErrAlreadyRunning
	}

	if err := d.pidFile.Write(); err != nil {
		return err
	}

	d.startedAt = time.Now()
	if err := d.writeState(&DaemonState{StartedAt: d.startedAt}); err != nil {
		d.pidFile.Remove()
		return err
	}

	medicineRepo := storage.NewMedicineRepo(d.db)
	doseLogRepo := storage.NewDoseLogRepo(d.db)
	cache := storage.NewMedicineCache(medicineRepo, config.Global.Storage.MedicineCacheTTL)

	// Delivery pipeline: worker first, console notification as fallback,
	// audible alarm for the foreground daemon process itself.
	sounder := notify.NewTonePlayer()
	w := worker.New(worker.Options{
		Notifier: newConsoleNotifier(),
		OnOpenApp: func(data model.NotificationData) {
			for _, name := range data.MedicineNames {
				entry := model.NewDoseLog(d.userID, name, data.Time)
				if err := doseLogRepo.Record(entry); err != nil {
					logging.Error("failed to record dose",
						logging.KeyMedicine, name,
						logging.KeyError, err)
					continue
				}
				GlobalMetrics.RecordDoseTaken()
			}
		},
	})

	snoozer := scheduler.NewSnoozeScheduler(func(tag string, data model.NotificationData) {
		GlobalMetrics.RecordSnooze()
		body := data.Time
		if len(data.MedicineNames) > 0 {
			body = data.Time + " - " + strings.Join(data.MedicineNames, ", ")
		}
		env := model.NewShowNotification(model.DefaultPushTitle, body, tag, data)
		if err := w.Post(env); err != nil {
			logging.Error("failed to deliver snoozed alarm",
				logging.KeyTag, tag,
				logging.KeyError, err)
		}
	})

	flow := newAlarmFlow(alarmFlowOptions{
		UserID:   d.userID,
		Source:   cache,
		Sounder:  sounder,
		Verifier: api.NewClient(),
		Snoozer:  snoozer,
		Logs:     doseLogRepo,
		Surface:  w,
	})

	channel := notify.NewChannel(notify.ChannelOptions{
		Prompter: &notify.StaticPrompter{Current: notify.PermissionGranted},
		Worker:   w,
		Direct:   notify.NewLogNotifier(),
		Sounder:  sounder,
		// The daemon itself is the foreground surface: every delivery
		// sounds the alarm until acknowledged or snoozed.
		Foreground:   func() bool { return true },
		OnForeground: flow.Open,
	})

	evaluator := scheduler.NewEvaluator(scheduler.Options{
		Source:     cache,
		Deliverer:  &meteredDeliverer{inner: channel},
		UserID:     d.userID,
		OnDayReset: snoozer.ResetDay,
		OnPass:     GlobalMetrics.RecordPass,
	})

	housekeeping := scheduler.NewHousekeeping(d.db, doseLogRepo, d.userID)

	runCtx, cancel := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	go func() {
		w.Run(runCtx)
		close(workerDone)
	}()

	evaluator.Start(runCtx)
	if err := housekeeping.Start(); err != nil {
		logging.Warn("housekeeping jobs not scheduled", logging.KeyError, err)
	}

	control := NewControlServer(flow, ControlSocketPath())
	if err := control.Start(); err != nil {
		logging.Warn("control socket unavailable, take and snooze will not reach this daemon",
			logging.KeyError, err)
	}

	sigHandler := NewSignalHandler(func() {
		cache.Invalidate()
		logging.Info("reload requested, medicine cache invalidated")
	})
	sigHandler.Setup()
	defer sigHandler.Cleanup()

	if d.debug {
		logging.DebugLog("daemon started",
			"pid", os.Getpid(),
			logging.KeyUser, d.userID)
	}

	sig := sigHandler.Wait(ctx)
	if d.debug && sig != nil {
		logging.DebugLog("received signal", "signal", sig.String())
	}

	evaluator.Stop()
	snoozer.StopAll()
	housekeeping.Stop()
	control.Stop()
	flow.Close()
	cancel()
	<-workerDone
	channel.Silence()

	d.pidFile.Remove()
	d.removeState()
	return nil
}

// StartBackground starts the daemon as a detached process.
func (d *Daemon) StartBackground() (int, error) {
	if d.IsRunning() {
		return d.pidFile.GetRunningPID(), ErrAlreadyRunning
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"daemon", "start", "--foreground"}
	if d.debug {
		args = append(args, "--debug")
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdin = nil

	logPath := GetLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err == nil {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			cmd.Stdout = logFile
			cmd.Stderr = logFile
		}
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}

	// Give the child a moment to write its PID
	time.Sleep(config.Global.Daemon.StartupWait)

	if !d.pidFile.IsRunning() {
		if errMsg := d.readLastLogError(); errMsg != "" {
			return 0, fmt.Errorf("daemon failed to start: %s", errMsg)
		}
		return 0, fmt.Errorf("daemon failed to start (check logs: %s)", logPath)
	}

	return cmd.Process.Pid, nil
}

// readLastLogError scans the tail of the log file for an error line.
func (d *Daemon) readLastLogError() string {
	data, err := os.ReadFile(GetLogPath())
	if err != nil {
		return ""
	}

	lines := strings.Split(string(data), "\n")
	start := len(lines) - 10
	if start < 0 {
		start = 0
	}

	for i := len(lines) - 1; i >= start; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.Contains(strings.ToLower(line), "error") ||
			strings.Contains(line, "failed to") {
			return line
		}
	}
	return ""
}

// Stop stops the running daemon.
func (d *Daemon) Stop() error {
	pid := d.pidFile.GetRunningPID()
	if pid == 0 {
		return ErrNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(os.Interrupt); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := process.Wait()
		done <- err
	}()

	select {
	case <-done:
	case <-time.After(config.Global.Daemon.KillTimeout):
		process.Kill()
	}

	d.pidFile.Remove()
	d.removeState()
	return nil
}

// SendTestAlarm asks the collaborator to push a test notification to every
// device registered for the user.
func (d *Daemon) SendTestAlarm(ctx context.Context) error {
	client := api.NewClient()
	return client.SendTestPush(ctx, d.userID, model.DefaultPushTitle, "테스트 알림입니다")
}

// meteredDeliverer counts delivery outcomes around the real deliverer.
type meteredDeliverer struct {
	inner scheduler.Deliverer
}

func (m *meteredDeliverer) Deliver(ctx context.Context, group *schedule.TriggerGroup) error {
	err := m.inner.Deliver(ctx, group)
	if err != nil {
		GlobalMetrics.RecordAlarmFailed(err)
		return err
	}
	GlobalMetrics.RecordAlarmDelivered()
	return nil
}

// DaemonState holds persistent daemon state.
type DaemonState struct {
	StartedAt time.Time `json:"started_at"`
}

func getStatePath() string {
	return filepath.Join(xdg.StateHome, AppName, "daemon.json")
}

func (d *Daemon) writeState(state *DaemonState) error {
	path := getStatePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (d *Daemon) readState() (*DaemonState, error) {
	data, err := os.ReadFile(getStatePath())
	if err != nil {
		return nil, err
	}

	var state DaemonState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (d *Daemon) removeState() {
	if err := os.Remove(getStatePath()); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove daemon state file", logging.KeyError, err, "path", getStatePath())
	}
}

// GetLogPath returns the path to the daemon log file.
func GetLogPath() string {
	return filepath.Join(xdg.StateHome, AppName, "daemon.log")
}

// formatUptime formats a duration as uptime.
func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}
