package scheduler

import (
	"github.com/robfig/cron/v3"

	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/storage"
)

// Housekeeping runs the daemon's periodic maintenance jobs on a cron
// schedule: store garbage collection in the small hours and an end-of-day
// adherence summary.
type Housekeeping struct {
	cron   *cron.Cron
	db     *storage.DB
	logs   *storage.DoseLogRepo
	userID string
}

// NewHousekeeping creates the maintenance job runner.
func NewHousekeeping(db *storage.DB, logs *storage.DoseLogRepo, userID string) *Housekeeping {
	return &Housekeeping{
		cron:   cron.New(),
		db:     db,
		logs:   logs,
		userID: userID,
	}
}

// Start registers and starts the jobs.
func (h *Housekeeping) Start() error {
	if _, err := h.cron.AddFunc("0 3 * * *", h.runGC); err != nil {
		return err
	}
	if _, err := h.cron.AddFunc("55 23 * * *", h.daySummary); err != nil {
		return err
	}

	h.cron.Start()
	logging.DebugLog("housekeeping jobs scheduled")
	return nil
}

// Stop halts the job runner. Running jobs finish.
func (h *Housekeeping) Stop() {
	ctx := h.cron.Stop()
	<-ctx.Done()
}

func (h *Housekeeping) runGC() {
	if err := h.db.RunGC(); err != nil {
		logging.Warn("store garbage collection failed", logging.KeyError, err)
		return
	}
	logging.DebugLog("store garbage collection complete")
}

func (h *Housekeeping) daySummary() {
	entries, err := h.logs.ListToday(h.userID)
	if err != nil {
		logging.Warn("failed to build day summary", logging.KeyError, err)
		return
	}
	lsm, vlog := h.db.Size()
	logging.Info("day summary",
		logging.KeyUser, h.userID,
		"doses_taken", len(entries),
		"store_bytes", lsm+vlog)
}
