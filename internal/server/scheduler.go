package server

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/yusa-imit/zoltraak/internal/keyspace"
	"github.com/yusa-imit/zoltraak/internal/persistence"
	"github.com/yusa-imit/zoltraak/pkg/log"
)

// Scheduler runs the three periodic background jobs spec.md §4.3/§4.4
// describe: active expiry sweeps, AOF compaction, and (when a save
// point is configured) periodic snapshots — grounded on
// internal/taskManager/taskManager.go's gocron.Scheduler-per-process
// pattern (DESIGN.md §K), generalized from the teacher's daily/interval
// job mix of job-archive housekeeping tasks to this engine's
// keyspace-housekeeping tasks.
type Scheduler struct {
	sched gocron.Scheduler
}

// NewScheduler creates and starts background jobs for s's collaborators.
// activeExpireInterval/aofRewriteInterval/snapshotInterval of zero
// disable that particular job, matching the teacher's own
// zero-means-disabled convention for StopJobsExceedingWalltime.
func NewScheduler(srv *Server, activeExpireInterval, aofRewriteInterval, snapshotInterval time.Duration, aofPath, aofTmpPath string) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if activeExpireInterval > 0 {
		if _, err := sched.NewJob(gocron.DurationJob(activeExpireInterval), gocron.NewTask(func() {
			n := srv.Exec.KS.ActiveExpireCycle(keyspace.NowMs())
			if n > 0 {
				log.Debugf("scheduler: active expire cycle purged %d keys", n)
			}
		})); err != nil {
			return nil, err
		}
	}

	if aofRewriteInterval > 0 && srv.Exec.Log != nil {
		if _, err := sched.NewJob(gocron.DurationJob(aofRewriteInterval), gocron.NewTask(func() {
			if err := persistence.Rewrite(aofTmpPath, aofPath, srv.Exec.KS, keyspace.NowMs()); err != nil {
				log.Warnf("scheduler: AOF rewrite failed: %s", err.Error())
				return
			}
			if err := srv.Exec.Log.Reopen(); err != nil {
				log.Warnf("scheduler: reopening AOF after rewrite failed: %s", err.Error())
			}
		})); err != nil {
			return nil, err
		}
	}

	if snapshotInterval > 0 && srv.Exec.SnapshotPath != "" {
		if _, err := sched.NewJob(gocron.DurationJob(snapshotInterval), gocron.NewTask(func() {
			if err := persistence.Save(srv.Exec.SnapshotPath, srv.Exec.KS); err != nil {
				log.Warnf("scheduler: periodic snapshot failed: %s", err.Error())
			}
		})); err != nil {
			return nil, err
		}
	}

	sched.Start()
	return &Scheduler{sched: sched}, nil
}

// Shutdown stops every scheduled job, waiting for any in-flight run to
// finish.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
