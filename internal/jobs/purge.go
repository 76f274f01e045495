package jobs

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/metrics"
	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

// DocumentRemover deletes uploaded files by URL
type DocumentRemover interface {
	DeleteAll(ctx context.Context, urls []string)
}

// StagingPurgeJob removes abandoned signups and their uploaded documents
type StagingPurgeJob struct {
	registrations storage.RegistrationRepository
	documents     DocumentRemover
	retention     time.Duration
	interval      time.Duration
	timeout       time.Duration
	metrics       metrics.Recorder
	now           func() time.Time

	mu        sync.Mutex
	isRunning bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewStagingPurgeJob creates a purge job; registrations older than retention are removed every interval
func NewStagingPurgeJob(registrations storage.RegistrationRepository, documents DocumentRemover, retention, interval, timeout time.Duration, rec metrics.Recorder) *StagingPurgeJob {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &StagingPurgeJob{
		registrations: registrations,
		documents:     documents,
		retention:     retention,
		interval:      interval,
		timeout:       timeout,
		metrics:       rec,
		now:           time.Now,
	}
}

// Start runs the job in the background until Stop
func (j *StagingPurgeJob) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.isRunning {
		log.Info("Staging purge job already running")
		return
	}
	j.isRunning = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})

	log.WithFields(log.Fields{"retention": j.retention, "interval": j.interval}).Info("🧹 Starting staging purge job")
	go j.loop(j.stopCh, j.doneCh)
}

// Stop halts the job and waits for a running purge to finish
func (j *StagingPurgeJob) Stop() {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return
	}
	j.isRunning = false
	close(j.stopCh)
	done := j.doneCh
	j.mu.Unlock()

	<-done
	log.Info("⏹️  Staging purge job stopped")
}

func (j *StagingPurgeJob) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := j.RunOnce(context.Background()); err != nil {
				log.WithError(err).Warn("❌ Staging purge failed")
			}
		case <-stop:
			return
		}
	}
}

// RunOnce purges every registration created before now minus retention
func (j *StagingPurgeJob) RunOnce(ctx context.Context) (int, error) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	purged, err := j.registrations.PurgeOlderThan(ctx, j.now().Add(-j.retention))
	if err != nil {
		return 0, err
	}
	if len(purged) == 0 {
		return 0, nil
	}

	if j.documents != nil {
		j.documents.DeleteAll(ctx, documentURLs(purged))
	}
	j.metrics.RecordStagingPurged(len(purged))
	log.WithField("count", len(purged)).Info("🧹 Purged abandoned signups")
	return len(purged), nil
}

func documentURLs(regs []*models.Registration) []string {
	var urls []string
	for _, r := range regs {
		urls = append(urls, r.DocumentURLs()...)
	}
	return urls
}
