package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/meterlens/internal/models"
)

// DefaultSpec reloads the dataset every five minutes.
const DefaultSpec = "*/5 * * * *"

// Loader refreshes the current dataset.
type Loader interface {
	Load(ctx context.Context) (models.ParseResult, error)
}

type Scheduler struct {
	loader  Loader
	spec    string
	timeout time.Duration
	logger  *logrus.Logger
	cron    *cron.Cron
}

func NewScheduler(loader Loader, spec string, timeout time.Duration, logger *logrus.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		loader:  loader,
		spec:    spec,
		timeout: timeout,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.Reload); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Reload runs one load outside the schedule. Failures are logged; the
// previous dataset stays in place.
func (s *Scheduler) Reload() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.loader.Load(ctx); err != nil {
		s.logger.WithError(err).WithField("schedule", s.spec).Error("Failed to reload dataset")
	}
}

// Stop the scheduler and wait for a running reload to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
