package snippets

import (
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"vsd/internal/providers"
	"vsd/internal/snippets/interfaces"
	"vsd/internal/structures"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	store       StoreInterface
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		if !s.store.DirtySincePersist() {
			return
		}

		start := time.Now()
		err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting snippets: %s", err)
			return
		}
		s.metrics.ObservePersistenceDuration(time.Since(start))
		s.store.MarkPersisted()
		s.logger.Infof(providers.TypeApp, "Persisted snippets to file %s", s.config.Persistence.FilePath)
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	err := s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
	if err != nil {
		return err
	}
	return nil
}

// Persist flushes pending draft edits and saves synchronously. Used on
// shutdown so no committed or in-flight edit is lost.
func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if err := s.store.Flush(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while flushing draft edits: %s", err)
	}

	s.logger.Infof(providers.TypeApp, "Persisting snippets to file...")
	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting snippets: %s", err)
		return err
	}
	s.metrics.ObservePersistenceDuration(time.Since(start))
	s.store.MarkPersisted()
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, store StoreInterface, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		store:       store,
		fileManager: fileManager,
		metrics:     metrics,
	}
}
