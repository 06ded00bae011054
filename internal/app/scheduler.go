package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/demand_scheduler/internal/model"
	"go.uber.org/zap"
)

const (
	DefaultAuditInterval = 24 * time.Hour
	// Проверяем две недели назад и восемь вперёд от сегодняшнего дня
	auditLookbackDays = 14
	auditWindowDays   = 70
)

// Auditor то, что планировщику нужно от проверки целостности
type Auditor interface {
	Audit(ctx context.Context, from model.Date, days int) ([]model.DataInconsistency, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	auditor  Auditor
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(auditor Auditor, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultAuditInterval
	}
	return &Scheduler{
		auditor:  auditor,
		interval: interval,
		now:      time.Now,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("audit_interval", s.interval))

	s.done = make(chan struct{})
	go s.runAuditTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	// Повторный Stop только дожидается завершения
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	if s.done != nil {
		<-s.done
	}
}

// runAuditTask периодически ищет дубликаты активных заявок
func (s *Scheduler) runAuditTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.audit(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.audit(ctx)
		case <-s.stopChan:
			s.logger.Info("Integrity audit task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Integrity audit task cancelled")
			return
		}
	}
}

func (s *Scheduler) audit(ctx context.Context) {
	from := model.DateOf(s.now().UTC()).AddDays(-auditLookbackDays)

	anomalies, err := s.auditor.Audit(ctx, from, auditWindowDays)
	if err != nil {
		s.logger.Error("Failed to run integrity audit", zap.Error(err))
		return
	}

	if len(anomalies) > 0 {
		s.logger.Warn("Integrity audit found duplicate active demands", zap.Int("count", len(anomalies)))
	}
}
