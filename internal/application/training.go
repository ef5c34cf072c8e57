package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"food-bot/internal/domain/entity"
	"food-bot/internal/domain/port"
)

// TrainingService запускает переобучение и отдаёт статистику системы.
type TrainingService struct {
	trainer port.ModelTrainer
	logger  *zap.Logger
	running atomic.Bool
}

func NewTrainingService(trainer port.ModelTrainer, logger *zap.Logger) *TrainingService {
	return &TrainingService{trainer: trainer, logger: logger}
}

// Retrain запускает переобучение. Одновременно идёт не больше одного.
func (s *TrainingService) Retrain(ctx context.Context) (*entity.RetrainReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, entity.ErrBusy
	}
	defer s.running.Store(false)

	s.logger.Info("retrain started")
	report, err := s.trainer.Retrain(ctx)
	if err != nil {
		s.logger.Error("retrain failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrRequestFailed, err)
	}
	s.logger.Info("retrain finished", zap.String("message", report.Message))
	return report, nil
}

// Running сообщает, идёт ли переобучение.
func (s *TrainingService) Running() bool {
	return s.running.Load()
}

func (s *TrainingService) Stats(ctx context.Context) (*entity.SystemStats, error) {
	stats, err := s.trainer.SystemStats(ctx)
	if err != nil {
		s.logger.Error("failed to load system stats", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrRequestFailed, err)
	}
	return stats, nil
}
