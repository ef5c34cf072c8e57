package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"food-bot/internal/domain/entity"
	"food-bot/internal/domain/port"
)

// DefaultPageSize — размер страницы списка отзывов по умолчанию.
const DefaultPageSize = 10

// LabelService управляет справочником меток.
type LabelService struct {
	catalog port.LabelCatalog
	logger  *zap.Logger
}

func NewLabelService(catalog port.LabelCatalog, logger *zap.Logger) *LabelService {
	return &LabelService{catalog: catalog, logger: logger}
}

func (s *LabelService) List(ctx context.Context) ([]entity.Label, error) {
	labels, err := s.catalog.ListLabels(ctx)
	if err != nil {
		s.logger.Error("failed to list labels", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrRequestFailed, err)
	}
	return labels, nil
}

// Create добавляет метку с обрезанным по краям непустым именем.
func (s *LabelService) Create(ctx context.Context, name string) (*entity.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, entity.ErrEmptyLabelName
	}

	label, err := s.catalog.CreateLabel(ctx, name)
	if err != nil {
		s.logger.Error("failed to create label", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrRequestFailed, err)
	}
	s.logger.Info("label created", zap.Int64("label_id", label.ID), zap.String("name", label.Name))
	return label, nil
}

func (s *LabelService) Rename(ctx context.Context, id int64, name string) (*entity.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, entity.ErrEmptyLabelName
	}
	if id <= 0 {
		return nil, entity.ErrUnknownLabel
	}

	label, err := s.catalog.UpdateLabel(ctx, id, name)
	if err != nil {
		s.logger.Error("failed to rename label", zap.Int64("label_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrRequestFailed, err)
	}
	return label, nil
}

func (s *LabelService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return entity.ErrUnknownLabel
	}
	if err := s.catalog.DeleteLabel(ctx, id); err != nil {
		s.logger.Error("failed to delete label", zap.Int64("label_id", id), zap.Error(err))
		return fmt.Errorf("%w: %w", entity.ErrRequestFailed, err)
	}
	s.logger.Info("label deleted", zap.Int64("label_id", id))
	return nil
}

// FeedbackService отдаёт страницы списка отзывов.
type FeedbackService struct {
	store    port.FeedbackStore
	pageSize int
	logger   *zap.Logger
}

// NewFeedbackService создаёт сервис. Неположительный pageSize заменяется на DefaultPageSize.
func NewFeedbackService(store port.FeedbackStore, pageSize int, logger *zap.Logger) *FeedbackService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &FeedbackService{store: store, pageSize: pageSize, logger: logger}
}

// List запрашивает одну страницу. Пустая страница не ошибка.
func (s *FeedbackService) List(ctx context.Context, query entity.FeedbackQuery) (*entity.FeedbackPage, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = s.pageSize
	}
	if query.LabelID < 0 {
		query.LabelID = 0
	}

	page, err := s.store.ListFeedback(ctx, query)
	if err != nil {
		s.logger.Error("failed to list feedback",
			zap.Int64("label_id", query.LabelID),
			zap.Int("page", query.Page),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", entity.ErrRequestFailed, err)
	}
	return page, nil
}
