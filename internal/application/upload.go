package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"food-bot/internal/domain/entity"
	"food-bot/internal/domain/port"
)

// UploadService ведёт выбор изображения, режим и отправку на распознавание
// или в обучающую выборку.
type UploadService struct {
	repo       port.UserRepository
	labels     port.LabelCatalog
	classifier port.Classifier
	logger     *zap.Logger
}

// NewUploadService создаёт сервис загрузки.
func NewUploadService(repo port.UserRepository, labels port.LabelCatalog, classifier port.Classifier, logger *zap.Logger) *UploadService {
	return &UploadService{
		repo:       repo,
		labels:     labels,
		classifier: classifier,
		logger:     logger,
	}
}

// SelectImage проверяет файл и делает его текущим изображением.
// Ошибка проверки возвращается вместе с неизменённым состоянием.
func (s *UploadService) SelectImage(ctx context.Context, userID, chatID int64, image *entity.ImageAsset) (entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		return u.SelectImage(image)
	})
}

// ClearImage убирает изображение и показанный результат.
func (s *UploadService) ClearImage(ctx context.Context, userID, chatID int64) (entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		u.ClearImage()
		return nil
	})
}

// SwitchMode меняет режим. Для режима add метки загружаются один раз за сессию.
func (s *UploadService) SwitchMode(ctx context.Context, userID, chatID int64, mode entity.Mode) (entity.User, error) {
	user, err := s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		u.SwitchMode(mode)
		return nil
	})
	if err != nil || mode != entity.ModeAdd || user.LabelsLoaded() {
		return user, err
	}

	if _, err := s.Labels(ctx, userID, chatID, false); err != nil {
		return user, err
	}
	return s.repo.Snapshot(ctx, userID, chatID)
}

// Labels возвращает метки из кэша сессии, при refresh загружает заново.
func (s *UploadService) Labels(ctx context.Context, userID, chatID int64, refresh bool) ([]entity.Label, error) {
	labels, err := sessionLabels(ctx, s.repo, s.labels, userID, chatID, refresh)
	if err != nil {
		s.logger.Error("failed to load labels", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrRequestFailed, err)
	}
	return labels, nil
}

// SelectLabel выбирает метку для режима add.
func (s *UploadService) SelectLabel(ctx context.Context, userID, chatID int64, labelID int64) (entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		if err := knownLabel(u, labelID); err != nil {
			return err
		}
		u.LabelID = labelID
		u.SubmitError = ""
		return nil
	})
}

// Submit отправляет изображение в predict или add в зависимости от режима.
// Одновременно в пути может быть только одна отправка на сессию.
func (s *UploadService) Submit(ctx context.Context, userID, chatID int64) (entity.User, error) {
	var (
		generation uint64
		image      *entity.ImageAsset
		mode       entity.Mode
		labelID    int64
	)

	user, err := s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		if u.Image == nil {
			return entity.ErrNoImage
		}
		if u.Submitting {
			return entity.ErrBusy
		}
		if u.Mode == entity.ModeAdd && u.LabelID == 0 {
			u.SubmitError = entity.ErrLabelRequired.Error()
			return entity.ErrLabelRequired
		}

		u.Submitting = true
		u.SubmitError = ""
		generation, image, mode, labelID = u.Generation, u.Image, u.Mode, u.LabelID
		return nil
	})
	if err != nil {
		return user, err
	}

	var (
		result  *entity.PredictionResult
		sample  *entity.FeedbackRecord
		callErr error
	)
	switch mode {
	case entity.ModeAdd:
		sample, callErr = s.classifier.AddSample(ctx, image, labelID)
	default:
		result, callErr = s.classifier.Predict(ctx, image)
	}

	if callErr != nil {
		s.logger.Error("failed to submit image",
			zap.Int64("user_id", userID),
			zap.String("mode", string(mode)),
			zap.String("file", image.Name),
			zap.Error(callErr),
		)
	}

	// Флаг отправки снимается даже после отмены запроса.
	return s.repo.Update(context.WithoutCancel(ctx), userID, chatID, func(u *entity.User) error {
		u.Submitting = false
		if u.Generation != generation {
			s.logger.Info("dropping stale submit response", zap.Int64("user_id", userID))
			return entity.ErrStaleResponse
		}
		if callErr != nil {
			u.SubmitError = entity.ErrRequestFailed.Error()
			return fmt.Errorf("%w: %w", entity.ErrRequestFailed, callErr)
		}

		if mode == entity.ModeAdd {
			u.Sample = sample
			return nil
		}
		u.Result = result
		u.Review = entity.NewReview()
		return nil
	})
}

// IsInputError сообщает, что ошибка относится к вводу пользователя и запрос не отправлялся.
func IsInputError(err error) bool {
	var vErr *entity.ValidationError
	return errors.As(err, &vErr) ||
		errors.Is(err, entity.ErrNoImage) ||
		errors.Is(err, entity.ErrLabelRequired) ||
		errors.Is(err, entity.ErrUnknownLabel)
}
