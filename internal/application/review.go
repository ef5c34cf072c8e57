package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"food-bot/internal/domain/entity"
	"food-bot/internal/domain/port"
)

// ReviewService проводит отзыв о результате распознавания.
type ReviewService struct {
	repo     port.UserRepository
	labels   port.LabelCatalog
	feedback port.FeedbackStore
	logger   *zap.Logger
}

// NewReviewService создаёт сервис отзывов.
func NewReviewService(repo port.UserRepository, labels port.LabelCatalog, feedback port.FeedbackStore, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		repo:     repo,
		labels:   labels,
		feedback: feedback,
		logger:   logger,
	}
}

// ConfirmCorrect отправляет подтверждение предсказания.
func (s *ReviewService) ConfirmCorrect(ctx context.Context, userID, chatID int64) (entity.User, error) {
	return s.submit(ctx, userID, chatID, entity.VerdictConfirmed)
}

// BeginCorrection открывает выбор верной метки. Метки загружаются,
// если их ещё нет в кэше сессии.
func (s *ReviewService) BeginCorrection(ctx context.Context, userID, chatID int64) (entity.User, error) {
	user, err := s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		if !u.Result.HasPrediction() {
			return entity.ErrNoPrediction
		}
		return u.Review.BeginCorrection()
	})
	if err != nil || user.LabelsLoaded() {
		return user, err
	}

	if _, err := sessionLabels(ctx, s.repo, s.labels, userID, chatID, false); err != nil {
		s.logger.Error("failed to load labels for correction", zap.Int64("user_id", userID), zap.Error(err))
		return user, fmt.Errorf("%w: %w", entity.ErrRequestFailed, err)
	}
	return s.repo.Snapshot(ctx, userID, chatID)
}

// SelectCorrection запоминает верную метку.
func (s *ReviewService) SelectCorrection(ctx context.Context, userID, chatID int64, labelID int64) (entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		if !u.Result.HasPrediction() {
			return entity.ErrNoPrediction
		}
		if err := knownLabel(u, labelID); err != nil {
			return err
		}
		return u.Review.SelectCorrection(labelID)
	})
}

// CancelCorrection закрывает выбор метки без отправки.
func (s *ReviewService) CancelCorrection(ctx context.Context, userID, chatID int64) (entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		return u.Review.CancelCorrection()
	})
}

// ConfirmIncorrect отправляет исправление. Без выбранной метки ничего не делает.
func (s *ReviewService) ConfirmIncorrect(ctx context.Context, userID, chatID int64) (entity.User, error) {
	user, err := s.submit(ctx, userID, chatID, entity.VerdictCorrected)
	if errors.Is(err, entity.ErrLabelRequired) {
		return user, nil
	}
	return user, err
}

func (s *ReviewService) submit(ctx context.Context, userID, chatID int64, verdict entity.Verdict) (entity.User, error) {
	var (
		prev       entity.ReviewState
		generation uint64
		result     *entity.PredictionResult
		submission entity.ReviewSubmission
	)

	user, err := s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		if !u.Result.HasPrediction() {
			return entity.ErrNoPrediction
		}

		var err error
		if verdict == entity.VerdictCorrected {
			prev, err = u.Review.BeginConfirmIncorrect()
		} else {
			prev, err = u.Review.BeginConfirmCorrect()
		}
		if err != nil {
			return err
		}

		generation, result = u.Generation, u.Result
		submission = entity.ReviewSubmission{
			Image:          u.Result.Image,
			PredictedLabel: u.Result.PredictedLabel,
			Verdict:        verdict,
		}
		if verdict == entity.VerdictCorrected {
			submission.CorrectLabelID = u.Review.CorrectionID
		}
		return nil
	})
	if err != nil {
		return user, err
	}

	_, callErr := s.feedback.SubmitReview(ctx, submission)
	if callErr != nil {
		s.logger.Error("failed to submit review",
			zap.Int64("user_id", userID),
			zap.Stringer("verdict", verdict),
			zap.Error(callErr),
		)
	}

	return s.repo.Update(context.WithoutCancel(ctx), userID, chatID, func(u *entity.User) error {
		// Новое изображение или повторная отправка уже сбросили отзыв:
		// ответ относится к прежнему результату.
		if u.Generation != generation || u.Result != result {
			return entity.ErrStaleResponse
		}
		if callErr != nil {
			u.Review.Fail(prev, entity.ErrRequestFailed.Error())
			return fmt.Errorf("%w: %w", entity.ErrRequestFailed, callErr)
		}
		u.Review.Resolve(verdict)
		return nil
	})
}
