package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"food-bot/internal/domain/entity"
	"food-bot/internal/domain/port"
)

const navigationBuffer = 16

// EditorService открывает, правит и удаляет отдельную запись отзыва.
type EditorService struct {
	repo        port.UserRepository
	labels      port.LabelCatalog
	feedback    port.FeedbackStore
	logger      *zap.Logger
	delay       time.Duration
	navigations chan entity.NavigationEvent
}

// NewEditorService создаёт сервис. После удаления записи через delay
// в Navigations появляется событие перехода к списку.
func NewEditorService(repo port.UserRepository, labels port.LabelCatalog, feedback port.FeedbackStore, delay time.Duration, logger *zap.Logger) *EditorService {
	return &EditorService{
		repo:        repo,
		labels:      labels,
		feedback:    feedback,
		logger:      logger,
		delay:       delay,
		navigations: make(chan entity.NavigationEvent, navigationBuffer),
	}
}

// Navigations отдаёт события перехода к списку отзывов.
func (s *EditorService) Navigations() <-chan entity.NavigationEvent {
	return s.navigations
}

// Open загружает метки и запись параллельно. Ошибка любой загрузки
// означает, что форма не открывается.
func (s *EditorService) Open(ctx context.Context, userID, chatID, feedbackID int64, token entity.CapabilityToken) (entity.User, error) {
	var (
		labels []entity.Label
		record *entity.FeedbackRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		labels, err = s.labels.ListLabels(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		record, err = s.feedback.GetFeedback(gctx, feedbackID)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load feedback record",
			zap.Int64("user_id", userID),
			zap.Int64("feedback_id", feedbackID),
			zap.Error(err),
		)
		user, uerr := s.repo.Update(context.WithoutCancel(ctx), userID, chatID, func(u *entity.User) error {
			u.Editor = nil
			u.SetState(entity.StateMainMenu)
			return nil
		})
		if uerr != nil {
			return user, uerr
		}
		return user, fmt.Errorf("%w: %w", entity.ErrRequestFailed, err)
	}

	// Право на правку даёт только токен из ссылки, токен из ответа не используется.
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		u.Editor = entity.NewEditorSession(feedbackID, token, record, labels)
		u.SetState(entity.StateEditing)
		return nil
	})
}

// SelectLabel выбирает новую метку записи.
func (s *EditorService) SelectLabel(ctx context.Context, userID, chatID, labelID int64) (entity.User, error) {
	return s.edit(ctx, userID, chatID, func(e *entity.EditorSession) error {
		return e.SelectLabel(labelID)
	})
}

// ReplaceImage запоминает заменяющее изображение до сохранения.
func (s *EditorService) ReplaceImage(ctx context.Context, userID, chatID int64, image *entity.ImageAsset) (entity.User, error) {
	return s.edit(ctx, userID, chatID, func(e *entity.EditorSession) error {
		return e.ReplaceImage(image)
	})
}

// DropImage отменяет замену изображения.
func (s *EditorService) DropImage(ctx context.Context, userID, chatID int64) (entity.User, error) {
	return s.edit(ctx, userID, chatID, func(e *entity.EditorSession) error {
		e.DropImage()
		return nil
	})
}

// Save отправляет только изменённые поля вместе с токеном.
func (s *EditorService) Save(ctx context.Context, userID, chatID int64) (entity.User, error) {
	var (
		session *entity.EditorSession
		edit    entity.FeedbackEdit
	)

	user, err := s.edit(ctx, userID, chatID, func(e *entity.EditorSession) error {
		changes, changed := e.Changes()
		if !changed {
			return entity.ErrNothingChanged
		}
		e.Busy = true
		e.Err = ""
		session, edit = e, changes
		return nil
	})
	if err != nil {
		return user, err
	}

	record, callErr := s.feedback.EditFeedback(ctx, session.FeedbackID, edit)
	if callErr != nil {
		s.logger.Error("failed to save feedback record",
			zap.Int64("user_id", userID),
			zap.Int64("feedback_id", session.FeedbackID),
			zap.Error(callErr),
		)
	}

	return s.finish(ctx, userID, chatID, session, func(e *entity.EditorSession) error {
		if callErr != nil {
			e.Err = entity.FailureText(callErr)
			return fmt.Errorf("%w: %w", entity.ErrRequestFailed, callErr)
		}
		e.Applied(record)
		return nil
	})
}

// RequestDelete показывает подтверждение удаления.
func (s *EditorService) RequestDelete(ctx context.Context, userID, chatID int64) (entity.User, error) {
	return s.edit(ctx, userID, chatID, func(e *entity.EditorSession) error {
		e.ConfirmingDelete = true
		return nil
	})
}

// CancelDelete убирает подтверждение удаления.
func (s *EditorService) CancelDelete(ctx context.Context, userID, chatID int64) (entity.User, error) {
	return s.edit(ctx, userID, chatID, func(e *entity.EditorSession) error {
		e.ConfirmingDelete = false
		return nil
	})
}

// ConfirmDelete удаляет запись и через заданную задержку
// отправляет событие перехода к списку.
func (s *EditorService) ConfirmDelete(ctx context.Context, userID, chatID int64) (entity.User, error) {
	var session *entity.EditorSession

	user, err := s.edit(ctx, userID, chatID, func(e *entity.EditorSession) error {
		if !e.ConfirmingDelete {
			return entity.ErrDeleteNotAsked
		}
		e.Busy = true
		e.Err = ""
		session = e
		return nil
	})
	if err != nil {
		return user, err
	}

	callErr := s.feedback.DeleteFeedback(ctx, session.FeedbackID, session.Token)
	if callErr != nil {
		s.logger.Error("failed to delete feedback record",
			zap.Int64("user_id", userID),
			zap.Int64("feedback_id", session.FeedbackID),
			zap.Error(callErr),
		)
	}

	user, err = s.finish(ctx, userID, chatID, session, func(e *entity.EditorSession) error {
		e.ConfirmingDelete = false
		if callErr != nil {
			e.Err = entity.FailureText(callErr)
			return fmt.Errorf("%w: %w", entity.ErrRequestFailed, callErr)
		}
		e.Removed()
		return nil
	})
	if err != nil {
		return user, err
	}

	s.logger.Info("feedback record deleted",
		zap.Int64("user_id", userID),
		zap.Int64("feedback_id", session.FeedbackID),
	)
	go s.navigateLater(entity.NavigationEvent{UserID: userID, ChatID: chatID})
	return user, nil
}

// Close закрывает запись и возвращает пользователя в главное меню.
func (s *EditorService) Close(ctx context.Context, userID, chatID int64) (entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		u.Editor = nil
		u.SetState(entity.StateMainMenu)
		return nil
	})
}

func (s *EditorService) navigateLater(ev entity.NavigationEvent) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		<-timer.C
	}

	select {
	case s.navigations <- ev:
	default:
		s.logger.Warn("navigation queue is full, event dropped", zap.Int64("user_id", ev.UserID))
	}
}

// edit выполняет локальное изменение открытой записи.
func (s *EditorService) edit(ctx context.Context, userID, chatID int64, fn func(*entity.EditorSession) error) (entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		e := u.Editor
		if e == nil {
			return entity.ErrNoEditor
		}
		if e.Deleted {
			return entity.ErrRecordDeleted
		}
		if e.Busy {
			return entity.ErrBusy
		}
		return fn(e)
	})
}

// finish применяет ответ сервера, если та же запись всё ещё открыта.
func (s *EditorService) finish(ctx context.Context, userID, chatID int64, session *entity.EditorSession, fn func(*entity.EditorSession) error) (entity.User, error) {
	return s.repo.Update(context.WithoutCancel(ctx), userID, chatID, func(u *entity.User) error {
		session.Busy = false
		if u.Editor != session {
			return entity.ErrStaleResponse
		}
		return fn(session)
	})
}
