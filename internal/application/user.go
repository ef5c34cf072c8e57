package app

import (
	"context"

	"food-bot/internal/domain/entity"
	"food-bot/internal/domain/port"
)

// UserService управляет состоянием диалога пользователя.
type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (entity.User, error) {
	return s.repo.Snapshot(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		u.SetState(state)
		return nil
	})
}

// Cancel закрывает открытую запись и незавершённые диалоги и возвращает в главное меню.
// Завершённый отзыв и выбранное изображение остаются.
func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		u.Editor = nil
		if u.Review.State == entity.ReviewAwaitingCorrection && !u.Review.Submitting {
			_ = u.Review.CancelCorrection()
		}
		u.SetState(entity.StateMainMenu)
		return nil
	})
}

// Reset начинает сессию заново: режим распознавания без изображения.
func (s *UserService) Reset(ctx context.Context, userID, chatID int64) (entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		if u.Submitting {
			return entity.ErrBusy
		}
		u.Editor = nil
		u.SwitchMode(entity.ModePredict)
		u.ClearImage()
		u.LabelID = 0
		u.SetState(entity.StateMainMenu)
		return nil
	})
}
