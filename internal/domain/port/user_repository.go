package port

import (
	"context"

	"food-bot/internal/domain/entity"
)

// UserRepository интерфейс хранилища сессий пользователей
type UserRepository interface {
	// Snapshot возвращает копию пользователя, создаёт нового если не найден
	Snapshot(ctx context.Context, userID, chatID int64) (entity.User, error)

	// Update атомарно применяет fn к пользователю и возвращает копию результата.
	// Изменения, сделанные fn, сохраняются и когда fn вернула ошибку.
	Update(ctx context.Context, userID, chatID int64, fn func(u *entity.User) error) (entity.User, error)
}
