package storage

import (
	"context"
	"sync"

	"food-bot/internal/domain/entity"
	"food-bot/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище сессий пользователей
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Snapshot возвращает копию пользователя, создаёт нового если не найден
func (r *MemoryUserRepository) Snapshot(ctx context.Context, userID, chatID int64) (entity.User, error) {
	if err := ctx.Err(); err != nil {
		return entity.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.getLocked(userID, chatID).Snapshot(), nil
}

// Update атомарно применяет fn к пользователю. Блокировка не держится дольше fn,
// поэтому fn не должна ходить в сеть.
func (r *MemoryUserRepository) Update(ctx context.Context, userID, chatID int64, fn func(u *entity.User) error) (entity.User, error) {
	if err := ctx.Err(); err != nil {
		return entity.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.getLocked(userID, chatID)
	err := fn(user)

	return user.Snapshot(), err
}

func (r *MemoryUserRepository) getLocked(userID, chatID int64) *entity.User {
	user, exists := r.users[userID]
	if !exists {
		user = entity.NewUser(userID, chatID)
		r.users[userID] = user
	}
	// Пользователь мог написать из другого чата
	user.ChatID = chatID
	return user
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
