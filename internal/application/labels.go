package app

import (
	"context"
	"fmt"

	"food-bot/internal/domain/entity"
	"food-bot/internal/domain/port"
)

// sessionLabels загружает метки в кэш сессии, если их там ещё нет.
// Кэш не обновляется сам: refresh сбрасывает его явно.
func sessionLabels(ctx context.Context, repo port.UserRepository, catalog port.LabelCatalog, userID, chatID int64, refresh bool) ([]entity.Label, error) {
	if !refresh {
		user, err := repo.Snapshot(ctx, userID, chatID)
		if err != nil {
			return nil, err
		}
		if user.LabelsLoaded() {
			return user.Labels, nil
		}
	}

	labels, err := catalog.ListLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}

	user, err := repo.Update(ctx, userID, chatID, func(u *entity.User) error {
		if refresh || !u.LabelsLoaded() {
			u.Labels = append([]entity.Label{}, labels...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.Labels, nil
}

// knownLabel проверяет метку по кэшу сессии. Пустой кэш ничего не запрещает:
// проверку в таком случае выполнит API.
func knownLabel(u *entity.User, id int64) error {
	if id <= 0 {
		return entity.ErrUnknownLabel
	}
	if !u.LabelsLoaded() {
		return nil
	}
	if _, ok := entity.FindLabel(u.Labels, id); !ok {
		return entity.ErrUnknownLabel
	}
	return nil
}
