package port

import (
	"context"

	"food-bot/internal/domain/entity"
)

// LabelCatalog интерфейс таксономии меток
type LabelCatalog interface {
	// ListLabels возвращает все метки
	ListLabels(ctx context.Context) ([]entity.Label, error)

	// CreateLabel создаёт метку
	CreateLabel(ctx context.Context, name string) (*entity.Label, error)

	// UpdateLabel переименовывает метку
	UpdateLabel(ctx context.Context, id int64, name string) (*entity.Label, error)

	// DeleteLabel удаляет метку
	DeleteLabel(ctx context.Context, id int64) error
}

// Classifier интерфейс распознавания и пополнения обучающей выборки
type Classifier interface {
	// Predict распознаёт блюдо на изображении
	Predict(ctx context.Context, image *entity.ImageAsset) (*entity.PredictionResult, error)

	// AddSample добавляет размеченный обучающий пример
	AddSample(ctx context.Context, image *entity.ImageAsset, labelID int64) (*entity.FeedbackRecord, error)
}

// FeedbackStore интерфейс хранилища отзывов
type FeedbackStore interface {
	// ListFeedback возвращает страницу отзывов
	ListFeedback(ctx context.Context, query entity.FeedbackQuery) (*entity.FeedbackPage, error)

	// GetFeedback возвращает запись по идентификатору
	GetFeedback(ctx context.Context, id int64) (*entity.FeedbackRecord, error)

	// EditFeedback меняет изображение и/или метку записи
	EditFeedback(ctx context.Context, id int64, edit entity.FeedbackEdit) (*entity.FeedbackRecord, error)

	// DeleteFeedback удаляет запись
	DeleteFeedback(ctx context.Context, id int64, token entity.CapabilityToken) error

	// SubmitReview сохраняет отзыв о предсказании
	SubmitReview(ctx context.Context, review entity.ReviewSubmission) (*entity.FeedbackRecord, error)
}

// ModelTrainer интерфейс обучения модели
type ModelTrainer interface {
	// Retrain запускает переобучение
	Retrain(ctx context.Context) (*entity.RetrainReport, error)

	// SystemStats возвращает сводку по системе
	SystemStats(ctx context.Context) (*entity.SystemStats, error)
}
