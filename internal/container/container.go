package container

import (
	"time"

	"go.uber.org/zap"

	app "food-bot/internal/application"
	"food-bot/internal/domain/port"
)

// FoodAPI — все порты внешнего API распознавания блюд.
type FoodAPI interface {
	port.LabelCatalog
	port.Classifier
	port.FeedbackStore
	port.ModelTrainer
}

// Settings — настройки сервисов приложения.
type Settings struct {
	FeedbackPageSize    int
	DeleteRedirectDelay time.Duration
}

type Container struct {
	Users     *app.UserService
	Upload    *app.UploadService
	Review    *app.ReviewService
	Editor    *app.EditorService
	Labels    *app.LabelService
	Feedback  *app.FeedbackService
	Training  *app.TrainingService
	Previewer port.ImagePreviewer
}

func New(userRepo port.UserRepository, api FoodAPI, previewer port.ImagePreviewer, settings Settings, logger *zap.Logger) *Container {
	return &Container{
		Users:     app.NewUserService(userRepo),
		Upload:    app.NewUploadService(userRepo, api, api, logger.Named("upload")),
		Review:    app.NewReviewService(userRepo, api, api, logger.Named("review")),
		Editor:    app.NewEditorService(userRepo, api, api, settings.DeleteRedirectDelay, logger.Named("editor")),
		Labels:    app.NewLabelService(api, logger.Named("labels")),
		Feedback:  app.NewFeedbackService(api, settings.FeedbackPageSize, logger.Named("feedback")),
		Training:  app.NewTrainingService(api, logger.Named("training")),
		Previewer: previewer,
	}
}
