package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"food-bot/internal/domain/entity"
	"food-bot/internal/domain/port"
	"food-bot/internal/infrastructure/storage"
)

// fakeAPI реализует все порты API и считает вызовы.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	labels      []entity.Label
	labelsErr   error
	predict     func(*entity.ImageAsset) (*entity.PredictionResult, error)
	addSample   func(*entity.ImageAsset, int64) (*entity.FeedbackRecord, error)
	record      *entity.FeedbackRecord
	recordErr   error
	editErr     error
	deleteErr   error
	reviewErr   error
	retrain     func() (*entity.RetrainReport, error)
	page        *entity.FeedbackPage
	lastQuery   entity.FeedbackQuery
	lastEdit    entity.FeedbackEdit
	lastReview  entity.ReviewSubmission
	lastDelete  entity.CapabilityToken
	createdName string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:  map[string]int{},
		labels: []entity.Label{{ID: 3, Name: "pizza"}, {ID: 7, Name: "pasta"}},
	}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) ListLabels(context.Context) ([]entity.Label, error) {
	f.hit("ListLabels")
	if f.labelsErr != nil {
		return nil, f.labelsErr
	}
	return append([]entity.Label{}, f.labels...), nil
}

func (f *fakeAPI) CreateLabel(_ context.Context, name string) (*entity.Label, error) {
	f.hit("CreateLabel")
	f.createdName = name
	return &entity.Label{ID: 11, Name: name}, nil
}

func (f *fakeAPI) UpdateLabel(_ context.Context, id int64, name string) (*entity.Label, error) {
	f.hit("UpdateLabel")
	return &entity.Label{ID: id, Name: name}, nil
}

func (f *fakeAPI) DeleteLabel(context.Context, int64) error {
	f.hit("DeleteLabel")
	return nil
}

func (f *fakeAPI) Predict(_ context.Context, image *entity.ImageAsset) (*entity.PredictionResult, error) {
	f.hit("Predict")
	if f.predict != nil {
		return f.predict(image)
	}
	return &entity.PredictionResult{PredictedLabel: "pizza", Confidence: 0.92, Image: image}, nil
}

func (f *fakeAPI) AddSample(_ context.Context, image *entity.ImageAsset, labelID int64) (*entity.FeedbackRecord, error) {
	f.hit("AddSample")
	if f.addSample != nil {
		return f.addSample(image, labelID)
	}
	label, _ := entity.FindLabel(f.labels, labelID)
	return &entity.FeedbackRecord{ID: 100, Label: &label}, nil
}

func (f *fakeAPI) ListFeedback(_ context.Context, query entity.FeedbackQuery) (*entity.FeedbackPage, error) {
	f.hit("ListFeedback")
	f.mu.Lock()
	f.lastQuery = query
	f.mu.Unlock()
	if f.page != nil {
		return f.page, nil
	}
	return &entity.FeedbackPage{Page: query.Page, PageSize: query.PageSize}, nil
}

func (f *fakeAPI) GetFeedback(_ context.Context, id int64) (*entity.FeedbackRecord, error) {
	f.hit("GetFeedback")
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	r := *f.record
	r.ID = id
	return &r, nil
}

func (f *fakeAPI) EditFeedback(_ context.Context, id int64, edit entity.FeedbackEdit) (*entity.FeedbackRecord, error) {
	f.hit("EditFeedback")
	f.mu.Lock()
	f.lastEdit = edit
	f.mu.Unlock()
	if f.editErr != nil {
		return nil, f.editErr
	}
	r := *f.record
	r.ID = id
	if edit.LabelID != 0 {
		label, _ := entity.FindLabel(f.labels, edit.LabelID)
		r.Label = &label
	}
	if edit.Image != nil {
		r.ImageURL = "/media/feedback/" + edit.Image.Name
	}
	return &r, nil
}

func (f *fakeAPI) DeleteFeedback(_ context.Context, _ int64, token entity.CapabilityToken) error {
	f.hit("DeleteFeedback")
	f.mu.Lock()
	f.lastDelete = token
	f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeAPI) SubmitReview(_ context.Context, review entity.ReviewSubmission) (*entity.FeedbackRecord, error) {
	f.hit("SubmitReview")
	f.mu.Lock()
	f.lastReview = review
	f.mu.Unlock()
	if f.reviewErr != nil {
		return nil, f.reviewErr
	}
	return &entity.FeedbackRecord{ID: 55, PredictedLabel: review.PredictedLabel, Verdict: review.Verdict}, nil
}

func (f *fakeAPI) Retrain(context.Context) (*entity.RetrainReport, error) {
	f.hit("Retrain")
	if f.retrain != nil {
		return f.retrain()
	}
	return &entity.RetrainReport{Message: "ok"}, nil
}

func (f *fakeAPI) SystemStats(context.Context) (*entity.SystemStats, error) {
	f.hit("SystemStats")
	return &entity.SystemStats{FeedbackCount: 5, LabelCount: 2}, nil
}

var (
	_ port.LabelCatalog  = (*fakeAPI)(nil)
	_ port.Classifier    = (*fakeAPI)(nil)
	_ port.FeedbackStore = (*fakeAPI)(nil)
	_ port.ModelTrainer  = (*fakeAPI)(nil)
)

func newRepo() port.UserRepository {
	return storage.NewMemoryUserRepository()
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func jpegAsset(name string) *entity.ImageAsset {
	return &entity.ImageAsset{Name: name, MimeType: "image/jpeg", Size: 4, Data: []byte{0xff, 0xd8, 0xff, 0xe0}}
}
