package entity

import "time"

// Verdict — итог проверки предсказания пользователем.
type Verdict int

const (
	VerdictUnreviewed Verdict = iota // отзыва нет: сырой обучающий пример
	VerdictConfirmed                 // пользователь подтвердил предсказание
	VerdictCorrected                 // пользователь исправил метку
)

func (v Verdict) String() string {
	switch v {
	case VerdictConfirmed:
		return "confirmed"
	case VerdictCorrected:
		return "corrected"
	default:
		return "unreviewed"
	}
}

// CapabilityToken — непрозрачный токен, дающий право менять одну запись.
type CapabilityToken string

// Present сообщает, что токен передан.
func (t CapabilityToken) Present() bool {
	return t != ""
}

// FeedbackRecord — сохранённое изображение с итогом предсказания.
type FeedbackRecord struct {
	ID             int64
	ImageURL       string
	Label          *Label
	PredictedLabel string
	Verdict        Verdict
	Token          CapabilityToken
	CreatedAt      time.Time
}

// Editable сообщает, нужно ли показывать кнопки правки и удаления.
// Это только удобство интерфейса: права проверяет API.
func (r *FeedbackRecord) Editable() bool {
	return r.Token.Present()
}

// LabelName возвращает имя метки или пустую строку.
func (r *FeedbackRecord) LabelName() string {
	if r.Label == nil {
		return ""
	}
	return r.Label.Name
}

// DisplaysCorrect сообщает, отображать ли запись как верное предсказание.
// Исправленная запись никогда не считается верной.
func (r *FeedbackRecord) DisplaysCorrect() bool {
	switch r.Verdict {
	case VerdictConfirmed:
		return true
	case VerdictCorrected:
		return false
	default:
		return r.PredictedLabel != "" && r.Label != nil && r.Label.Name == r.PredictedLabel
	}
}

// FeedbackQuery — фильтр и страница списка отзывов. Нулевые поля не передаются.
type FeedbackQuery struct {
	LabelID  int64
	Page     int
	PageSize int
}

// FeedbackPage — страница списка отзывов.
type FeedbackPage struct {
	Records  []FeedbackRecord
	Count    int
	Page     int
	PageSize int
}

// TotalPages возвращает число страниц: ceil(Count / PageSize).
func (p *FeedbackPage) TotalPages() int {
	if p.PageSize <= 0 || p.Count <= 0 {
		return 0
	}
	return (p.Count + p.PageSize - 1) / p.PageSize
}

// Empty сообщает, что записей нет.
func (p *FeedbackPage) Empty() bool {
	return len(p.Records) == 0
}

// FeedbackEdit — изменённые поля записи. Нулевые поля не отправляются.
type FeedbackEdit struct {
	Image   *ImageAsset
	LabelID int64
	Token   CapabilityToken
}

// ReviewSubmission — отзыв о предсказании для submit-feedback.
type ReviewSubmission struct {
	Image          *ImageAsset
	PredictedLabel string
	Verdict        Verdict // VerdictConfirmed или VerdictCorrected
	CorrectLabelID int64   // только для VerdictCorrected
}

// TrainingStats — статистика последнего переобучения.
type TrainingStats struct {
	TotalSamples   int
	LabeledSamples int
	TotalLabels    int
	LastRetrain    *time.Time
}

// RetrainReport — ответ на запуск переобучения.
type RetrainReport struct {
	Stats   *TrainingStats
	Output  string
	Message string
}

// Log возвращает журнал обучения или сообщение сервера.
func (r *RetrainReport) Log() string {
	if r.Output != "" {
		return r.Output
	}
	return r.Message
}

// SystemStats — сводка по системе.
type SystemStats struct {
	FeedbackCount      int
	LabelCount         int
	CorrectPredictions *int
	Accuracy           *float64
}

// NavigationEvent — запрос на переход к списку отзывов.
type NavigationEvent struct {
	UserID int64
	ChatID int64
}
