package entity

// ReviewState — состояние проверки одного результата предсказания.
type ReviewState string

const (
	ReviewUnreviewed         ReviewState = "unreviewed"          // результат получен, отзыва нет
	ReviewAwaitingCorrection ReviewState = "awaiting_correction" // пользователь выбирает верную метку
	ReviewResolvedCorrect    ReviewState = "resolved_correct"    // предсказание подтверждено
	ReviewResolvedIncorrect  ReviewState = "resolved_incorrect"  // предсказание исправлено
)

// Review — жизненный цикл отзыва для конкретного PredictionResult.
// Завершённый отзыв больше не меняется.
type Review struct {
	State        ReviewState
	CorrectionID int64  // выбранная верная метка
	Submitting   bool   // запрос в пути
	Err          string // текст последней ошибки отправки
}

// NewReview создаёт отзыв в начальном состоянии.
func NewReview() Review {
	return Review{State: ReviewUnreviewed}
}

// Resolved сообщает, что отзыв завершён.
func (r *Review) Resolved() bool {
	return r.State == ReviewResolvedCorrect || r.State == ReviewResolvedIncorrect
}

// PromptVisible сообщает, показывать ли вопрос «верно ли предсказание?».
func (r *Review) PromptVisible(result *PredictionResult) bool {
	return result.HasPrediction() && !r.Resolved()
}

// Verdict возвращает итог завершённого отзыва.
func (r *Review) Verdict() Verdict {
	switch r.State {
	case ReviewResolvedCorrect:
		return VerdictConfirmed
	case ReviewResolvedIncorrect:
		return VerdictCorrected
	default:
		return VerdictUnreviewed
	}
}

// BeginCorrection переводит отзыв в выбор верной метки. Сетевых вызовов нет.
func (r *Review) BeginCorrection() error {
	if r.Resolved() {
		return ErrReviewResolved
	}
	if r.Submitting {
		return ErrBusy
	}
	r.State = ReviewAwaitingCorrection
	r.Err = ""
	return nil
}

// SelectCorrection запоминает выбранную пользователем метку.
func (r *Review) SelectCorrection(labelID int64) error {
	if r.Resolved() {
		return ErrReviewResolved
	}
	if r.State != ReviewAwaitingCorrection {
		return ErrNotAwaiting
	}
	r.CorrectionID = labelID
	return nil
}

// CancelCorrection закрывает выбор метки и возвращает отзыв в начало.
func (r *Review) CancelCorrection() error {
	if r.Resolved() {
		return ErrReviewResolved
	}
	if r.Submitting {
		return ErrBusy
	}
	r.State = ReviewUnreviewed
	r.CorrectionID = 0
	r.Err = ""
	return nil
}

// beginSubmit помечает отзыв как отправляемый и возвращает состояние для отката.
func (r *Review) beginSubmit() (ReviewState, error) {
	if r.Resolved() {
		return r.State, ErrReviewResolved
	}
	if r.Submitting {
		return r.State, ErrBusy
	}
	r.Submitting = true
	r.Err = ""
	return r.State, nil
}

// BeginConfirmCorrect начинает отправку подтверждения.
func (r *Review) BeginConfirmCorrect() (ReviewState, error) {
	return r.beginSubmit()
}

// BeginConfirmIncorrect начинает отправку исправления.
// Без выбранной метки возвращает ErrLabelRequired и ничего не меняет.
func (r *Review) BeginConfirmIncorrect() (ReviewState, error) {
	if r.Resolved() {
		return r.State, ErrReviewResolved
	}
	if r.State != ReviewAwaitingCorrection {
		return r.State, ErrNotAwaiting
	}
	if r.CorrectionID == 0 {
		return r.State, ErrLabelRequired
	}
	return r.beginSubmit()
}

// Resolve завершает отзыв после успешной отправки.
func (r *Review) Resolve(verdict Verdict) {
	r.Submitting = false
	r.Err = ""
	switch verdict {
	case VerdictConfirmed:
		r.State = ReviewResolvedCorrect
	case VerdictCorrected:
		r.State = ReviewResolvedIncorrect
	}
}

// Fail откатывает отзыв в состояние до отправки и запоминает ошибку.
func (r *Review) Fail(prev ReviewState, msg string) {
	r.Submitting = false
	r.State = prev
	r.Err = msg
}
