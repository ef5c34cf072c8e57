package entity

// ConfidenceLevel — качественная оценка уверенности модели.
type ConfidenceLevel string

const (
	ConfidenceExcellent ConfidenceLevel = "excellent"
	ConfidenceGood      ConfidenceLevel = "good"
	ConfidencePoor      ConfidenceLevel = "poor"
)

// PredictionResult — ответ классификатора. После получения не изменяется.
type PredictionResult struct {
	PredictedLabel string      // предсказанная метка
	Confidence     float64     // вероятность в [0, 1], 0 если не передана
	Error          string      // ошибка, сообщённая API
	Image          *ImageAsset // исходное изображение для последующего отзыва
}

// HasPrediction сообщает, что результат содержит метку, а не ошибку.
func (r *PredictionResult) HasPrediction() bool {
	return r != nil && r.Error == "" && r.PredictedLabel != ""
}

// ConfidenceLevel возвращает оценку уверенности.
func (r *PredictionResult) ConfidenceLevel() ConfidenceLevel {
	switch {
	case r.Confidence >= 0.8:
		return ConfidenceExcellent
	case r.Confidence >= 0.6:
		return ConfidenceGood
	default:
		return ConfidencePoor
	}
}
