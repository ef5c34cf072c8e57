package foodapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"food-bot/internal/domain/entity"
)

// apiTime разбирает даты Django как с часовым поясом, так и без него.
type apiTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *apiTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported time format %q", s)
}

type errorBody struct {
	Error string `json:"error"`
}

type feedbackBody struct {
	ID             int64         `json:"id"`
	Image          string        `json:"image"`
	Label          *entity.Label `json:"label"`
	PredictedLabel *string       `json:"predicted_label"`
	IsCorrect      *bool         `json:"is_correct"`
	Token          *string       `json:"token"`
	CreatedAt      apiTime       `json:"created_at"`
}

func (b *feedbackBody) toEntity() *entity.FeedbackRecord {
	record := &entity.FeedbackRecord{
		ID:        b.ID,
		ImageURL:  b.Image,
		Label:     b.Label,
		CreatedAt: b.CreatedAt.Time,
	}
	if b.PredictedLabel != nil {
		record.PredictedLabel = *b.PredictedLabel
	}
	if b.Token != nil {
		record.Token = entity.CapabilityToken(*b.Token)
	}
	record.Verdict = verdictFromWire(b.IsCorrect)
	return record
}

// verdictFromWire переводит трёхзначный is_correct в Verdict.
func verdictFromWire(isCorrect *bool) entity.Verdict {
	switch {
	case isCorrect == nil:
		return entity.VerdictUnreviewed
	case *isCorrect:
		return entity.VerdictConfirmed
	default:
		return entity.VerdictCorrected
	}
}

// verdictToWire возвращает значение is_correct для формы.
// Для непроверенной записи поле не отправляется.
func verdictToWire(v entity.Verdict) (string, bool) {
	switch v {
	case entity.VerdictConfirmed:
		return "true", true
	case entity.VerdictCorrected:
		return "false", true
	default:
		return "", false
	}
}

type predictBody struct {
	PredictedLabel string        `json:"predicted_label"`
	Confidence     *float64      `json:"confidence"`
	Error          string        `json:"error"`
	Feedback       *feedbackBody `json:"feedback"`
}

type feedbackEnvelope struct {
	Message  string        `json:"message"`
	Feedback *feedbackBody `json:"feedback"`
}

type feedbackListBody struct {
	Results []feedbackBody `json:"results"`
	Count   int            `json:"count"`
}

// decodeFeedbackList принимает как {results, count}, так и голый массив.
func decodeFeedbackList(data []byte) (*feedbackListBody, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []feedbackBody
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return &feedbackListBody{Results: records, Count: len(records)}, nil
	}

	var body feedbackListBody
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

type retrainBody struct {
	Stats *struct {
		TotalSamples   int      `json:"total_samples"`
		LabeledSamples int      `json:"labeled_samples"`
		TotalLabels    int      `json:"total_labels"`
		LastRetrain    *apiTime `json:"last_retrain"`
	} `json:"stats"`
	Output  string `json:"output"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b *retrainBody) toEntity() *entity.RetrainReport {
	report := &entity.RetrainReport{Output: b.Output, Message: b.Message}
	if b.Stats != nil {
		report.Stats = &entity.TrainingStats{
			TotalSamples:   b.Stats.TotalSamples,
			LabeledSamples: b.Stats.LabeledSamples,
			TotalLabels:    b.Stats.TotalLabels,
		}
		if b.Stats.LastRetrain != nil && !b.Stats.LastRetrain.IsZero() {
			last := b.Stats.LastRetrain.Time
			report.Stats.LastRetrain = &last
		}
	}
	return report
}

type statsBody struct {
	FeedbackCount      int      `json:"feedback_count"`
	LabelCount         int      `json:"label_count"`
	CorrectPredictions *int     `json:"correct_predictions"`
	Accuracy           *float64 `json:"accuracy"`
}

type labelRequest struct {
	Name string `json:"name"`
}

type deleteFeedbackRequest struct {
	Token string `json:"token,omitempty"`
}

// feedbackListParams кодируется в query через gorilla/schema.
type feedbackListParams struct {
	Label    int64 `schema:"label,omitempty"`
	Page     int   `schema:"page,omitempty"`
	PageSize int   `schema:"page_size,omitempty"`
}
