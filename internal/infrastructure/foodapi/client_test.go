package foodapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"food-bot/internal/domain/entity"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 0, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func testImage() *entity.ImageAsset {
	return &entity.ImageAsset{Name: "photo.jpg", MimeType: "image/jpeg", Size: 4, Data: []byte{0xff, 0xd8, 0xff, 0xe0}}
}

func TestListLabels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/food/labels/", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "name": "pizza", "sample_count": 12},
			{"id": 7, "name": "pasta", "sample_count": 3},
		})
	})

	labels, err := c.ListLabels(context.Background())
	require.NoError(t, err)
	require.Equal(t, []entity.Label{
		{ID: 1, Name: "pizza", SampleCount: 12},
		{ID: 7, Name: "pasta", SampleCount: 3},
	}, labels)
}

func TestCreateAndUpdateLabel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/api/food/labels/", r.URL.Path)
			writeJSON(w, http.StatusCreated, map[string]any{"id": 3, "name": body["name"], "sample_count": 0})
		case http.MethodPut:
			assert.Equal(t, "/api/food/labels/3/", r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]any{"id": 3, "name": body["name"], "sample_count": 0})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	created, err := c.CreateLabel(context.Background(), "soup")
	require.NoError(t, err)
	require.Equal(t, entity.Label{ID: 3, Name: "soup"}, *created)

	updated, err := c.UpdateLabel(context.Background(), 3, "borscht")
	require.NoError(t, err)
	require.Equal(t, "borscht", updated.Name)
}

func TestPredict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/food/predict/", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("image")
		assert.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "photo.jpg", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Len(t, data, 4)
		assert.Empty(t, r.FormValue("is_correct"))
		writeJSON(w, http.StatusOK, map[string]any{"predicted_label": "pizza", "confidence": 0.92})
	})

	img := testImage()
	result, err := c.Predict(context.Background(), img)
	require.NoError(t, err)
	require.Equal(t, "pizza", result.PredictedLabel)
	require.InDelta(t, 0.92, result.Confidence, 1e-9)
	require.Same(t, img, result.Image)
	require.True(t, result.HasPrediction())
}

func TestPredict_ServerErrorBecomesResultError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Model not available. Please retrain the model."})
	})

	result, err := c.Predict(context.Background(), testImage())
	require.NoError(t, err)
	require.False(t, result.HasPrediction())
	require.Equal(t, "Model not available. Please retrain the model.", result.Error)
}

func TestPredict_ErrorWithoutBodyFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Predict(context.Background(), testImage())
	var apiErr *entity.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestAddSample(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/food/add/", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "7", r.FormValue("label_id"))
		assert.Empty(t, r.FormValue("is_correct"))
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":         99,
			"image":      "http://api/media/food_feedback/pasta/photo.jpg",
			"label":      map[string]any{"id": 7, "name": "pasta", "sample_count": 4},
			"token":      "3f1c0a9e-8a7b-4a43-9d59-2b0f6c1b1f00",
			"created_at": "2025-03-21T18:27:17.123456Z",
		})
	})

	record, err := c.AddSample(context.Background(), testImage(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(99), record.ID)
	require.Equal(t, "pasta", record.LabelName())
	require.True(t, record.Editable())
	require.Equal(t, entity.VerdictUnreviewed, record.Verdict)
	require.Equal(t, 2025, record.CreatedAt.Year())
}

func TestListFeedback_SendsQueryOnce(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/food/feedback-list/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "3", q.Get("label"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("page_size"))
		assert.Len(t, q, 3)
		writeJSON(w, http.StatusOK, map[string]any{
			"count": 25,
			"results": []map[string]any{
				{"id": 11, "image": "a.jpg", "predicted_label": "pizza", "is_correct": true, "created_at": "2025-03-21T18:27:17"},
				{"id": 12, "image": "b.jpg", "predicted_label": "pizza", "is_correct": false},
				{"id": 13, "image": "c.jpg", "is_correct": nil},
			},
		})
	})

	page, err := c.ListFeedback(context.Background(), entity.FeedbackQuery{LabelID: 3, Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, 25, page.Count)
	require.Equal(t, 3, page.TotalPages())
	require.Len(t, page.Records, 3)
	require.Equal(t, entity.VerdictConfirmed, page.Records[0].Verdict)
	require.Equal(t, entity.VerdictCorrected, page.Records[1].Verdict)
	require.Equal(t, entity.VerdictUnreviewed, page.Records[2].Verdict)
}

func TestListFeedback_OmitsZeroParamsAndAcceptsArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "image": "a.jpg"}})
	})

	page, err := c.ListFeedback(context.Background(), entity.FeedbackQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	require.Len(t, page.Records, 1)
}

func TestEditFeedback_SendsOnlyChangedFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/food/feedback/42/", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "2", r.FormValue("label_id"))
		assert.Equal(t, "tok", r.FormValue("token"))
		_, _, err := r.FormFile("image")
		assert.ErrorIs(t, err, http.ErrMissingFile)
		writeJSON(w, http.StatusOK, map[string]any{"id": 42, "image": "x.jpg", "label": map[string]any{"id": 2, "name": "pasta"}})
	})

	record, err := c.EditFeedback(context.Background(), 42, entity.FeedbackEdit{LabelID: 2, Token: "tok"})
	require.NoError(t, err)
	require.Equal(t, "pasta", record.LabelName())
}

func TestDeleteFeedback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["token"] != "tok" {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid token."})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteFeedback(context.Background(), 42, "tok"))

	err := c.DeleteFeedback(context.Background(), 42, "bad")
	msg, ok := entity.ServerMessage(err)
	require.True(t, ok)
	require.Equal(t, "Invalid token.", msg)
}

func TestSubmitReview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/food/submit-feedback/", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "pizza", r.FormValue("predicted_label"))
		assert.Equal(t, "false", r.FormValue("is_correct"))
		assert.Equal(t, "7", r.FormValue("correct_label"))
		writeJSON(w, http.StatusCreated, map[string]any{
			"message":  "Feedback submitted successfully.",
			"feedback": map[string]any{"id": 5, "image": "x.jpg", "label": map[string]any{"id": 7, "name": "pasta"}},
		})
	})

	record, err := c.SubmitReview(context.Background(), entity.ReviewSubmission{
		Image:          testImage(),
		PredictedLabel: "pizza",
		Verdict:        entity.VerdictCorrected,
		CorrectLabelID: 7,
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), record.ID)
}

func TestSubmitReview_ConfirmedOmitsCorrectLabel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "true", r.FormValue("is_correct"))
		_, present := r.MultipartForm.Value["correct_label"]
		assert.False(t, present)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 6, "image": "x.jpg"})
	})

	record, err := c.SubmitReview(context.Background(), entity.ReviewSubmission{
		Image:          testImage(),
		PredictedLabel: "pizza",
		Verdict:        entity.VerdictConfirmed,
		CorrectLabelID: 7,
	})
	require.NoError(t, err)
	require.Equal(t, int64(6), record.ID)
}

func TestRetrain(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"stats": map[string]any{
				"total_samples":   120,
				"labeled_samples": 118,
				"total_labels":    6,
				"last_retrain":    "2025-06-01T10:00:00Z",
			},
			"output": "epoch 1/5 ...",
		})
	})

	report, err := c.Retrain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 120, report.Stats.TotalSamples)
	require.NotNil(t, report.Stats.LastRetrain)
	require.Equal(t, "epoch 1/5 ...", report.Log())
}

func TestRetrain_ServerMessageSurfaces(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Retrain failed."})
	})

	_, err := c.Retrain(context.Background())
	msg, ok := entity.ServerMessage(err)
	require.True(t, ok)
	require.Equal(t, "Retrain failed.", msg)
}

func TestSystemStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/food/system-stats/", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"feedback_count": 40, "label_count": 5, "accuracy": 0.87})
	})

	stats, err := c.SystemStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 40, stats.FeedbackCount)
	require.Nil(t, stats.CorrectPredictions)
	require.InDelta(t, 0.87, *stats.Accuracy, 1e-9)
}
