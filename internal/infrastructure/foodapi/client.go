package foodapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"food-bot/internal/domain/entity"
	"food-bot/internal/domain/port"
)

const (
	apiPrefix       = "api/food"
	requestIDHeader = "X-Request-ID"
)

// Client — REST-клиент API распознавания блюд.
type Client struct {
	client  *resty.Client
	encoder *schema.Encoder
	logger  *zap.Logger
}

// NewClient создаёт клиент. baseURL — адрес сервера без префикса api/food.
// Нулевой timeout оставляет таймаут транспорта по умолчанию.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	base := strings.TrimRight(baseURL, "/") + "/" + apiPrefix

	rc := resty.New().
		SetBaseURL(base).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(requestIDHeader) == "" {
			r.SetHeader(requestIDHeader, uuid.NewString())
		}
		return nil
	})

	return &Client{
		client:  rc,
		encoder: schema.NewEncoder(),
		logger:  logger,
	}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.client.R().SetContext(ctx)
}

// do выполняет запрос и превращает неуспешный ответ в *entity.APIError.
func (c *Client) do(req *resty.Request, method, path string) (*resty.Response, error) {
	res, err := req.Execute(method, path)
	if err != nil {
		c.logger.Error("food api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", req.Header.Get(requestIDHeader)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if !res.IsSuccess() {
		apiErr := &entity.APIError{Status: res.StatusCode()}
		var body errorBody
		if json.Unmarshal(res.Body(), &body) == nil {
			apiErr.Message = body.Error
		}
		c.logger.Error("food api returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", req.Header.Get(requestIDHeader)),
			zap.Int("status_code", res.StatusCode()),
			zap.String("body", res.String()),
		)
		return res, fmt.Errorf("%s %s: %w", method, path, apiErr)
	}

	return res, nil
}

func decode[T any](res *resty.Response, path string) (*T, error) {
	var out T
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return &out, nil
}

func imageField(image *entity.ImageAsset) *resty.MultipartField {
	contentType := image.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := image.Name
	if name == "" {
		name = "image"
	}
	return &resty.MultipartField{
		Param:       "image",
		FileName:    name,
		ContentType: contentType,
		Reader:      bytes.NewReader(image.Data),
	}
}

// ListLabels GET labels/
func (c *Client) ListLabels(ctx context.Context) ([]entity.Label, error) {
	res, err := c.do(c.request(ctx), http.MethodGet, "/labels/")
	if err != nil {
		return nil, err
	}
	labels, err := decode[[]entity.Label](res, "/labels/")
	if err != nil {
		return nil, err
	}
	if *labels == nil {
		return []entity.Label{}, nil
	}
	return *labels, nil
}

// CreateLabel POST labels/
func (c *Client) CreateLabel(ctx context.Context, name string) (*entity.Label, error) {
	req := c.request(ctx).SetBody(labelRequest{Name: name})
	res, err := c.do(req, http.MethodPost, "/labels/")
	if err != nil {
		return nil, err
	}
	return decode[entity.Label](res, "/labels/")
}

// UpdateLabel PUT labels/{id}/
func (c *Client) UpdateLabel(ctx context.Context, id int64, name string) (*entity.Label, error) {
	path := fmt.Sprintf("/labels/%d/", id)
	req := c.request(ctx).SetBody(labelRequest{Name: name})
	res, err := c.do(req, http.MethodPut, path)
	if err != nil {
		return nil, err
	}
	return decode[entity.Label](res, path)
}

// DeleteLabel DELETE labels/{id}/
func (c *Client) DeleteLabel(ctx context.Context, id int64) error {
	_, err := c.do(c.request(ctx), http.MethodDelete, fmt.Sprintf("/labels/%d/", id))
	return err
}

// Predict POST predict/. Ответ с полем error возвращается как результат с ошибкой,
// чтобы её можно было показать рядом с изображением.
func (c *Client) Predict(ctx context.Context, image *entity.ImageAsset) (*entity.PredictionResult, error) {
	req := c.request(ctx).SetMultipartFields(imageField(image))
	res, err := c.do(req, http.MethodPost, "/predict/")
	if err != nil {
		if msg, ok := entity.ServerMessage(err); ok {
			return &entity.PredictionResult{Error: msg, Image: image}, nil
		}
		return nil, err
	}

	body, err := decode[predictBody](res, "/predict/")
	if err != nil {
		return nil, err
	}

	result := &entity.PredictionResult{
		PredictedLabel: body.PredictedLabel,
		Error:          body.Error,
		Image:          image,
	}
	if body.Error != "" {
		result.PredictedLabel = ""
	}
	if body.Confidence != nil {
		result.Confidence = *body.Confidence
	}
	return result, nil
}

// AddSample POST add/
func (c *Client) AddSample(ctx context.Context, image *entity.ImageAsset, labelID int64) (*entity.FeedbackRecord, error) {
	req := c.request(ctx).
		SetMultipartFields(imageField(image)).
		SetMultipartFormData(map[string]string{
			"label_id": strconv.FormatInt(labelID, 10),
		})
	res, err := c.do(req, http.MethodPost, "/add/")
	if err != nil {
		return nil, err
	}
	body, err := decode[feedbackBody](res, "/add/")
	if err != nil {
		return nil, err
	}
	return body.toEntity(), nil
}

// ListFeedback GET feedback-list/. Передаются только ненулевые параметры.
func (c *Client) ListFeedback(ctx context.Context, query entity.FeedbackQuery) (*entity.FeedbackPage, error) {
	params := url.Values{}
	if err := c.encoder.Encode(feedbackListParams{
		Label:    query.LabelID,
		Page:     query.Page,
		PageSize: query.PageSize,
	}, params); err != nil {
		return nil, fmt.Errorf("encode feedback query: %w", err)
	}

	req := c.request(ctx).SetQueryParamsFromValues(params)
	res, err := c.do(req, http.MethodGet, "/feedback-list/")
	if err != nil {
		return nil, err
	}

	body, err := decodeFeedbackList(res.Body())
	if err != nil {
		return nil, fmt.Errorf("decode /feedback-list/ response: %w", err)
	}

	page := &entity.FeedbackPage{
		Records:  make([]entity.FeedbackRecord, 0, len(body.Results)),
		Count:    body.Count,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	for i := range body.Results {
		page.Records = append(page.Records, *body.Results[i].toEntity())
	}
	return page, nil
}

// GetFeedback GET feedback/{id}/
func (c *Client) GetFeedback(ctx context.Context, id int64) (*entity.FeedbackRecord, error) {
	path := fmt.Sprintf("/feedback/%d/", id)
	res, err := c.do(c.request(ctx), http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	body, err := decode[feedbackBody](res, path)
	if err != nil {
		return nil, err
	}
	return body.toEntity(), nil
}

// EditFeedback PATCH feedback/{id}/ только с изменёнными полями.
func (c *Client) EditFeedback(ctx context.Context, id int64, edit entity.FeedbackEdit) (*entity.FeedbackRecord, error) {
	path := fmt.Sprintf("/feedback/%d/", id)

	form := map[string]string{}
	if edit.LabelID != 0 {
		form["label_id"] = strconv.FormatInt(edit.LabelID, 10)
	}
	if edit.Token.Present() {
		form["token"] = string(edit.Token)
	}

	req := c.request(ctx).SetMultipartFormData(form)
	if edit.Image != nil {
		req.SetMultipartFields(imageField(edit.Image))
	}

	res, err := c.do(req, http.MethodPatch, path)
	if err != nil {
		return nil, err
	}
	body, err := decode[feedbackBody](res, path)
	if err != nil {
		return nil, err
	}
	return body.toEntity(), nil
}

// DeleteFeedback DELETE feedback/{id}/ с токеном в теле.
func (c *Client) DeleteFeedback(ctx context.Context, id int64, token entity.CapabilityToken) error {
	req := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(deleteFeedbackRequest{Token: string(token)})
	_, err := c.do(req, http.MethodDelete, fmt.Sprintf("/feedback/%d/", id))
	return err
}

// SubmitReview POST submit-feedback/
func (c *Client) SubmitReview(ctx context.Context, review entity.ReviewSubmission) (*entity.FeedbackRecord, error) {
	form := map[string]string{
		"predicted_label": review.PredictedLabel,
	}
	if v, ok := verdictToWire(review.Verdict); ok {
		form["is_correct"] = v
	}
	if review.Verdict == entity.VerdictCorrected && review.CorrectLabelID != 0 {
		form["correct_label"] = strconv.FormatInt(review.CorrectLabelID, 10)
	}

	req := c.request(ctx).
		SetMultipartFields(imageField(review.Image)).
		SetMultipartFormData(form)
	res, err := c.do(req, http.MethodPost, "/submit-feedback/")
	if err != nil {
		return nil, err
	}

	envelope, err := decode[feedbackEnvelope](res, "/submit-feedback/")
	if err != nil {
		return nil, err
	}
	if envelope.Feedback != nil {
		return envelope.Feedback.toEntity(), nil
	}

	body, err := decode[feedbackBody](res, "/submit-feedback/")
	if err != nil {
		return nil, err
	}
	return body.toEntity(), nil
}

// Retrain POST retrain/
func (c *Client) Retrain(ctx context.Context) (*entity.RetrainReport, error) {
	res, err := c.do(c.request(ctx), http.MethodPost, "/retrain/")
	if err != nil {
		return nil, err
	}
	body, err := decode[retrainBody](res, "/retrain/")
	if err != nil {
		return nil, err
	}
	if body.Error != "" {
		return nil, &entity.APIError{Status: res.StatusCode(), Message: body.Error}
	}
	return body.toEntity(), nil
}

// SystemStats GET system-stats/
func (c *Client) SystemStats(ctx context.Context) (*entity.SystemStats, error) {
	res, err := c.do(c.request(ctx), http.MethodGet, "/system-stats/")
	if err != nil {
		return nil, err
	}
	body, err := decode[statsBody](res, "/system-stats/")
	if err != nil {
		return nil, err
	}
	return &entity.SystemStats{
		FeedbackCount:      body.FeedbackCount,
		LabelCount:         body.LabelCount,
		CorrectPredictions: body.CorrectPredictions,
		Accuracy:           body.Accuracy,
	}, nil
}

// Проверка реализации интерфейсов
var (
	_ port.LabelCatalog  = (*Client)(nil)
	_ port.Classifier    = (*Client)(nil)
	_ port.FeedbackStore = (*Client)(nil)
	_ port.ModelTrainer  = (*Client)(nil)
)
