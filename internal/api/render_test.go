package telegram

import (
	"fmt"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"food-bot/internal/domain/entity"
)

func buttonData(kb *tgbotapi.InlineKeyboardMarkup) []string {
	if kb == nil {
		return nil
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

func ptr(kb tgbotapi.InlineKeyboardMarkup) *tgbotapi.InlineKeyboardMarkup {
	return &kb
}

func TestParseFeedbackArgs(t *testing.T) {
	q, ok := parseFeedbackArgs("")
	require.True(t, ok)
	require.Equal(t, entity.FeedbackQuery{}, q)

	q, ok = parseFeedbackArgs("3 2")
	require.True(t, ok)
	require.Equal(t, entity.FeedbackQuery{LabelID: 3, Page: 2}, q)

	for _, bad := range []string{"x", "3 0", "-1", "1 2 3"} {
		_, ok = parseFeedbackArgs(bad)
		require.False(t, ok, bad)
	}
}

func TestParseCallback(t *testing.T) {
	action, args := parseCallback("page:3:2")
	require.Equal(t, cbPage, action)
	require.Equal(t, []string{"3", "2"}, args)

	action, args = parseCallback(cbEditorDelete)
	require.Equal(t, cbEditorDelete, action)
	require.Empty(t, args)
}

func TestFeedbackKeyboard_EditOnlyWithToken(t *testing.T) {
	page := &entity.FeedbackPage{
		Records: []entity.FeedbackRecord{
			{ID: 1, Token: "c0ffee"},
			{ID: 2},
			{ID: 3, Token: entity.CapabilityToken(strings.Repeat("x", 80))},
		},
		Count:    25,
		Page:     2,
		PageSize: 10,
	}

	data := buttonData(feedbackKeyboard(page, 3))
	require.Equal(t, []string{"edit:1:c0ffee", "view:2", "view:3", "page:3:1", "page:3:3"}, data)
}

func TestFeedbackKeyboard_EmptyPage(t *testing.T) {
	require.Nil(t, feedbackKeyboard(&entity.FeedbackPage{Page: 1, PageSize: 10}, 0))
	require.Equal(t, msgFeedbackEmpty, renderFeedbackPage(&entity.FeedbackPage{Page: 1, PageSize: 10}, ""))
}

func TestReviewKeyboard_HiddenAfterResolution(t *testing.T) {
	u := entity.NewUser(1, 10)
	u.Result = &entity.PredictionResult{PredictedLabel: "pizza", Confidence: 0.92}
	require.Equal(t, []string{cbReviewOK, cbReviewFix}, buttonData(reviewKeyboard(u, 0)))
	require.Contains(t, renderResult(u), "pizza")
	require.Contains(t, renderResult(u), "92.0%")

	u.Labels = []entity.Label{{ID: 3, Name: "pizza"}, {ID: 7, Name: "pasta"}}
	require.NoError(t, u.Review.BeginCorrection())
	require.Equal(t, []string{"fix:3", "fix:7", cbFixCancel}, buttonData(reviewKeyboard(u, 0)))

	require.NoError(t, u.Review.SelectCorrection(7))
	require.Contains(t, buttonData(reviewKeyboard(u, 0)), cbFixSend)

	u.Review.Resolve(entity.VerdictCorrected)
	require.Nil(t, reviewKeyboard(u, 0))
	require.Contains(t, renderResult(u), "pasta")
}

func TestReviewKeyboard_NoPromptForErrorResult(t *testing.T) {
	u := entity.NewUser(1, 10)
	u.Result = &entity.PredictionResult{Error: "model is not trained"}
	require.Nil(t, reviewKeyboard(u, 0))
	require.Contains(t, renderResult(u), "model is not trained")
}

func TestEditorKeyboard_ReadOnlyWithoutToken(t *testing.T) {
	e := entity.NewEditorSession(42, "", &entity.FeedbackRecord{ID: 42}, []entity.Label{{ID: 3, Name: "pizza"}})
	require.Equal(t, []string{cbEditorClose}, buttonData(editorKeyboard(e, 0)))
	require.Contains(t, renderEditor(e), msgReadOnly)

	e = entity.NewEditorSession(42, "tok", &entity.FeedbackRecord{ID: 42}, []entity.Label{{ID: 3, Name: "pizza"}})
	require.Equal(t, []string{"elabel:3", cbEditorSave, cbEditorDelete, cbEditorClose}, buttonData(editorKeyboard(e, 0)))

	e.ConfirmingDelete = true
	require.Equal(t, []string{cbDeleteYes, cbDeleteNo}, buttonData(editorKeyboard(e, 0)))

	e.Removed()
	require.Nil(t, editorKeyboard(e, 0))
	require.Equal(t, msgDeleted, renderEditor(e))
}

func TestUploadKeyboard(t *testing.T) {
	u := entity.NewUser(1, 10)
	require.Equal(t, []string{cbModePredict, cbModeAdd}, buttonData(ptr(uploadKeyboard(u, 0))))

	u.SwitchMode(entity.ModeAdd)
	u.Labels = []entity.Label{{ID: 3, Name: "pizza"}}
	require.NoError(t, u.SelectImage(&entity.ImageAsset{Name: "a.jpg", Size: 2048}))
	require.Equal(t, []string{cbModePredict, cbModeAdd, "sample:3", cbSubmit, cbClear}, buttonData(ptr(uploadKeyboard(u, 0))))
	require.Contains(t, renderSelection(u), "Метка не выбрана")
	require.Contains(t, renderSelection(u), "2.0 КБ")
}

func TestLabelRows_Paged(t *testing.T) {
	labels := make([]entity.Label, 25)
	for i := range labels {
		labels[i] = entity.Label{ID: int64(i + 1), Name: fmt.Sprintf("label %d", i+1)}
	}

	u := entity.NewUser(1, 10)
	u.Labels = labels
	u.Result = &entity.PredictionResult{PredictedLabel: "pizza", Confidence: 0.5}
	require.NoError(t, u.Review.BeginCorrection())

	data := buttonData(reviewKeyboard(u, 1))
	require.Len(t, data, labelsPerPage+2)
	require.Equal(t, "fix:1", data[0])
	require.Equal(t, "fix:10", data[labelsPerPage-1])
	require.Equal(t, []string{"lpage:fix:2", cbFixCancel}, data[labelsPerPage:])

	data = buttonData(reviewKeyboard(u, 2))
	require.Equal(t, "fix:11", data[0])
	require.Equal(t, []string{"lpage:fix:1", "lpage:fix:3", cbFixCancel}, data[labelsPerPage:])

	// Без номера страницы открывается страница с выбранной меткой.
	require.NoError(t, u.Review.SelectCorrection(23))
	data = buttonData(reviewKeyboard(u, 0))
	require.Equal(t, []string{"fix:21", "fix:22", "fix:23", "fix:24", "fix:25", "lpage:fix:2", cbFixCancel, cbFixSend}, data)

	// Номер за последней страницей сводится к последней.
	require.Equal(t, data, buttonData(reviewKeyboard(u, 9)))

	e := entity.NewEditorSession(42, "tok", &entity.FeedbackRecord{ID: 42}, labels)
	require.Contains(t, buttonData(editorKeyboard(e, 1)), "lpage:elabel:2")
	for _, d := range buttonData(editorKeyboard(e, 1)) {
		require.LessOrEqual(t, len(d), maxCallbackData)
	}
}

func TestErrorText(t *testing.T) {
	require.Equal(t, msgNoImage, errorText(entity.ErrNoImage))
	require.Equal(t, msgLabelRequired, errorText(fmt.Errorf("submit: %w", entity.ErrLabelRequired)))
	require.Equal(t, msgRequestFailed, errorText(fmt.Errorf("%w: boom", entity.ErrRequestFailed)))
	require.Contains(t, errorText(&entity.ValidationError{Reason: "file too large, max 10 MB"}), "10 МБ")

	apiErr := fmt.Errorf("%w: %w", entity.ErrRequestFailed, &entity.APIError{Status: 403, Message: "Invalid token"})
	require.Equal(t, "⚠️ Invalid token", serverErrorText(apiErr))
	require.Equal(t, msgRequestFailed, serverErrorText(fmt.Errorf("%w: eof", entity.ErrRequestFailed)))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 5))
	out := truncate(strings.Repeat("я", 10), 5)
	require.Equal(t, 5, len([]rune(out)))
	require.True(t, strings.HasSuffix(out, "…"))
}
