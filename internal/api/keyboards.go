package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"food-bot/internal/domain/entity"
)

// Данные inline-кнопок: "действие" или "действие:аргументы".
// sample:<метка>, fix:<метка>, page:<метка>:<страница>, view:<id>,
// edit:<id>:<токен>, elabel:<метка>, ldel:<метка>, lpage:<действие>:<страница>.
const (
	cbModePredict   = "mode:predict"
	cbModeAdd       = "mode:add"
	cbSubmit        = "submit"
	cbClear         = "clear"
	cbSample        = "sample"
	cbReviewOK      = "review:ok"
	cbReviewFix     = "review:fix"
	cbFix           = "fix"
	cbFixSend       = "fix:send"
	cbFixCancel     = "fix:cancel"
	cbPage          = "page"
	cbView          = "view"
	cbEdit          = "edit"
	cbEditorLabel   = "elabel"
	cbEditorSave    = "esave"
	cbEditorDrop    = "edrop"
	cbEditorDelete  = "edelete"
	cbDeleteYes     = "edelete:yes"
	cbDeleteNo      = "edelete:no"
	cbEditorClose   = "eclose"
	cbLabelDelete   = "ldel"
	cbLabelKeep     = "ldel:no"
	cbLabelPage     = "lpage"
	maxCallbackData = 64
	labelsPerRow    = 2
	labelsPerPage   = 10
)

func callbackData(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, ":")
}

// parseCallback разделяет данные кнопки на действие и числовые аргументы.
func parseCallback(data string) (action string, args []string) {
	parts := strings.Split(data, ":")
	return parts[0], parts[1:]
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}

// labelRows строит страницу кнопок меток. page == 0 выбирает страницу
// с отмеченной меткой. При нескольких страницах добавляется строка листания.
func labelRows(labels []entity.Label, action string, selected int64, page int) [][]tgbotapi.InlineKeyboardButton {
	pages := (len(labels) + labelsPerPage - 1) / labelsPerPage
	if pages == 0 {
		return nil
	}
	if page <= 0 {
		page = 1
		for i, l := range labels {
			if l.ID == selected {
				page = i/labelsPerPage + 1
				break
			}
		}
	}
	page = min(page, pages)

	start := (page - 1) * labelsPerPage
	end := min(start+labelsPerPage, len(labels))

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, l := range labels[start:end] {
		text := l.Name
		if l.ID == selected {
			text = "✅ " + text
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(text, callbackData(action, l.ID)))
		if len(row) == labelsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", callbackData(cbLabelPage, action, page-1)))
	}
	if page < pages {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", callbackData(cbLabelPage, action, page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return rows
}

// uploadKeyboard — кнопки под выбранным изображением.
func uploadKeyboard(u *entity.User, labelPage int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	predict, add := "🔍 Распознать", "➕ Добавить"
	if u.Mode == entity.ModeAdd {
		add = "• " + add
	} else {
		predict = "• " + predict
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(predict, cbModePredict),
		tgbotapi.NewInlineKeyboardButtonData(add, cbModeAdd),
	))

	if u.Mode == entity.ModeAdd {
		rows = append(rows, labelRows(u.Labels, cbSample, u.LabelID, labelPage)...)
	}

	if u.Image != nil {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Отправить", cbSubmit),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Убрать", cbClear),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// reviewKeyboard — кнопки отзыва. Для завершённого отзыва кнопок нет.
func reviewKeyboard(u *entity.User, labelPage int) *tgbotapi.InlineKeyboardMarkup {
	if !u.Review.PromptVisible(u.Result) || u.Review.Submitting {
		return nil
	}

	var kb tgbotapi.InlineKeyboardMarkup
	switch u.Review.State {
	case entity.ReviewAwaitingCorrection:
		rows := labelRows(u.Labels, cbFix, u.Review.CorrectionID, labelPage)
		last := []tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardButtonData("↩️ Отмена", cbFixCancel)}
		if u.Review.CorrectionID != 0 {
			last = append(last, tgbotapi.NewInlineKeyboardButtonData("📤 Отправить", cbFixSend))
		}
		kb = tgbotapi.NewInlineKeyboardMarkup(append(rows, last)...)
	default:
		kb = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👍 Верно", cbReviewOK),
			tgbotapi.NewInlineKeyboardButtonData("👎 Неверно", cbReviewFix),
		))
	}
	return &kb
}

// feedbackKeyboard — кнопки записей и страниц списка отзывов.
func feedbackKeyboard(p *entity.FeedbackPage, labelID int64) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := range p.Records {
		r := &p.Records[i]
		text := fmt.Sprintf("👁 #%d", r.ID)
		data := callbackData(cbView, r.ID)
		if r.Editable() {
			if d := callbackData(cbEdit, r.ID, r.Token); len(d) <= maxCallbackData {
				text = fmt.Sprintf("✏️ #%d", r.ID)
				data = d
			}
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(text, data)))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if p.Page > 1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", callbackData(cbPage, labelID, p.Page-1)))
	}
	if p.Page < p.TotalPages() {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", callbackData(cbPage, labelID, p.Page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// editorKeyboard — кнопки открытой записи. Без токена кнопок правки нет.
func editorKeyboard(e *entity.EditorSession, labelPage int) *tgbotapi.InlineKeyboardMarkup {
	if e.Deleted || e.Busy {
		return nil
	}

	closeRow := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("↩️ Закрыть", cbEditorClose))
	if !e.CanEdit() {
		kb := tgbotapi.NewInlineKeyboardMarkup(closeRow)
		return &kb
	}

	if e.ConfirmingDelete {
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Да, удалить", cbDeleteYes),
			tgbotapi.NewInlineKeyboardButtonData("Нет", cbDeleteNo),
		))
		return &kb
	}

	rows := labelRows(e.Labels, cbEditorLabel, e.LabelID, labelPage)
	actions := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("💾 Сохранить", cbEditorSave),
		tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", cbEditorDelete),
	}
	if e.NewImage != nil {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("🖼 Вернуть фото", cbEditorDrop))
	}
	rows = append(rows, actions, closeRow)
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func labelDeleteKeyboard(id int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Да, удалить", callbackData(cbLabelDelete, id)),
		tgbotapi.NewInlineKeyboardButtonData("Нет", cbLabelKeep),
	))
}
