package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"food-bot/internal/domain/entity"
)

// handleCallbackQuery обрабатывает нажатия inline-кнопок
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil || query.Message == nil {
		b.answer(query, "")
		return
	}
	b.logger.Debug("Received callback query",
		zap.String("data", query.Data),
		zap.Int64("user_id", query.From.ID),
	)

	userID, chatID := query.From.ID, query.Message.Chat.ID
	action, args := parseCallback(query.Data)

	var toast string
	switch action {
	case "mode":
		toast = b.onMode(ctx, query, userID, chatID, args)
	case cbSample:
		toast = b.onSample(ctx, query, userID, chatID, args)
	case cbSubmit:
		b.answer(query, "")
		b.submit(ctx, userID, chatID)
		return
	case cbClear:
		_, err := b.app.Upload.ClearImage(ctx, userID, chatID)
		if err != nil {
			toast = errorText(err)
			break
		}
		b.editMessage(query.Message, msgImageCleared, nil)
	case "review":
		toast = b.onReview(ctx, query, userID, chatID, args)
	case cbFix:
		toast = b.onFix(ctx, query, userID, chatID, args)
	case cbPage:
		toast = b.onPage(ctx, query, userID, chatID, args)
	case cbView, cbEdit:
		b.answer(query, "")
		b.onOpen(ctx, userID, chatID, args)
		return
	case cbEditorLabel, cbEditorSave, cbEditorDrop, cbEditorDelete, cbEditorClose:
		toast = b.onEditor(ctx, query, userID, chatID, action, args)
	case cbLabelDelete:
		toast = b.onLabelDelete(ctx, query, args)
	case cbLabelPage:
		toast = b.onLabelPage(ctx, query, userID, chatID, args)
	default:
		b.logger.Warn("Unknown callback action", zap.String("data", query.Data))
		toast = msgBadCallback
	}

	b.answer(query, toast)
}

// answer подтверждает нажатие, при необходимости с всплывающим текстом.
func (b *Bot) answer(query *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, text)); err != nil {
		b.logger.Error("Failed to send callback response", zap.Error(err))
	}
}

func (b *Bot) onMode(ctx context.Context, query *tgbotapi.CallbackQuery, userID, chatID int64, args []string) string {
	if len(args) != 1 {
		return msgBadCallback
	}
	mode := entity.Mode(args[0])
	if mode != entity.ModePredict && mode != entity.ModeAdd {
		return msgBadCallback
	}

	user, err := b.app.Upload.SwitchMode(ctx, userID, chatID, mode)
	if err != nil {
		return errorText(err)
	}
	kb := uploadKeyboard(&user, 0)
	b.editMessage(query.Message, cardText(&user), &kb)
	return ""
}

func (b *Bot) onSample(ctx context.Context, query *tgbotapi.CallbackQuery, userID, chatID int64, args []string) string {
	if len(args) != 1 {
		return msgBadCallback
	}
	id, ok := parseID(args[0])
	if !ok {
		return msgBadCallback
	}

	user, err := b.app.Upload.SelectLabel(ctx, userID, chatID, id)
	if err != nil {
		return errorText(err)
	}
	kb := uploadKeyboard(&user, 0)
	b.editMessage(query.Message, cardText(&user), &kb)
	return ""
}

func (b *Bot) onReview(ctx context.Context, query *tgbotapi.CallbackQuery, userID, chatID int64, args []string) string {
	if len(args) != 1 {
		return msgBadCallback
	}

	var (
		user entity.User
		err  error
	)
	switch args[0] {
	case "ok":
		user, err = b.app.Review.ConfirmCorrect(ctx, userID, chatID)
	case "fix":
		user, err = b.app.Review.BeginCorrection(ctx, userID, chatID)
	default:
		return msgBadCallback
	}
	return b.refreshResult(query, user, err)
}

func (b *Bot) onFix(ctx context.Context, query *tgbotapi.CallbackQuery, userID, chatID int64, args []string) string {
	if len(args) != 1 {
		return msgBadCallback
	}

	var (
		user entity.User
		err  error
	)
	switch args[0] {
	case "send":
		user, err = b.app.Review.ConfirmIncorrect(ctx, userID, chatID)
	case "cancel":
		user, err = b.app.Review.CancelCorrection(ctx, userID, chatID)
	default:
		id, ok := parseID(args[0])
		if !ok {
			return msgBadCallback
		}
		user, err = b.app.Review.SelectCorrection(ctx, userID, chatID, id)
	}
	return b.refreshResult(query, user, err)
}

// refreshResult перерисовывает карточку результата после действия с отзывом.
// Ошибка отправки уже видна в карточке, поэтому всплывающий текст только для прочих ошибок.
func (b *Bot) refreshResult(query *tgbotapi.CallbackQuery, user entity.User, err error) string {
	if errors.Is(err, entity.ErrStaleResponse) {
		return msgStale
	}
	if user.Result != nil {
		b.editMessage(query.Message, renderResult(&user), reviewKeyboard(&user, 0))
	}
	switch {
	case err == nil:
		if user.Review.Resolved() {
			return msgReviewThanks
		}
		return ""
	case errors.Is(err, entity.ErrRequestFailed):
		return ""
	default:
		return errorText(err)
	}
}

func (b *Bot) onPage(ctx context.Context, query *tgbotapi.CallbackQuery, userID, chatID int64, args []string) string {
	if len(args) != 2 {
		return msgBadCallback
	}
	labelID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || labelID < 0 {
		return msgBadCallback
	}
	pageNum, err := strconv.Atoi(args[1])
	if err != nil || pageNum < 1 {
		return msgBadCallback
	}

	q := entity.FeedbackQuery{LabelID: labelID, Page: pageNum}
	page, err := b.app.Feedback.List(ctx, q)
	if err != nil {
		return errorText(err)
	}
	b.editMessage(query.Message, renderFeedbackPage(page, b.labelName(ctx, userID, chatID, labelID)), feedbackKeyboard(page, labelID))
	return ""
}

// onLabelPage листает метки в карточке, не меняя состояния пользователя.
func (b *Bot) onLabelPage(ctx context.Context, query *tgbotapi.CallbackQuery, userID, chatID int64, args []string) string {
	if len(args) != 2 {
		return msgBadCallback
	}
	pageNum, err := strconv.Atoi(args[1])
	if err != nil || pageNum < 1 {
		return msgBadCallback
	}

	user, err := b.app.Users.Get(ctx, userID, chatID)
	if err != nil {
		return errorText(err)
	}

	var kb *tgbotapi.InlineKeyboardMarkup
	switch args[0] {
	case cbSample:
		upload := uploadKeyboard(&user, pageNum)
		kb = &upload
	case cbFix:
		kb = reviewKeyboard(&user, pageNum)
	case cbEditorLabel:
		if user.Editor != nil {
			kb = editorKeyboard(user.Editor, pageNum)
		}
	default:
		return msgBadCallback
	}
	if kb == nil {
		return msgStale
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(query.Message.Chat.ID, query.Message.MessageID, *kb)
	if _, err := b.api.Send(edit); err != nil && !isNotModified(err) {
		b.logger.Error("Failed to edit keyboard", zap.Error(err))
	}
	return ""
}

func (b *Bot) onOpen(ctx context.Context, userID, chatID int64, args []string) {
	if len(args) == 0 {
		b.sendMessage(chatID, msgBadCallback)
		return
	}
	id, ok := parseID(args[0])
	if !ok {
		b.sendMessage(chatID, msgBadCallback)
		return
	}
	var token entity.CapabilityToken
	if len(args) > 1 {
		token = entity.CapabilityToken(strings.Join(args[1:], ":"))
	}
	b.openEditor(ctx, userID, chatID, id, token)
}

func (b *Bot) onEditor(ctx context.Context, query *tgbotapi.CallbackQuery, userID, chatID int64, action string, args []string) string {
	var (
		user entity.User
		err  error
	)

	switch {
	case action == cbEditorLabel:
		if len(args) != 1 {
			return msgBadCallback
		}
		id, ok := parseID(args[0])
		if !ok {
			return msgBadCallback
		}
		user, err = b.app.Editor.SelectLabel(ctx, userID, chatID, id)
	case action == cbEditorSave:
		user, err = b.app.Editor.Save(ctx, userID, chatID)
	case action == cbEditorDrop:
		user, err = b.app.Editor.DropImage(ctx, userID, chatID)
	case action == cbEditorClose:
		if _, err := b.app.Editor.Close(ctx, userID, chatID); err != nil {
			return errorText(err)
		}
		b.editMessage(query.Message, "📝 Запись закрыта.", nil)
		return ""
	case len(args) == 0:
		user, err = b.app.Editor.RequestDelete(ctx, userID, chatID)
	case args[0] == "yes":
		user, err = b.app.Editor.ConfirmDelete(ctx, userID, chatID)
	case args[0] == "no":
		user, err = b.app.Editor.CancelDelete(ctx, userID, chatID)
	default:
		return msgBadCallback
	}

	if user.Editor != nil && !errors.Is(err, entity.ErrStaleResponse) {
		b.editMessage(query.Message, renderEditor(user.Editor), editorKeyboard(user.Editor, 0))
	}
	switch {
	case err == nil:
		return ""
	case errors.Is(err, entity.ErrRequestFailed):
		// Текст ошибки сервера уже показан в карточке.
		return ""
	default:
		return errorText(err)
	}
}

func (b *Bot) onLabelDelete(ctx context.Context, query *tgbotapi.CallbackQuery, args []string) string {
	if len(args) != 1 {
		return msgBadCallback
	}
	if args[0] == "no" {
		b.editMessage(query.Message, "↩️ Удаление отменено.", nil)
		return ""
	}
	id, ok := parseID(args[0])
	if !ok {
		return msgBadCallback
	}

	if err := b.app.Labels.Delete(ctx, id); err != nil {
		b.editMessage(query.Message, serverErrorText(err), nil)
		return ""
	}
	b.editMessage(query.Message, "✅ Метка удалена.", nil)
	return ""
}
