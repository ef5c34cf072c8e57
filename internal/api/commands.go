package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "food-bot/internal/application"
	"food-bot/internal/domain/entity"
)

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		if _, err := b.app.Users.Reset(ctx, userID, chatID); err != nil {
			b.sendMessage(chatID, errorText(err))
			return
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "predict":
		b.switchMode(ctx, userID, chatID, entity.ModePredict)

	case "add":
		b.switchMode(ctx, userID, chatID, entity.ModeAdd)

	case "clear":
		if _, err := b.app.Upload.ClearImage(ctx, userID, chatID); err != nil {
			b.sendMessage(chatID, errorText(err))
			return
		}
		b.sendMessage(chatID, msgImageCleared)

	case "submit":
		b.submit(ctx, userID, chatID)

	case "feedback":
		query, ok := parseFeedbackArgs(args)
		if !ok {
			b.sendMessage(chatID, msgFeedbackUsage)
			return
		}
		b.sendFeedbackPage(ctx, userID, chatID, query)

	case "edit":
		fields := strings.Fields(args)
		if len(fields) == 0 || len(fields) > 2 {
			b.sendMessage(chatID, msgEditUsage)
			return
		}
		id, ok := parseID(fields[0])
		if !ok {
			b.sendMessage(chatID, msgEditUsage)
			return
		}
		var token entity.CapabilityToken
		if len(fields) == 2 {
			token = entity.CapabilityToken(fields[1])
		}
		b.openEditor(ctx, userID, chatID, id, token)

	case "labels":
		b.sendLabels(ctx, userID, chatID, args == "refresh")

	case "newlabel":
		if args == "" {
			b.sendMessage(chatID, msgNewLabelUsage)
			return
		}
		label, err := b.app.Labels.Create(ctx, args)
		if err != nil {
			b.sendMessage(chatID, serverErrorText(err))
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("✅ Метка «%s» создана (id %d).", label.Name, label.ID))

	case "renamelabel":
		parts := strings.SplitN(args, " ", 2)
		if len(parts) != 2 {
			b.sendMessage(chatID, msgRenameUsage)
			return
		}
		id, ok := parseID(parts[0])
		if !ok {
			b.sendMessage(chatID, msgRenameUsage)
			return
		}
		label, err := b.app.Labels.Rename(ctx, id, parts[1])
		if err != nil {
			b.sendMessage(chatID, serverErrorText(err))
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("✅ Метка %d переименована в «%s».", label.ID, label.Name))

	case "deletelabel":
		id, ok := parseID(args)
		if !ok {
			b.sendMessage(chatID, msgDeleteLabelUsage)
			return
		}
		kb := labelDeleteKeyboard(id)
		b.sendWithKeyboard(chatID, fmt.Sprintf("🗑 Удалить метку %d? Её примеры останутся без метки.", id), &kb)

	case "retrain":
		b.retrain(ctx, chatID)

	case "stats":
		stats, err := b.app.Training.Stats(ctx)
		if err != nil {
			b.sendMessage(chatID, errorText(err))
			return
		}
		b.sendMessage(chatID, renderStats(stats, b.app.Training.Running()))

	case "cancel":
		if _, err := b.app.Users.Cancel(ctx, userID, chatID); err != nil {
			b.logger.Error("failed to cancel", zap.Int64("user_id", userID), zap.Error(err))
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// parseFeedbackArgs разбирает "/feedback [метка] [страница]".
func parseFeedbackArgs(args string) (entity.FeedbackQuery, bool) {
	var q entity.FeedbackQuery
	fields := strings.Fields(args)
	if len(fields) > 2 {
		return q, false
	}
	if len(fields) >= 1 {
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil || id < 0 {
			return q, false
		}
		q.LabelID = id
	}
	if len(fields) == 2 {
		page, err := strconv.Atoi(fields[1])
		if err != nil || page < 1 {
			return q, false
		}
		q.Page = page
	}
	return q, true
}

func (b *Bot) switchMode(ctx context.Context, userID, chatID int64, mode entity.Mode) {
	user, err := b.app.Upload.SwitchMode(ctx, userID, chatID, mode)
	if err != nil {
		b.sendMessage(chatID, errorText(err))
		return
	}
	text := cardText(&user)
	if mode == entity.ModeAdd && len(user.Labels) == 0 {
		text += "\n\n" + msgNoLabels
	}
	kb := uploadKeyboard(&user, 0)
	b.sendWithKeyboard(chatID, text, &kb)
}

// cardText — текст карточки загрузки.
func cardText(u *entity.User) string {
	if u.Image != nil {
		return renderSelection(u)
	}
	if u.Mode == entity.ModeAdd {
		return msgModeAdd
	}
	return msgModePredict
}

// submit отправляет изображение и присылает результат отдельным сообщением.
func (b *Bot) submit(ctx context.Context, userID, chatID int64) {
	b.sendMessage(chatID, msgProcessing)

	user, err := b.app.Upload.Submit(ctx, userID, chatID)
	if app.IsInputError(err) {
		// Ввод можно исправить прямо под сообщением об ошибке.
		kb := uploadKeyboard(&user, 0)
		b.sendWithKeyboard(chatID, errorText(err), &kb)
		return
	}
	if err != nil {
		b.sendMessage(chatID, errorText(err))
		return
	}

	if user.Mode == entity.ModeAdd {
		if user.Sample != nil {
			b.sendMessage(chatID, renderSample(user.Sample))
		}
		return
	}
	b.sendWithKeyboard(chatID, renderResult(&user), reviewKeyboard(&user, 0))
}

func (b *Bot) sendFeedbackPage(ctx context.Context, userID, chatID int64, query entity.FeedbackQuery) {
	page, err := b.app.Feedback.List(ctx, query)
	if err != nil {
		b.sendMessage(chatID, errorText(err))
		return
	}
	b.sendWithKeyboard(chatID, renderFeedbackPage(page, b.labelName(ctx, userID, chatID, query.LabelID)), feedbackKeyboard(page, query.LabelID))
}

// labelName ищет имя метки в кэше сессии, без запроса к API.
func (b *Bot) labelName(ctx context.Context, userID, chatID, labelID int64) string {
	if labelID == 0 {
		return ""
	}
	user, err := b.app.Users.Get(ctx, userID, chatID)
	if err == nil {
		if label, ok := entity.FindLabel(user.Labels, labelID); ok {
			return label.Name
		}
	}
	return fmt.Sprintf("#%d", labelID)
}

func (b *Bot) openEditor(ctx context.Context, userID, chatID, id int64, token entity.CapabilityToken) {
	user, err := b.app.Editor.Open(ctx, userID, chatID, id, token)
	if err != nil {
		b.sendMessage(chatID, errorText(err))
		return
	}
	b.sendRecordImage(chatID, user.Editor.Record.ImageURL)
	b.sendEditor(chatID, user.Editor)
}

func (b *Bot) sendLabels(ctx context.Context, userID, chatID int64, refresh bool) {
	var (
		labels []entity.Label
		err    error
	)
	if refresh {
		labels, err = b.app.Upload.Labels(ctx, userID, chatID, true)
	} else {
		labels, err = b.app.Labels.List(ctx)
	}
	if err != nil {
		b.sendMessage(chatID, errorText(err))
		return
	}
	b.sendMessage(chatID, renderLabels(labels))
}

func (b *Bot) retrain(ctx context.Context, chatID int64) {
	if b.app.Training.Running() {
		b.sendMessage(chatID, msgRetrainBusy)
		return
	}
	b.sendMessage(chatID, msgRetrainStarted)

	report, err := b.app.Training.Retrain(ctx)
	switch {
	case errors.Is(err, entity.ErrBusy):
		b.sendMessage(chatID, msgRetrainBusy)
	case err != nil:
		b.sendMessage(chatID, serverErrorText(err))
	default:
		b.sendMessage(chatID, renderRetrain(report))
	}
}
