package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"food-bot/internal/container"
	"food-bot/internal/domain/entity"
)

// Bot представляет Telegram-бота
type Bot struct {
	api       *tgbotapi.BotAPI
	app       *container.Container
	logger    *zap.Logger
	mediaBase *url.URL
	wg        sync.WaitGroup
}

// NewBot создаёт нового бота. mediaBase — адрес API, относительно которого
// разрешаются ссылки на изображения записей.
func NewBot(token string, debug bool, mediaBase string, app *container.Container, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}
	api.Debug = debug

	base, err := url.Parse(strings.TrimRight(mediaBase, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid media base url: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", api.Self.UserName))

	return &Bot{
		api:       api,
		app:       app,
		logger:    logger,
		mediaBase: base,
	}, nil
}

// Run запускает основной цикл обработки сообщений. Каждое обновление
// обрабатывается в своей горутине, чтобы медленный запрос не задерживал другие чаты.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	navigations := b.app.Editor.Navigations()

	b.logger.Info("Telegram bot started, waiting for updates...")
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Telegram bot shutting down...")
			b.api.StopReceivingUpdates()
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.spawn(func() { b.handleUpdate(ctx, update) })

		case ev := <-navigations:
			b.spawn(func() { b.handleNavigation(ctx, ev) })
		}
	}
}

func (b *Bot) spawn(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("panic while handling update", zap.Any("panic", r), zap.Stack("stack"))
			}
		}()
		fn()
	}()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото: берём файл с максимальным разрешением
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg, photo.FileID, entity.ImageAsset{
			Name:     photo.FileUniqueID + ".jpg",
			MimeType: "image/jpeg",
			Size:     int64(photo.FileSize),
		})
		return
	}

	// Изображение, отправленное файлом
	if doc := msg.Document; doc != nil {
		b.handleImage(ctx, msg, doc.FileID, entity.ImageAsset{
			Name:     doc.FileName,
			MimeType: doc.MimeType,
			Size:     int64(doc.FileSize),
		})
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleImage проверяет файл по метаданным до скачивания, затем отдаёт его
// в открытую запись или в загрузку.
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, fileID string, meta entity.ImageAsset) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	if err := entity.ValidateImage(&meta); err != nil {
		b.sendMessage(chatID, errorText(err))
		return
	}

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("failed to download file", zap.Int64("user_id", userID), zap.Error(err))
		b.sendMessage(chatID, msgDownloadFailed)
		return
	}
	meta.Data = data
	meta.Size = int64(len(data))

	user, err := b.app.Users.Get(ctx, userID, chatID)
	if err != nil {
		b.logger.Error("failed to get user", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	if user.State == entity.StateEditing && user.Editor != nil {
		user, err = b.app.Editor.ReplaceImage(ctx, userID, chatID, &meta)
		if err != nil {
			b.sendMessage(chatID, errorText(err))
			return
		}
		b.sendPreview(chatID, data, "🖼 Новое изображение: "+meta.Name, nil)
		b.sendEditor(chatID, user.Editor)
		return
	}

	user, err = b.app.Upload.SelectImage(ctx, userID, chatID, &meta)
	if err != nil {
		b.sendMessage(chatID, errorText(err))
		return
	}
	kb := uploadKeyboard(&user, 0)
	b.sendPreview(chatID, data, renderSelection(&user), &kb)
}

func (b *Bot) handleNavigation(ctx context.Context, ev entity.NavigationEvent) {
	if _, err := b.app.Editor.Close(ctx, ev.UserID, ev.ChatID); err != nil {
		b.logger.Error("failed to close editor", zap.Int64("user_id", ev.UserID), zap.Error(err))
	}
	b.sendFeedbackPage(ctx, ev.UserID, ev.ChatID, entity.FeedbackQuery{})
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	// Лишний байт сверх лимита нужен, чтобы проверка размера сработала.
	data, err := io.ReadAll(io.LimitReader(resp.Body, entity.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// mediaURL превращает относительную ссылку на изображение в абсолютную.
func (b *Bot) mediaURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return b.mediaBase.ResolveReference(u).String()
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("Error sending message", zap.Error(err))
	}
}

// sendPreview отправляет уменьшенную копию изображения. Если превью
// построить не удалось, отправляется только текст.
func (b *Bot) sendPreview(chatID int64, data []byte, caption string, kb *tgbotapi.InlineKeyboardMarkup) {
	preview, err := b.app.Previewer.Preview(data)
	if err != nil {
		b.logger.Warn("failed to build preview", zap.Error(err))
		b.sendWithKeyboard(chatID, caption, kb)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "preview.jpg", Bytes: preview})
	photo.Caption = caption
	if kb != nil {
		photo.ReplyMarkup = *kb
	}
	b.send(photo)
}

// sendRecordImage показывает изображение записи по ссылке.
func (b *Bot) sendRecordImage(chatID int64, ref string) {
	if ref == "" {
		return
	}
	link := b.mediaURL(ref)
	if _, err := b.api.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(link))); err != nil {
		b.logger.Warn("failed to send record image", zap.String("url", link), zap.Error(err))
		b.sendMessage(chatID, "🖼 "+link)
	}
}

func (b *Bot) sendEditor(chatID int64, e *entity.EditorSession) {
	b.sendWithKeyboard(chatID, renderEditor(e), editorKeyboard(e, 0))
}

// editMessage обновляет сообщение с кнопками: подпись у фото, текст у остальных.
func (b *Bot) editMessage(msg *tgbotapi.Message, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if msg == nil {
		return
	}

	var c tgbotapi.Chattable
	if len(msg.Photo) > 0 {
		edit := tgbotapi.NewEditMessageCaption(msg.Chat.ID, msg.MessageID, text)
		edit.ReplyMarkup = kb
		c = edit
	} else {
		edit := tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, text)
		edit.ReplyMarkup = kb
		c = edit
	}

	if _, err := b.api.Send(c); err != nil && !isNotModified(err) {
		b.logger.Error("Failed to edit message", zap.Error(err))
	}
}

// isNotModified распознаёт ответ Telegram на правку без изменений.
func isNotModified(err error) bool {
	var tgErr *tgbotapi.Error
	return errors.As(err, &tgErr) && strings.Contains(tgErr.Message, "message is not modified")
}
