package telegram

import (
	"errors"
	"fmt"
	"strings"

	"food-bot/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для распознавания блюд по фотографии.

📸 Отправьте фото блюда, и я скажу, что на нём.
➕ В режиме /add фото с меткой пополняет обучающую выборку.

📋 Команды:
/predict — режим распознавания
/add — режим добавления примера
/feedback — отзывы
/labels — метки
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Выберите режим: /predict или /add
2️⃣ Отправьте фото или файл изображения (jpg, png, webp, gif, bmp, tiff, до 10 МБ)
3️⃣ Нажмите «Отправить»
4️⃣ Оцените результат: верно или нет

📋 Команды:
/predict — распознать блюдо
/add — добавить обучающий пример
/submit — отправить выбранное изображение
/clear — убрать выбранное изображение
/feedback [метка] [страница] — список отзывов
/edit <id> [токен] — открыть отзыв
/labels [refresh] — список меток
/newlabel <имя> — создать метку
/renamelabel <id> <имя> — переименовать метку
/deletelabel <id> — удалить метку
/retrain — переобучить модель
/stats — статистика
/cancel — отменить текущую операцию`

	msgCancelled        = "❌ Операция отменена."
	msgSendPhoto        = "📸 Отправьте фото блюда или файл изображения."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing       = "⏳ Обрабатываю изображение..."
	msgNoImage          = "📸 Сначала отправьте изображение."
	msgLabelRequired    = "🏷 Выберите метку для примера."
	msgBusy             = "⏳ Запрос уже выполняется, подождите."
	msgRequestFailed    = "⚠️ Не удалось выполнить запрос. Попробуйте ещё раз."
	msgDownloadFailed   = "⚠️ Не удалось скачать файл. Попробуйте ещё раз."
	msgImageCleared     = "🗑 Изображение убрано."
	msgModePredict      = "🔍 Режим распознавания. Отправьте фото блюда."
	msgModeAdd          = "➕ Режим добавления примера. Выберите метку и отправьте фото."
	msgChooseLabel      = "🏷 Выберите метку:"
	msgNoLabels         = "🏷 Меток пока нет. Создайте первую: /newlabel <имя>"
	msgReviewThanks     = "🙏 Спасибо за отзыв!"
	msgChooseCorrection = "🏷 Какое блюдо на самом деле?"
	msgReviewResolved   = "ℹ️ Отзыв уже отправлен."
	msgNoPrediction     = "ℹ️ Нет результата для оценки."
	msgFeedbackEmpty    = "📭 Отзывов пока нет."
	msgFeedbackUsage    = "Использование: /feedback [id метки] [страница]"
	msgEditUsage        = "Использование: /edit <id> [токен]"
	msgNoEditor         = "ℹ️ Откройте запись: /edit <id> [токен]"
	msgNothingChanged   = "ℹ️ Нет изменений для сохранения."
	msgSaved            = "✅ Изменения сохранены."
	msgDeleteConfirm    = "🗑 Удалить эту запись? Действие необратимо."
	msgDeleted          = "✅ Запись удалена. Возвращаюсь к списку отзывов..."
	msgRecordDeleted    = "ℹ️ Запись уже удалена."
	msgReadOnly         = "🔒 Нет токена: запись доступна только для просмотра."
	msgNewLabelUsage    = "Использование: /newlabel <имя>"
	msgRenameUsage      = "Использование: /renamelabel <id> <имя>"
	msgDeleteLabelUsage = "Использование: /deletelabel <id>"
	msgEmptyLabelName   = "⚠️ Имя метки не может быть пустым."
	msgUnknownLabel     = "⚠️ Такой метки нет."
	msgRetrainStarted   = "🧠 Переобучение запущено, это может занять время..."
	msgRetrainBusy      = "⏳ Переобучение уже идёт."
	msgBadCallback      = "❌ Ошибка обработки запроса"
	msgStale            = "ℹ️ Изображение изменилось, ответ устарел."
)

const maxMessageLen = 4000

// errorText подбирает сообщение для пользователя по ошибке сервиса.
func errorText(err error) string {
	var vErr *entity.ValidationError
	switch {
	case errors.As(err, &vErr):
		return validationText(vErr)
	case errors.Is(err, entity.ErrNoImage):
		return msgNoImage
	case errors.Is(err, entity.ErrLabelRequired):
		return msgLabelRequired
	case errors.Is(err, entity.ErrBusy):
		return msgBusy
	case errors.Is(err, entity.ErrReviewResolved):
		return msgReviewResolved
	case errors.Is(err, entity.ErrNoPrediction), errors.Is(err, entity.ErrNotAwaiting):
		return msgNoPrediction
	case errors.Is(err, entity.ErrUnknownLabel):
		return msgUnknownLabel
	case errors.Is(err, entity.ErrNothingChanged):
		return msgNothingChanged
	case errors.Is(err, entity.ErrNoEditor):
		return msgNoEditor
	case errors.Is(err, entity.ErrRecordDeleted):
		return msgRecordDeleted
	case errors.Is(err, entity.ErrEmptyLabelName):
		return msgEmptyLabelName
	case errors.Is(err, entity.ErrStaleResponse):
		return msgStale
	default:
		return msgRequestFailed
	}
}

// serverErrorText показывает текст ошибки сервера, если он есть.
func serverErrorText(err error) string {
	if msg, ok := entity.ServerMessage(err); ok {
		return "⚠️ " + msg
	}
	return errorText(err)
}

func validationText(err *entity.ValidationError) string {
	if strings.HasPrefix(err.Reason, "file too large") {
		return "⚠️ Файл слишком большой, максимум 10 МБ."
	}
	return "⚠️ Неподдерживаемый тип файла. Допустимы: " + strings.Join(entity.AllowedExtensions, ", ") + "."
}

// inlineError переводит сохранённую в состоянии ошибку.
func inlineError(msg string) string {
	if msg == "" {
		return ""
	}
	switch msg {
	case entity.ErrRequestFailed.Error():
		return msgRequestFailed
	case entity.ErrLabelRequired.Error():
		return msgLabelRequired
	}
	return "⚠️ " + msg
}

func modeName(m entity.Mode) string {
	if m == entity.ModeAdd {
		return "добавление примера"
	}
	return "распознавание"
}

// renderSelection — подпись к превью выбранного изображения.
func renderSelection(u *entity.User) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📎 %s (%s)\n", u.Image.Name, humanSize(u.Image.SizeBytes()))
	fmt.Fprintf(&sb, "Режим: %s", modeName(u.Mode))
	if u.Mode == entity.ModeAdd {
		if label, ok := entity.FindLabel(u.Labels, u.LabelID); ok {
			fmt.Fprintf(&sb, "\nМетка: %s", label.Name)
		} else {
			sb.WriteString("\nМетка не выбрана")
		}
	}
	return sb.String()
}

func humanSize(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f МБ", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f КБ", float64(n)/1024)
	default:
		return fmt.Sprintf("%d Б", n)
	}
}

func confidenceIcon(level entity.ConfidenceLevel) string {
	switch level {
	case entity.ConfidenceExcellent:
		return "🟢"
	case entity.ConfidenceGood:
		return "🟡"
	default:
		return "🔴"
	}
}

// renderResult — карточка результата распознавания вместе с состоянием отзыва.
func renderResult(u *entity.User) string {
	r := u.Result
	if r == nil {
		return msgNoPrediction
	}
	if r.Error != "" {
		return "⚠️ Ошибка распознавания: " + r.Error
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽 Это %s\n", r.PredictedLabel)
	fmt.Fprintf(&sb, "%s Уверенность: %.1f%%", confidenceIcon(r.ConfidenceLevel()), r.Confidence*100)

	switch u.Review.State {
	case entity.ReviewUnreviewed:
		sb.WriteString("\n\nПредсказание верное?")
	case entity.ReviewAwaitingCorrection:
		sb.WriteString("\n\n" + msgChooseCorrection)
		if label, ok := entity.FindLabel(u.Labels, u.Review.CorrectionID); ok {
			fmt.Fprintf(&sb, "\nВыбрано: %s", label.Name)
		}
	case entity.ReviewResolvedCorrect:
		sb.WriteString("\n\n✅ Вы подтвердили предсказание. " + msgReviewThanks)
	case entity.ReviewResolvedIncorrect:
		name := ""
		if label, ok := entity.FindLabel(u.Labels, u.Review.CorrectionID); ok {
			name = label.Name
		}
		fmt.Fprintf(&sb, "\n\n✏️ Исправлено на «%s». %s", name, msgReviewThanks)
	}

	if u.Review.Submitting {
		sb.WriteString("\n⏳ Отправляю отзыв...")
	}
	if e := inlineError(u.Review.Err); e != "" {
		sb.WriteString("\n" + e)
	}
	return sb.String()
}

// renderSample — результат добавления обучающего примера.
func renderSample(r *entity.FeedbackRecord) string {
	return fmt.Sprintf("✅ Пример добавлен: #%d, метка «%s».", r.ID, r.LabelName())
}

func verdictText(r *entity.FeedbackRecord) string {
	switch r.Verdict {
	case entity.VerdictConfirmed:
		return "✅ подтверждено"
	case entity.VerdictCorrected:
		return "✏️ исправлено"
	default:
		if r.PredictedLabel == "" {
			return "➕ обучающий пример"
		}
		if r.DisplaysCorrect() {
			return "✅ совпадает"
		}
		return "❔ без отзыва"
	}
}

// renderRecordLine — строка записи в списке отзывов.
func renderRecordLine(r *entity.FeedbackRecord) string {
	line := fmt.Sprintf("#%d %s", r.ID, r.LabelName())
	if r.PredictedLabel != "" && r.PredictedLabel != r.LabelName() {
		line += fmt.Sprintf(" (модель: %s)", r.PredictedLabel)
	}
	line += " · " + verdictText(r)
	if !r.CreatedAt.IsZero() {
		line += " · " + r.CreatedAt.Format("02.01.2006 15:04")
	}
	return line
}

func renderFeedbackPage(p *entity.FeedbackPage, labelName string) string {
	if p.Empty() {
		if labelName != "" {
			return fmt.Sprintf("📭 Отзывов с меткой «%s» нет.", labelName)
		}
		return msgFeedbackEmpty
	}

	var sb strings.Builder
	sb.WriteString("📋 Отзывы")
	if labelName != "" {
		fmt.Fprintf(&sb, " · %s", labelName)
	}
	fmt.Fprintf(&sb, " (всего %d, страница %d из %d)\n", p.Count, p.Page, max(p.TotalPages(), 1))
	for i := range p.Records {
		sb.WriteString("\n" + renderRecordLine(&p.Records[i]))
	}
	return sb.String()
}

// renderEditor — карточка открытой записи.
func renderEditor(e *entity.EditorSession) string {
	if e.Deleted {
		return msgDeleted
	}

	r := e.Record
	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 Запись #%d\n", e.FeedbackID)
	fmt.Fprintf(&sb, "Метка: %s\n", r.LabelName())
	if r.PredictedLabel != "" {
		fmt.Fprintf(&sb, "Модель: %s\n", r.PredictedLabel)
	}
	fmt.Fprintf(&sb, "Статус: %s", verdictText(r))
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "\nСоздана: %s", r.CreatedAt.Format("02.01.2006 15:04"))
	}

	if !e.CanEdit() {
		sb.WriteString("\n\n" + msgReadOnly)
		return sb.String()
	}

	if label, ok := entity.FindLabel(e.Labels, e.LabelID); ok && e.LabelID != currentLabelID(r) {
		fmt.Fprintf(&sb, "\n\n🏷 Новая метка: %s", label.Name)
	}
	if e.NewImage != nil {
		fmt.Fprintf(&sb, "\n🖼 Новое изображение: %s", e.NewImage.Name)
	}
	if e.Busy {
		sb.WriteString("\n⏳ Сохраняю...")
	}
	if e.Saved {
		sb.WriteString("\n" + msgSaved)
	}
	if e.ConfirmingDelete {
		sb.WriteString("\n\n" + msgDeleteConfirm)
	}
	if e.Err != "" {
		sb.WriteString("\n" + inlineError(e.Err))
	}
	sb.WriteString("\n\nОтправьте фото, чтобы заменить изображение.")
	return sb.String()
}

func currentLabelID(r *entity.FeedbackRecord) int64 {
	if r == nil || r.Label == nil {
		return 0
	}
	return r.Label.ID
}

func renderLabels(labels []entity.Label) string {
	if len(labels) == 0 {
		return msgNoLabels
	}
	var sb strings.Builder
	sb.WriteString("🏷 Метки:\n")
	for _, l := range labels {
		fmt.Fprintf(&sb, "\n%d. %s (примеров: %d)", l.ID, l.Name, l.SampleCount)
	}
	return sb.String()
}

func renderStats(s *entity.SystemStats, retraining bool) string {
	var sb strings.Builder
	sb.WriteString("📊 Статистика\n\n")
	fmt.Fprintf(&sb, "Отзывов: %d\n", s.FeedbackCount)
	fmt.Fprintf(&sb, "Меток: %d", s.LabelCount)
	if s.CorrectPredictions != nil {
		fmt.Fprintf(&sb, "\nВерных предсказаний: %d", *s.CorrectPredictions)
	}
	if s.Accuracy != nil {
		fmt.Fprintf(&sb, "\nТочность: %.1f%%", *s.Accuracy*100)
	}
	if retraining {
		sb.WriteString("\n\n🧠 Идёт переобучение")
	}
	return sb.String()
}

func renderRetrain(r *entity.RetrainReport) string {
	var sb strings.Builder
	sb.WriteString("✅ Переобучение завершено")
	if r.Message != "" {
		sb.WriteString(": " + r.Message)
	}
	if s := r.Stats; s != nil {
		fmt.Fprintf(&sb, "\n\nПримеров: %d (с меткой: %d)\nМеток: %d", s.TotalSamples, s.LabeledSamples, s.TotalLabels)
		if s.LastRetrain != nil {
			fmt.Fprintf(&sb, "\nПоследнее обучение: %s", s.LastRetrain.Format("02.01.2006 15:04"))
		}
	}
	if r.Output != "" {
		sb.WriteString("\n\n📜 Журнал:\n" + r.Output)
	}
	return truncate(sb.String(), maxMessageLen)
}

// truncate обрезает текст по границе руны: Telegram не примет сообщение длиннее лимита.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
