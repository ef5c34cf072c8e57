package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu UserState = "main_menu" // В главном меню, фото идёт в загрузку
	StateEditing  UserState = "editing"   // Открыта запись отзыва, фото заменяет изображение
)

// Mode режим загрузки
type Mode string

const (
	ModePredict Mode = "predict" // распознать блюдо
	ModeAdd     Mode = "add"     // добавить обучающий пример
)

// User представляет пользователя бота вместе с его рабочей сессией
type User struct {
	ID     int64     // Telegram User ID
	ChatID int64     // Telegram Chat ID
	State  UserState // Текущее состояние пользователя

	Mode       Mode
	Image      *ImageAsset // выбранное изображение
	ImageError string      // ошибка проверки последнего выбранного файла
	LabelID    int64       // метка для режима add
	Labels     []Label     // кэш меток на время сессии, nil — не загружены

	Submitting  bool   // отправка изображения в пути
	SubmitError string // ошибка последней отправки
	Generation  uint64 // растёт при каждой смене изображения или режима

	Result *PredictionResult // результат последнего распознавания
	Review Review            // отзыв о Result
	Sample *FeedbackRecord   // результат последнего добавления примера

	Editor *EditorSession // открытая запись отзыва
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
		Mode:   ModePredict,
		Review: NewReview(),
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// LabelsLoaded сообщает, что кэш меток заполнен.
func (u *User) LabelsLoaded() bool {
	return u.Labels != nil
}

// CanSubmit сообщает, доступна ли кнопка отправки.
func (u *User) CanSubmit() bool {
	return u.Image != nil && !u.Submitting
}

// SelectImage проверяет и запоминает новое изображение.
// Новый выбор сбрасывает прежние результаты.
func (u *User) SelectImage(a *ImageAsset) error {
	if a == nil {
		return nil
	}
	if err := ValidateImage(a); err != nil {
		u.ImageError = err.Error()
		return err
	}

	u.ImageError = ""
	u.Image = a
	u.discardResults()
	return nil
}

// ClearImage убирает выбранное изображение и результаты.
func (u *User) ClearImage() {
	u.Image = nil
	u.ImageError = ""
	u.discardResults()
}

// SwitchMode меняет режим загрузки.
func (u *User) SwitchMode(mode Mode) {
	if u.Mode == mode {
		return
	}
	u.Mode = mode
	u.discardResults()
}

func (u *User) discardResults() {
	u.Generation++
	u.Result = nil
	u.Review = NewReview()
	u.Sample = nil
	u.SubmitError = ""
}

// Snapshot возвращает копию пользователя, безопасную для чтения вне блокировки.
func (u *User) Snapshot() User {
	s := *u
	if u.Labels != nil {
		s.Labels = append([]Label(nil), u.Labels...)
	}
	if u.Editor != nil {
		e := u.Editor.snapshot()
		s.Editor = &e
	}
	return s
}
