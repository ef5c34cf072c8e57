package entity

// EditorSession — открытая для правки запись отзыва.
type EditorSession struct {
	FeedbackID int64
	Token      CapabilityToken
	Record     *FeedbackRecord // nil после удаления
	Labels     []Label         // собственная копия меток

	NewImage *ImageAsset // заменяющее изображение
	LabelID  int64       // выбранная метка

	Busy             bool
	ConfirmingDelete bool
	Saved            bool
	Deleted          bool
	Err              string
}

// NewEditorSession создаёт сессию правки по загруженной записи.
func NewEditorSession(id int64, token CapabilityToken, record *FeedbackRecord, labels []Label) *EditorSession {
	e := &EditorSession{
		FeedbackID: id,
		Token:      token,
		Record:     record,
		Labels:     labels,
	}
	if record != nil && record.Label != nil {
		e.LabelID = record.Label.ID
	}
	return e
}

// CanEdit сообщает, показывать ли элементы правки и удаления.
func (e *EditorSession) CanEdit() bool {
	return e.Token.Present() && !e.Deleted
}

// Changes возвращает только изменённые поля записи.
func (e *EditorSession) Changes() (FeedbackEdit, bool) {
	edit := FeedbackEdit{Token: e.Token}
	changed := false

	if e.NewImage != nil {
		edit.Image = e.NewImage
		changed = true
	}

	current := int64(0)
	if e.Record != nil && e.Record.Label != nil {
		current = e.Record.Label.ID
	}
	if e.LabelID != 0 && e.LabelID != current {
		edit.LabelID = e.LabelID
		changed = true
	}

	return edit, changed
}

// ReplaceImage проверяет и запоминает заменяющее изображение.
func (e *EditorSession) ReplaceImage(a *ImageAsset) error {
	if a == nil {
		return nil
	}
	if err := ValidateImage(a); err != nil {
		e.Err = err.Error()
		return err
	}
	e.NewImage = a
	e.Err = ""
	e.Saved = false
	return nil
}

// DropImage отменяет замену изображения.
func (e *EditorSession) DropImage() {
	e.NewImage = nil
}

// SelectLabel выбирает новую метку записи.
func (e *EditorSession) SelectLabel(id int64) error {
	if _, ok := FindLabel(e.Labels, id); !ok {
		return ErrUnknownLabel
	}
	e.LabelID = id
	e.Saved = false
	return nil
}

// Applied заменяет запись представлением сервера после сохранения.
func (e *EditorSession) Applied(record *FeedbackRecord) {
	e.Record = record
	e.NewImage = nil
	if record != nil && record.Label != nil {
		e.LabelID = record.Label.ID
	}
	e.Saved = true
	e.Err = ""
}

// Removed отмечает запись удалённой.
func (e *EditorSession) Removed() {
	e.Record = nil
	e.NewImage = nil
	e.Deleted = true
	e.ConfirmingDelete = false
	e.Err = ""
}

func (e *EditorSession) snapshot() EditorSession {
	s := *e
	if e.Labels != nil {
		s.Labels = append([]Label(nil), e.Labels...)
	}
	if e.Record != nil {
		r := *e.Record
		s.Record = &r
	}
	return s
}
