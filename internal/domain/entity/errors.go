package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNoImage        = errors.New("no image selected")
	ErrLabelRequired  = errors.New("select a label")
	ErrBusy           = errors.New("request already in flight")
	ErrNoPrediction   = errors.New("no prediction to review")
	ErrReviewResolved = errors.New("prediction already reviewed")
	ErrNotAwaiting    = errors.New("correction was not requested")
	ErrUnknownLabel   = errors.New("unknown label")
	ErrNothingChanged = errors.New("nothing changed")
	ErrNoEditor       = errors.New("no feedback record is open")
	ErrRecordDeleted  = errors.New("feedback record was deleted")
	ErrDeleteNotAsked = errors.New("delete was not requested")
	ErrEmptyLabelName = errors.New("label name is empty")
	ErrStaleResponse  = errors.New("response arrived for outdated state")
	ErrRequestFailed  = errors.New("request failed")
)

// APIError — неуспешный ответ внешнего API.
type APIError struct {
	Status  int    // HTTP-код ответа
	Message string // поле error из тела ответа, если было
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// FailureText возвращает сообщение сервера или общий текст ErrRequestFailed.
func FailureText(err error) string {
	if msg, ok := ServerMessage(err); ok {
		return msg
	}
	return ErrRequestFailed.Error()
}

// ServerMessage возвращает сообщение сервера из цепочки ошибок, если оно есть.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}
