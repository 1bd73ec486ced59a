package httperrors

import (
	"errors"
	"net/http"

	"github.com/sir_venger/chunkd/internal/models"
)

// Write переводит ошибку домена в HTTP-статус.
func Write(w http.ResponseWriter, err error) {
	http.Error(w, Message(err), Status(err))
}

// Status возвращает код ответа для ошибки.
func Status(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicatePart), errors.Is(err, models.ErrArtifactExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrMalformedChunkReq):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidID),
		errors.Is(err, models.ErrInvalidName),
		errors.Is(err, models.ErrInvalidTotal),
		errors.Is(err, models.ErrHashMismatch),
		errors.Is(err, models.ErrSizeMismatch),
		errors.Is(err, models.ErrTokenMissing),
		errors.Is(err, models.ErrContentLength),
		errors.Is(err, models.ErrBadContentLength):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message возвращает текст для клиента. Хеш сообщаем коротко — клиент
// по этой строке решает, что часть надо отправить ещё раз.
func Message(err error) string {
	if errors.Is(err, models.ErrHashMismatch) {
		return models.ErrHashMismatch.Error()
	}
	return err.Error()
}
