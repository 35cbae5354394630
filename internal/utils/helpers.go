package utils

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/senyabanana/unlisted-market/internal/models"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

const (
	UserIDHeader   = "X-User-Id"
	UsernameHeader = "X-Username"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SendJSON отправляет ответ в формате JSON.
func SendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Println(err)
	}
}

// SendErrorResponse отправляет ошибку в формате JSON
func SendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	SendJSON(w, statusCode, models.NewErrorResponse(statusCode, message))
}

// SendError отправляет ошибку сервиса. Неизвестные ошибки скрываются за 500.
func SendError(w http.ResponseWriter, logger *log.Logger, err error) {
	var resp *models.ErrorResponse
	if errors.As(err, &resp) {
		SendJSON(w, resp.StatusCode, resp)
		return
	}
	if logger != nil {
		logger.Printf("unexpected error: %v", err)
	}
	SendErrorResponse(w, http.StatusInternalServerError, "internal server error")
}

// ParseLimitOffset обрабатывает limit и offset
func ParseLimitOffset(limitStr, offsetStr string) (int, int, error) {
	var limit, offset int
	var err error

	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > 50 {
			return 0, 0, fmt.Errorf("invalid limit parameter, must be a positive integer [0:50]")
		}
	} else {
		limit = 5
	}

	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset parameter, must be a non-negative integer")
		}
	} else {
		offset = 0
	}

	return limit, offset, nil
}

// CallerFromRequest читает личность пользователя из заголовков, выставленных шлюзом авторизации.
func CallerFromRequest(r *http.Request) (models.Caller, error) {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if id == "" {
		return models.Caller{}, models.NewErrorResponse(http.StatusUnauthorized, "missing "+UserIDHeader+" header")
	}
	username := strings.TrimSpace(r.Header.Get(UsernameHeader))
	if username == "" {
		username = id
	}
	return models.Caller{ID: id, Username: username}, nil
}

// DecodeJSON разбирает тело запроса и проверяет теги validate.
// Пустое тело допустимо, если allowEmpty.
func DecodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return models.ValidationError("invalid request body")
		}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return models.ValidationError(fmt.Sprintf("invalid field %s: failed on %s", fe.Field(), fe.Tag()))
		}
		return models.ValidationError(err.Error())
	}
	return nil
}
