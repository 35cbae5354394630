package handlers

import (
	"net/http"
	"strings"

	"github.com/senyabanana/unlisted-market/internal/utils"

	"github.com/google/uuid"
)

// RequirePathIDs отвечает 404, если какой-то из параметров пути params не является UUID.
func RequirePathIDs(next http.HandlerFunc, params ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, p := range params {
			if err := uuid.Validate(r.PathValue(p)); err != nil {
				utils.SendErrorResponse(w, http.StatusNotFound, strings.TrimSuffix(p, "Id")+" not found")
				return
			}
		}
		next(w, r)
	}
}
