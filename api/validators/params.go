package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
)

// ParsePathInt reads a positive integer URL parameter such as a movie id.
func ParsePathInt(r *http.Request, key string) (int, error) {
	value, err := parseInt(chi.URLParam(r, key))
	if err != nil || value < 1 {
		return 0, paramError("path parameter must be a positive integer", key)
	}
	return value, nil
}

// ParseQueryInt reads an optional integer query parameter bounded by [min, max].
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := r.URL.Query().Get(key)
	if strings.TrimSpace(raw) == "" {
		return defaultVal, nil
	}
	value, err := parseInt(raw)
	if err != nil {
		return 0, paramError("query parameter must be numeric", key)
	}
	if value < min || value > max {
		return 0, paramError("query parameter out of range", key).WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

func parseInt(raw string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(raw))
}

func paramError(msg, key string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": key})
}
