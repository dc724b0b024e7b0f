package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(value int64) bool

// Gte accepts values greater than or equal to limit.
func Gte(limit int64) ParamValidator {
	return func(value int64) bool { return value >= limit }
}

// Between accepts values in [lo, hi].
func Between(lo, hi int64) ParamValidator {
	return func(value int64) bool { return value >= lo && value <= hi }
}

// ParseID extracts a positive int64 id from the {id} path parameter.
// On failure it writes a 400 response and returns false.
func ParseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	pathValueID := r.PathValue("id")
	id, err := strconv.ParseInt(pathValueID, 10, 64)
	if err != nil || id <= 0 {
		RespondError(w, r, logger, http.StatusBadRequest, fmt.Sprintf("Invalid ID: %s", pathValueID))
		return 0, false
	}
	return id, true
}

// RequiredQueryInt32 parses the key query parameter as int32. Missing or malformed values get a 400.
func RequiredQueryInt32(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (int32, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		RespondError(w, r, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return 0, false
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		RespondError(w, r, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int32(intValue), true
}

// OptionalQueryInt parses the key query parameter, returning def when it is absent.
// Values rejected by the validator get a 400.
func OptionalQueryInt(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string, def int, validator ParamValidator) (int, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, true
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !validator(intValue) {
		RespondError(w, r, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int(intValue), true
}
