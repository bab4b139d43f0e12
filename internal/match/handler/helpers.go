package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/muaazl/product-matcher/internal/embedding"
	"github.com/muaazl/product-matcher/internal/fileio"
	"github.com/muaazl/product-matcher/internal/match/loader"
	"github.com/muaazl/product-matcher/internal/match/service"
	"github.com/muaazl/product-matcher/internal/utils"
)

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

// toThreshold парсит порог из формы ("60", "60,5", "60%"); вне 0..100 берём дефолт.
func toThreshold(s string, def float64) float64 {
	f, ok := utils.ParseFloat(s)
	if !ok || f < 0 || f > 100 {
		return def
	}
	return f
}

func specFromForm(r *http.Request, prefix string, def loader.SheetSpec) loader.SheetSpec {
	return loader.SheetSpec{
		Sheet:     strings.TrimSpace(r.FormValue(prefix + "_sheet")),
		Column:    strings.TrimSpace(r.FormValue(prefix + "_name")),
		HeaderRow: atoi(r.FormValue(prefix+"_header_row"), 0),
	}.Merge(def)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps pipeline errors to HTTP codes (плохие входные данные 400, провайдер 502).
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, embedding.ErrProvider),
		errors.Is(err, service.ErrDimensionMismatch):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrEmptyDictionary),
		errors.Is(err, fileio.ErrColumnNotFound),
		errors.Is(err, fileio.ErrSheetNotFound),
		errors.Is(err, fileio.ErrUnsupported):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// inputStatus: ошибка разбора входа: 413 при превышении лимита тела, иначе 400.
func inputStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
