package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/muaazl/product-matcher/internal/embedding"
	"github.com/muaazl/product-matcher/internal/fileio"
	"github.com/muaazl/product-matcher/internal/match/loader"
	"github.com/muaazl/product-matcher/internal/match/model"
	"github.com/muaazl/product-matcher/internal/match/service"
	"github.com/muaazl/product-matcher/internal/middleware"
)

const (
	maxMemory = 32 << 20

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Deps: всё, что нужно хендлерам; настройки копируются на каждый запрос.
type Deps struct {
	Settings     model.Settings
	Embedder     embedding.Embedder
	ExtraColumns []string
	Logger       zerolog.Logger
}

type matchResponse struct {
	model.Report
	Threshold      float64 `json:"threshold"`
	DictionarySize int     `json:"dictionarySize"`
	Brands         int     `json:"brands"`
}

// Match handles POST /match with multipart parts "dictionary", "queries" and optional "brands".
// Опции формы: dict_sheet, dict_name, dict_header_row (и то же для query_/brand_), threshold, format=json|xlsx|csv.
func Match(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := middleware.RequestLogger(r, d.Logger)

		if err := r.ParseMultipartForm(maxMemory); err != nil {
			writeError(w, inputStatus(err), "bad multipart form: "+err.Error())
			return
		}
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}
		format := r.FormValue("format")
		if !knownFormat(format) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
			return
		}

		dictSrc, err := formSource(r, "dictionary")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		querySrc, err := formSource(r, "queries")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var brandSrc *loader.Source
		if src, err := formSource(r, "brands"); err == nil {
			brandSrc = &src
		}

		rows, err := dictSrc.DictionaryRows(specFromForm(r, "dict", loader.DefaultDictionary))
		if err != nil {
			writeError(w, inputStatus(err), err.Error())
			return
		}
		names, err := querySrc.Queries(specFromForm(r, "query", loader.DefaultQueries))
		if err != nil {
			writeError(w, inputStatus(err), err.Error())
			return
		}
		brands := loader.BrandsOrEmpty(brandSrc, dictSrc, specFromForm(r, "brand", loader.DefaultBrands), log)

		settings := d.Settings
		settings.Threshold = toThreshold(r.FormValue("threshold"), settings.Threshold)

		resp, err := run(r, d, settings, rows, brands, names, log)
		if err != nil {
			log.Error().Err(err).Msg("match failed")
			writeError(w, statusFor(err), err.Error())
			return
		}

		if err := respond(w, format, resp, d.ExtraColumns); err != nil {
			log.Error().Err(err).Msg("write response")
			return
		}
		log.Info().
			Int("dictionary", resp.DictionarySize).
			Int("queries", resp.Total).
			Int("accepted", resp.Accepted).
			Int("rejected", resp.Rejected).
			Int("skipped", resp.Skipped).
			Dur("elapsed", time.Since(start)).
			Msg("match done")
	}
}

type matchJSONRequest struct {
	Dictionary []string `json:"dictionary"`
	Brands     []string `json:"brands"`
	Queries    []string `json:"queries"`
	Threshold  *float64 `json:"threshold,omitempty"`
}

// MatchJSON handles POST /match/json: {"dictionary":[...],"brands":[...],"queries":[...],"threshold":60}.
func MatchJSON(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := middleware.RequestLogger(r, d.Logger)

		var req matchJSONRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, inputStatus(err), "bad json: "+err.Error())
			return
		}
		if len(req.Dictionary) == 0 {
			writeError(w, http.StatusBadRequest, "dictionary is required")
			return
		}

		settings := d.Settings
		if req.Threshold != nil {
			if *req.Threshold < 0 || *req.Threshold > 100 {
				writeError(w, http.StatusBadRequest, "threshold must be within 0..100")
				return
			}
			settings.Threshold = *req.Threshold
		}

		rows := make([]service.DictionaryRow, len(req.Dictionary))
		for i, n := range req.Dictionary {
			rows[i] = service.DictionaryRow{Name: n}
		}
		resp, err := run(r, d, settings, rows, req.Brands, req.Queries, log)
		if err != nil {
			log.Error().Err(err).Msg("match failed")
			writeError(w, statusFor(err), err.Error())
			return
		}
		_ = writeJSON(w, http.StatusOK, resp)
	}
}

func run(r *http.Request, d Deps, s model.Settings, rows []service.DictionaryRow, brands, names []string, log zerolog.Logger) (matchResponse, error) {
	m, err := service.NewMatcher(r.Context(), s, d.Embedder, rows, brands, log)
	if err != nil {
		return matchResponse{}, err
	}
	rep, err := m.MatchAll(r.Context(), names)
	if err != nil {
		return matchResponse{}, err
	}
	return matchResponse{
		Report:         rep,
		Threshold:      s.Threshold,
		DictionarySize: m.Dictionary().Len(),
		Brands:         m.Dictionary().Brands().Len(),
	}, nil
}

func knownFormat(format string) bool {
	switch format {
	case "", "json", "xlsx", "csv":
		return true
	}
	return false
}

func respond(w http.ResponseWriter, format string, resp matchResponse, extra []string) error {
	switch format {
	case "", "json":
		return writeJSON(w, http.StatusOK, resp)
	case "xlsx":
		w.Header().Set("Content-Type", contentTypeXLSX)
		w.Header().Set("Content-Disposition", `attachment; filename="match_results.xlsx"`)
		return fileio.WriteResultsXLSX(w, fileio.DefaultResultSheet, resp.Results, extra)
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="match_results.csv"`)
		return fileio.WriteResultsCSV(w, resp.Results, extra)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return nil
	}
}

func formSource(r *http.Request, field string) (loader.Source, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return loader.Source{}, fmt.Errorf("missing %s file", field)
		}
		return loader.Source{}, fmt.Errorf("%s: %w", field, err)
	}
	defer func(f multipart.File) { _ = f.Close() }(f)
	return loader.ReadSourceFrom(f, hdr.Filename)
}
