package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muaazl/product-matcher/internal/embedding"
	"github.com/muaazl/product-matcher/internal/fileio"
	"github.com/muaazl/product-matcher/internal/match/model"
)

const (
	dictCSV  = "Product Name,Category\nCoca-Cola Classic 1L,Drinks\nIndia Gate Basmati Rice 5kg,Grocery\n"
	queryCSV = "Name\nCoca Cola Classic 500ml\nMotor Oil 5W30\n"
)

func testDeps(emb embedding.Embedder) Deps {
	return Deps{
		Settings:     model.DefaultSettings(),
		Embedder:     emb,
		ExtraColumns: []string{"Category"},
		Logger:       zerolog.Nop(),
	}
}

func multipartRequest(t *testing.T, files map[string]string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/match", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("upstream 503: %w", embedding.ErrProvider)
}

func TestMatch_JSON(t *testing.T) {
	req := multipartRequest(t, map[string]string{
		"dictionary": dictCSV,
		"queries":    queryCSV,
		"brands":     "Brand\nCoca-Cola\nIndia Gate\n",
	}, nil)
	rec := httptest.NewRecorder()
	Match(testDeps(embedding.NewHashing(0)))(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp matchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, 1, resp.Rejected)
	assert.Equal(t, 2, resp.DictionarySize)
	assert.Equal(t, 2, resp.Brands)
	assert.Equal(t, 75.0, resp.Threshold)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Coca-Cola Classic 1L", resp.Results[0].Matched)
	assert.Equal(t, "Drinks", resp.Results[0].Attributes["Category"])
	assert.Equal(t, model.LevelRejected, resp.Results[1].Level)
}

func TestMatch_ThresholdOverride(t *testing.T) {
	req := multipartRequest(t, map[string]string{"dictionary": dictCSV, "queries": queryCSV},
		map[string]string{"threshold": "0"})
	rec := httptest.NewRecorder()
	Match(testDeps(embedding.NewHashing(0)))(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp matchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.0, resp.Threshold)
	assert.Equal(t, 2, resp.Accepted)
}

func TestMatch_CustomColumns(t *testing.T) {
	req := multipartRequest(t, map[string]string{
		"dictionary": "Title\nApple Juice\n",
		"queries":    "Export\nItem\napple juice 1l\n",
	}, map[string]string{
		"dict_name":        "Title",
		"query_name":       "Item",
		"query_header_row": "2",
	})
	rec := httptest.NewRecorder()
	Match(testDeps(embedding.NewHashing(0)))(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp matchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Apple Juice", resp.Results[0].Matched)
}

func TestMatch_CSVAndXLSXOutput(t *testing.T) {
	rec := httptest.NewRecorder()
	Match(testDeps(embedding.NewHashing(0)))(rec, multipartRequest(t,
		map[string]string{"dictionary": dictCSV, "queries": queryCSV},
		map[string]string{"format": "csv"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "SKU_to_Tag,Matched_Dictionary_SKU"))
	assert.True(t, strings.HasSuffix(lines[0], ",Category"))

	rec = httptest.NewRecorder()
	Match(testDeps(embedding.NewHashing(0)))(rec, multipartRequest(t,
		map[string]string{"dictionary": dictCSV, "queries": queryCSV},
		map[string]string{"format": "xlsx"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))

	recs, err := fileio.ReadMaps(rec.Body, "out.xlsx", fileio.ReadOptions{Sheet: fileio.DefaultResultSheet})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Drinks", recs[0]["Category"])
}

func TestMatch_BadRequests(t *testing.T) {
	deps := testDeps(embedding.NewHashing(0))

	tests := []struct {
		name   string
		files  map[string]string
		fields map[string]string
		status int
	}{
		{"missing queries", map[string]string{"dictionary": dictCSV}, nil, http.StatusBadRequest},
		{"missing dictionary", map[string]string{"queries": queryCSV}, nil, http.StatusBadRequest},
		{"no name column", map[string]string{"dictionary": "Category\nDrinks\n", "queries": queryCSV}, nil, http.StatusBadRequest},
		{"dictionary empty after normalization", map[string]string{"dictionary": "Name\n500g\n(the)\n", "queries": queryCSV}, nil, http.StatusBadRequest},
		{"unknown format", map[string]string{"dictionary": dictCSV, "queries": queryCSV}, map[string]string{"format": "pdf"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Match(deps)(rec, multipartRequest(t, tt.files, tt.fields))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Match(deps)(rec, httptest.NewRequest(http.MethodPost, "/match", strings.NewReader("{}")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMatch_ProviderFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	Match(testDeps(failingEmbedder{}))(rec, multipartRequest(t,
		map[string]string{"dictionary": dictCSV, "queries": queryCSV}, nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMatch_UnknownFormatRejectedBeforeEmbedding(t *testing.T) {
	rec := httptest.NewRecorder()
	// провайдер недоступен: 400 вместо 502 значит, что до эмбеддинга дело не дошло
	Match(testDeps(failingEmbedder{}))(rec, multipartRequest(t,
		map[string]string{"dictionary": dictCSV, "queries": queryCSV},
		map[string]string{"format": "pdf"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `unknown format \"pdf\"`)
}

func TestMatchJSON(t *testing.T) {
	deps := testDeps(embedding.NewHashing(0))

	t.Run("ok", func(t *testing.T) {
		body := `{"dictionary":["Coca-Cola Classic 1L","Loose Basmati Rice"],"brands":["Coca-Cola"],"queries":["coca cola classic","","motor oil"],"threshold":60}`
		rec := httptest.NewRecorder()
		MatchJSON(deps)(rec, httptest.NewRequest(http.MethodPost, "/match/json", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp matchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 60.0, resp.Threshold)
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 1, resp.Skipped)
		assert.Equal(t, 1, resp.Brands)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "Coca-Cola Classic 1L", resp.Results[0].Matched)
	})

	bad := []struct {
		name string
		body string
	}{
		{"malformed", `{"dictionary":`},
		{"unknown field", `{"dictionary":["a"],"queries":[],"extra":1}`},
		{"no dictionary", `{"queries":["a"]}`},
		{"threshold out of range", `{"dictionary":["Apple"],"queries":["a"],"threshold":101}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			MatchJSON(deps)(rec, httptest.NewRequest(http.MethodPost, "/match/json", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestToThreshold(t *testing.T) {
	assert.Equal(t, 60.0, toThreshold("60", 75))
	assert.Equal(t, 60.5, toThreshold("60,5", 75))
	assert.Equal(t, 75.0, toThreshold("", 75))
	assert.Equal(t, 75.0, toThreshold("150", 75))
	assert.Equal(t, 75.0, toThreshold("abc", 75))
}
