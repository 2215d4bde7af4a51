package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditafolha/internal/folha"
	"auditafolha/internal/ingestao"
)

type stubService struct {
	arquivos []ingestao.Arquivo
	limit    int
}

func (s *stubService) Process(_ context.Context, _ uuid.UUID, arquivos []ingestao.Arquivo) (*ingestao.BatchResult, error) {
	s.arquivos = arquivos
	return &ingestao.BatchResult{TotalArquivos: len(arquivos)}, nil
}

func (s *stubService) Importacoes(_ context.Context, _ uuid.UUID, limit int) ([]folha.Importacao, error) {
	s.limit = limit
	return nil, nil
}

func newTestRouter(svc Service) chi.Router {
	r := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for nome, conteudo := range files {
		w, err := mw.CreateFormFile("arquivos", nome)
		require.NoError(t, err)
		_, err = w.Write([]byte(conteudo))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	t.Run("aceita xml e zip", func(t *testing.T) {
		svc := &stubService{}
		r := newTestRouter(svc)

		body, contentType := multipartUpload(t, map[string]string{
			"evento.xml": "<eSocial/>",
			"lote.zip":   "PK",
		})
		req := httptest.NewRequest(http.MethodPost, "/importacoes", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(EmpresaHeader, uuid.NewString())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, svc.arquivos, 2)

		var result ingestao.BatchResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, 2, result.TotalArquivos)
	})

	t.Run("rejeita extensão desconhecida", func(t *testing.T) {
		r := newTestRouter(&stubService{})

		body, contentType := multipartUpload(t, map[string]string{"notas.pdf": "%PDF"})
		req := httptest.NewRequest(http.MethodPost, "/importacoes", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(EmpresaHeader, uuid.NewString())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejeita lote vazio", func(t *testing.T) {
		r := newTestRouter(&stubService{})

		body, contentType := multipartUpload(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/importacoes", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(EmpresaHeader, uuid.NewString())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("exige cabeçalho de empresa", func(t *testing.T) {
		r := newTestRouter(&stubService{})

		body, contentType := multipartUpload(t, map[string]string{"evento.xml": "<eSocial/>"})
		req := httptest.NewRequest(http.MethodPost, "/importacoes", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleList(t *testing.T) {
	t.Run("limite padrão", func(t *testing.T) {
		svc := &stubService{}
		r := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/importacoes", nil)
		req.Header.Set(EmpresaHeader, uuid.NewString())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, DefaultHistoryLimit, svc.limit)
		assert.JSONEq(t, "[]", w.Body.String())
	})

	t.Run("limite explícito", func(t *testing.T) {
		svc := &stubService{}
		r := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/importacoes?limit=5", nil)
		req.Header.Set(EmpresaHeader, uuid.NewString())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 5, svc.limit)
	})

	t.Run("limite inválido", func(t *testing.T) {
		r := newTestRouter(&stubService{})

		req := httptest.NewRequest(http.MethodGet, "/importacoes?limit=zero", nil)
		req.Header.Set(EmpresaHeader, uuid.NewString())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
