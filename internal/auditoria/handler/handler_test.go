package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditafolha/internal/auditoria"
)

type stubService struct {
	runIntervalo      *auditoria.PeriodRange
	legacyCompetencia string
	err               error
}

func (s *stubService) Run(_ context.Context, _ uuid.UUID, intervalo *auditoria.PeriodRange) (*auditoria.Result, error) {
	s.runIntervalo = intervalo
	if s.err != nil {
		return nil, s.err
	}
	return &auditoria.Result{TotalDivergencias: 2}, nil
}

func (s *stubService) RunLegacy(_ context.Context, _ uuid.UUID, competencia string) (*auditoria.Result, error) {
	s.legacyCompetencia = competencia
	return &auditoria.Result{}, nil
}

func (s *stubService) Resumo(context.Context, uuid.UUID) (*auditoria.Resumo, error) {
	return &auditoria.Resumo{TotalDivergencias: 5}, nil
}

func (s *stubService) Divergencias(context.Context, uuid.UUID) ([]auditoria.Divergencia, error) {
	return nil, nil
}

func newTestRouter(svc Service) chi.Router {
	r := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func TestHandleRun(t *testing.T) {
	t.Run("executa com intervalo do corpo", func(t *testing.T) {
		svc := &stubService{}
		r := newTestRouter(svc)

		body := `{"competencia_inicio":"2024-01","competencia_fim":"2024-12"}`
		req := httptest.NewRequest(http.MethodPost, "/auditorias", strings.NewReader(body))
		req.Header.Set(EmpresaHeader, uuid.NewString())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.runIntervalo)
		assert.Equal(t, "2024-01", svc.runIntervalo.CompetenciaInicio)

		var result auditoria.Result
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, 2, result.TotalDivergencias)
	})

	t.Run("corpo ausente usa janela padrão", func(t *testing.T) {
		svc := &stubService{}
		r := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/auditorias", nil)
		req.Header.Set(EmpresaHeader, uuid.NewString())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, svc.runIntervalo)
	})

	t.Run("sem cabeçalho de empresa", func(t *testing.T) {
		r := newTestRouter(&stubService{})

		req := httptest.NewRequest(http.MethodPost, "/auditorias", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empresa inválida", func(t *testing.T) {
		r := newTestRouter(&stubService{})

		req := httptest.NewRequest(http.MethodPost, "/auditorias", nil)
		req.Header.Set(EmpresaHeader, "nao-e-uuid")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("falha do serviço não vaza detalhe", func(t *testing.T) {
		r := newTestRouter(&stubService{err: assert.AnError})

		req := httptest.NewRequest(http.MethodPost, "/auditorias", nil)
		req.Header.Set(EmpresaHeader, uuid.NewString())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "internal_error", body["error"])
		assert.NotContains(t, body, "error_description")
	})
}

func TestHandleVerificacaoBases(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/auditorias/verificacao-bases?competencia=2024-06", nil)
	req.Header.Set(EmpresaHeader, uuid.NewString())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-06", svc.legacyCompetencia)
}

func TestHandleResumo(t *testing.T) {
	r := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/auditorias/resumo", nil)
	req.Header.Set(EmpresaHeader, uuid.NewString())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resumo auditoria.Resumo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resumo))
	assert.Equal(t, 5, resumo.TotalDivergencias)
}

func TestHandleDivergenciasVazio(t *testing.T) {
	r := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/divergencias", nil)
	req.Header.Set(EmpresaHeader, uuid.NewString())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}
