// Package handler exposes the audit engine over HTTP. Every route is scoped
// to the employer carried in the X-Empresa-ID header.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"auditafolha/internal/auditoria"
	"auditafolha/pkg/platform/httputil"
)

// EmpresaHeader identifies the employer a request operates on.
const EmpresaHeader = "X-Empresa-ID"

// Service defines the audit operations the handler depends on.
type Service interface {
	Run(ctx context.Context, empresaID uuid.UUID, intervalo *auditoria.PeriodRange) (*auditoria.Result, error)
	RunLegacy(ctx context.Context, empresaID uuid.UUID, competencia string) (*auditoria.Result, error)
	Resumo(ctx context.Context, empresaID uuid.UUID) (*auditoria.Resumo, error)
	Divergencias(ctx context.Context, empresaID uuid.UUID) ([]auditoria.Divergencia, error)
}

// Handler wires audit endpoints to the audit service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auditorias", h.HandleRun)
	r.Post("/auditorias/verificacao-bases", h.HandleVerificacaoBases)
	r.Get("/auditorias/resumo", h.HandleResumo)
	r.Get("/divergencias", h.HandleDivergencias)
}

// HandleRun handles POST /auditorias requests. The body is an optional
// period range; absent bounds fall back to the default audit window.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empresaID, ok := empresaID(w, r)
	if !ok {
		return
	}
	start := time.Now()

	intervalo, err := httputil.DecodeJSON[*auditoria.PeriodRange](r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "corpo da requisição inválido")
		return
	}

	result, err := h.service.Run(ctx, empresaID, intervalo)
	if err != nil {
		h.logger.ErrorContext(ctx, "auditoria falhou", "empresa_id", empresaID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	h.logger.InfoContext(ctx, "auditoria executada",
		"empresa_id", empresaID,
		"divergencias", result.TotalDivergencias,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleVerificacaoBases handles POST /auditorias/verificacao-bases requests,
// the per-remuneração base consistency check. The competencia query parameter
// narrows the run to one month.
func (h *Handler) HandleVerificacaoBases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empresaID, ok := empresaID(w, r)
	if !ok {
		return
	}

	result, err := h.service.RunLegacy(ctx, empresaID, r.URL.Query().Get("competencia"))
	if err != nil {
		h.logger.ErrorContext(ctx, "verificação de bases falhou", "empresa_id", empresaID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleResumo handles GET /auditorias/resumo requests.
func (h *Handler) HandleResumo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empresaID, ok := empresaID(w, r)
	if !ok {
		return
	}

	resumo, err := h.service.Resumo(ctx, empresaID)
	if err != nil {
		h.logger.ErrorContext(ctx, "resumo falhou", "empresa_id", empresaID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resumo)
}

// HandleDivergencias handles GET /divergencias requests.
func (h *Handler) HandleDivergencias(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empresaID, ok := empresaID(w, r)
	if !ok {
		return
	}

	divergencias, err := h.service.Divergencias(ctx, empresaID)
	if err != nil {
		h.logger.ErrorContext(ctx, "listagem de divergências falhou", "empresa_id", empresaID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if divergencias == nil {
		divergencias = []auditoria.Divergencia{}
	}
	httputil.WriteJSON(w, http.StatusOK, divergencias)
}

func empresaID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(EmpresaHeader)
	if raw == "" {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "cabeçalho X-Empresa-ID obrigatório")
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "X-Empresa-ID inválido")
		return uuid.UUID{}, false
	}
	return id, true
}
