// Package handler exposes the import pipeline over HTTP: multipart file
// upload and the import history.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"auditafolha/internal/esocial"
	"auditafolha/internal/folha"
	"auditafolha/internal/ingestao"
	"auditafolha/pkg/platform/httputil"
)

// EmpresaHeader identifies the employer a request operates on.
const EmpresaHeader = "X-Empresa-ID"

// MaxUploadBytes bounds a whole multipart upload. ZIPs have their own size
// limit inside the extractor; this guards the transport.
const MaxUploadBytes = 600 << 20

// DefaultHistoryLimit bounds GET /importacoes when no limit is given.
const DefaultHistoryLimit = 50

// Service defines the import operations the handler depends on.
type Service interface {
	Process(ctx context.Context, empresaID uuid.UUID, arquivos []ingestao.Arquivo) (*ingestao.BatchResult, error)
	Importacoes(ctx context.Context, empresaID uuid.UUID, limit int) ([]folha.Importacao, error)
}

// Handler wires import endpoints to the import service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts import endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/importacoes", h.HandleUpload)
	r.Get("/importacoes", h.HandleList)
}

// HandleUpload handles POST /importacoes multipart requests. Every part
// named "arquivos" is an XML or ZIP file.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empresaID, ok := empresaID(w, r)
	if !ok {
		return
	}
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "requisição multipart inválida")
		return
	}

	var arquivos []ingestao.Arquivo
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "bad_request", "falha ao ler arquivo enviado")
			return
		}
		if part.FormName() != "arquivos" || part.FileName() == "" {
			continue
		}
		nome := part.FileName()
		if !esocial.IsXMLFile(nome) && !esocial.IsZipFile(nome) {
			httputil.WriteError(w, http.StatusBadRequest, "bad_request",
				"apenas arquivos .xml e .zip são aceitos: "+nome)
			return
		}
		conteudo, err := io.ReadAll(part)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "bad_request", "falha ao ler arquivo enviado")
			return
		}
		arquivos = append(arquivos, ingestao.Arquivo{Nome: nome, Conteudo: conteudo})
	}

	if len(arquivos) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", "nenhum arquivo enviado")
		return
	}

	result, err := h.service.Process(ctx, empresaID, arquivos)
	if err != nil {
		h.logger.ErrorContext(ctx, "processamento de lote falhou", "empresa_id", empresaID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	h.logger.InfoContext(ctx, "lote importado",
		"empresa_id", empresaID,
		"arquivos", result.TotalArquivos,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleList handles GET /importacoes requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	empresaID, ok := empresaID(w, r)
	if !ok {
		return
	}

	limit := DefaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, http.StatusBadRequest, "bad_request", "limit inválido")
			return
		}
		limit = parsed
	}

	importacoes, err := h.service.Importacoes(ctx, empresaID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "listagem de importações falhou", "empresa_id", empresaID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if importacoes == nil {
		importacoes = []folha.Importacao{}
	}
	httputil.WriteJSON(w, http.StatusOK, importacoes)
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
