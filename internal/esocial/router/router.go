// Package router decides where an eSocial file's data is written. Unlike the
// free-text classifier it is schema-aware: the event tag found under the
// eSocial envelope is looked up in a data-driven mapping, so new event types
// are onboarded by inserting a config row, not by shipping code.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"auditafolha/internal/esocial"
)

// Config is one routing rule: an event tag mapped to its eSocial code and
// destination table.
type Config struct {
	TagXML          string `json:"tag_xml"`
	CodigoEvento    string `json:"codigo_evento"`
	TabelaDestino   string `json:"tabela_destino"`
	OrdemPrioridade int    `json:"ordem_prioridade"`
	Ativo           bool   `json:"ativo"`
}

// ConfigStore loads active routing rules, highest priority first.
type ConfigStore interface {
	ListActive(ctx context.Context) ([]Config, error)
}

// Cache holds the compiled tag→rule mapping between route calls. Invalidate
// forces a reload on the next call; admin surfaces call it after config
// changes.
type Cache interface {
	Get(ctx context.Context) (map[string]Config, bool, error)
	Set(ctx context.Context, configs map[string]Config) error
	Invalidate(ctx context.Context) error
}

// RouteResult reports a routing attempt. Failures carry stage-specific error
// text rather than a Go error: a file that cannot be routed is an expected
// outcome the ingestion pipeline classifies further.
type RouteResult struct {
	Sucesso       bool   `json:"sucesso"`
	TagEncontrada string `json:"tag_encontrada,omitempty"`
	EventoESocial string `json:"evento_esocial,omitempty"`
	DestinoSQL    string `json:"destino_sql,omitempty"`
	Erro          string `json:"erro,omitempty"`
}

type Router struct {
	store ConfigStore
	cache Cache
	log   *slog.Logger
}

func New(store ConfigStore, cache Cache, log *slog.Logger) *Router {
	return &Router{store: store, cache: cache, log: log}
}

// Route inspects the document structure and resolves its destination. All
// failure modes come back inside the RouteResult.
func (r *Router) Route(ctx context.Context, conteudoXML string) RouteResult {
	root, err := esocial.Parse(conteudoXML)
	if err != nil {
		return RouteResult{Erro: "XML inválido: Erro de parsing"}
	}

	if !strings.Contains(root.Name(), "eSocial") {
		return RouteResult{Erro: "XML inválido: Tag raiz não é eSocial"}
	}

	var tagEvento string
	for _, child := range root.Children() {
		if child.Name() == "Signature" {
			continue
		}
		tagEvento = child.Name()
		break
	}
	if tagEvento == "" {
		return RouteResult{Erro: "Nenhuma tag de evento encontrada no XML"}
	}

	configs := r.loadConfig(ctx)
	destino, ok := configs[tagEvento]
	if !ok {
		return RouteResult{
			TagEncontrada: tagEvento,
			Erro:          fmt.Sprintf("Evento desconhecido ou não mapeado: %s", tagEvento),
		}
	}

	return RouteResult{
		Sucesso:       true,
		TagEncontrada: tagEvento,
		EventoESocial: destino.CodigoEvento,
		DestinoSQL:    destino.TabelaDestino,
	}
}

// Invalidate drops the cached mapping so the next Route reloads from the
// store.
func (r *Router) Invalidate(ctx context.Context) {
	if err := r.cache.Invalidate(ctx); err != nil {
		r.log.Warn("falha ao invalidar cache do roteador", "error", err)
	}
}

// loadConfig returns the cached mapping, rebuilding it from the store on a
// miss. A store failure yields an empty mapping so routing degrades to
// "não mapeado" instead of aborting the batch.
func (r *Router) loadConfig(ctx context.Context) map[string]Config {
	cached, ok, err := r.cache.Get(ctx)
	if err != nil {
		r.log.Warn("falha ao ler cache do roteador", "error", err)
	}
	if ok {
		return cached
	}

	rules, err := r.store.ListActive(ctx)
	if err != nil {
		r.log.Error("falha ao carregar configuração do roteador", "error", err)
		return map[string]Config{}
	}

	configs := make(map[string]Config, len(rules))
	for _, rule := range rules {
		configs[rule.TagXML] = rule
	}
	if err := r.cache.Set(ctx, configs); err != nil {
		r.log.Warn("falha ao gravar cache do roteador", "error", err)
	}
	return configs
}
