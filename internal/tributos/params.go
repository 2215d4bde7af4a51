package tributos

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"auditafolha/pkg/periodo"
	"auditafolha/pkg/platform/sentinel"
)

// Vigencia is a configured parameter snapshot effective from (Ano, Mes).
type Vigencia struct {
	Ano        int
	Mes        int
	Parametros Parametros
}

// Store loads configured vigências and their bracket rows.
type Store interface {
	// LatestVigencia returns the newest snapshot whose year is not after
	// ano, or sentinel.ErrNotFound.
	LatestVigencia(ctx context.Context, ano int) (*Vigencia, error)
	ListFaixasINSS(ctx context.Context, ano, mes int) ([]FaixaINSS, error)
	ListFaixasIRRF(ctx context.Context, ano, mes int) ([]FaixaIRRF, error)
}

// Resolver memoizes the parameter set in effect. It never fails: any storage
// problem is logged and the compiled-in defaults are returned, so a
// misconfigured parameter table cannot block an audit.
type Resolver struct {
	store Store
	log   *slog.Logger

	mu    sync.Mutex
	cache *Conjunto
}

func NewResolver(store Store, log *slog.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// Vigentes resolves the parameter set for the given competência ("YYYY-MM");
// empty targets the current date. The first successful resolution is cached
// for the resolver's lifetime.
func (r *Resolver) Vigentes(ctx context.Context, competencia string) *Conjunto {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache != nil {
		return r.cache
	}

	ano, _ := alvo(competencia)

	vigencia, err := r.store.LatestVigencia(ctx, ano)
	if errors.Is(err, sentinel.ErrNotFound) {
		return ConjuntoDefault()
	}
	if err != nil {
		r.log.Error("falha ao carregar parâmetros tributários, usando padrões", "error", err)
		return ConjuntoDefault()
	}

	faixasINSS, err := r.store.ListFaixasINSS(ctx, vigencia.Ano, vigencia.Mes)
	if err != nil {
		r.log.Error("falha ao carregar faixas de INSS, usando padrões", "error", err)
		return ConjuntoDefault()
	}
	faixasIRRF, err := r.store.ListFaixasIRRF(ctx, vigencia.Ano, vigencia.Mes)
	if err != nil {
		r.log.Error("falha ao carregar faixas de IRRF, usando padrões", "error", err)
		return ConjuntoDefault()
	}

	if len(faixasINSS) == 0 {
		faixasINSS = FaixasINSS2024()
	}
	if len(faixasIRRF) == 0 {
		faixasIRRF = FaixasIRRF2024()
	}

	r.cache = &Conjunto{
		Parametros: vigencia.Parametros,
		FaixasINSS: faixasINSS,
		FaixasIRRF: faixasIRRF,
	}
	return r.cache
}

// Invalidate drops the memoized set; the next Vigentes call resolves again.
// Admin surfaces call it after editing the parameter tables.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = nil
}

func alvo(competencia string) (ano, mes int) {
	if periodo.Valid(competencia) {
		return periodo.Split(competencia)
	}
	now := time.Now()
	return now.Year(), int(now.Month())
}
