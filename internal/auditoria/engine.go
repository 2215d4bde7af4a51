package auditoria

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"auditafolha/internal/auditoria/metrics"
	"auditafolha/internal/folha"
	"auditafolha/internal/tributos"
	"auditafolha/pkg/periodo"
)

// DefaultWindowMonths is the lookback of an audit when the caller gives no
// period range; it matches the five-year collection statute.
const DefaultWindowMonths = 60

// Service runs divergence audits. Concurrent runs for the same employer are
// serialized: the delete-then-insert replacement of findings must not
// interleave.
type Service struct {
	store    Store
	folha    folha.Store
	resolver *tributos.Resolver
	log      *slog.Logger
	metrics  *metrics.Metrics

	mu         sync.Mutex
	emExecucao map[uuid.UUID]*sync.Mutex
}

func NewService(store Store, folhaStore folha.Store, resolver *tributos.Resolver, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:      store,
		folha:      folhaStore,
		resolver:   resolver,
		log:        log,
		metrics:    m,
		emExecucao: make(map[uuid.UUID]*sync.Mutex),
	}
}

// preparacao is everything an audit needs loaded up front.
type preparacao struct {
	baseConhecimento map[string]BaseConhecimento
	vinculos         map[uuid.UUID][]RubricaProcessoVinculo
	parametros       tributos.Parametros
}

// Run audits the employer's rubric table against the knowledge base over the
// given period range (default: last 60 months through the current month),
// replaces the stored findings for that range and returns the totals.
func (s *Service) Run(ctx context.Context, empresaID uuid.UUID, intervalo *PeriodRange) (*Result, error) {
	lock := s.empresaLock(empresaID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	defer func() { s.metrics.ObserveRunLatency(time.Since(start)) }()

	inicio, fim := s.resolveIntervalo(intervalo)

	prep, err := s.preparar(ctx, empresaID, fim)
	if err != nil {
		return nil, fmt.Errorf("preparar auditoria: %w", err)
	}

	rubricas, err := s.folha.ListRubricas(ctx, empresaID)
	if err != nil {
		return nil, fmt.Errorf("carregar rubricas: %w", err)
	}

	result := &Result{RubricasAnalisadas: len(rubricas)}
	comDivergencia := make(map[uuid.UUID]struct{})

	for _, rubrica := range rubricas {
		padrao, ok := prep.baseConhecimento[rubrica.Tipo]
		if rubrica.Tipo == "" || !ok {
			result.RubricasNaoMapeadas++
			continue
		}

		vinculos := prep.vinculos[rubrica.ID]

		analises := []struct {
			tipo      string
			tributo   string
			cliente   bool
			legal     bool
			suspenso  bool
			descricao func(analise Analise) string
		}{
			{
				tipo:     "INSS",
				tributo:  TributoINSSPatronal,
				cliente:  IncidenciaAtiva(rubrica.IncidINSS),
				legal:    IncidenciaAtiva(padrao.IncidINSSPadrao),
				suspenso: suspende(vinculos, "INSS"),
				descricao: func(analise Analise) string {
					if analise.Tipo == ImpactoRisco {
						return fmt.Sprintf("Rubrica %s não tributa INSS mas deveria. Base legal: %s",
							rubrica.Codigo, fundamento(padrao, "Art. 28, Lei 8.212/91"))
					}
					return fmt.Sprintf("Rubrica %s tributa INSS indevidamente. Possível crédito. Base legal: %s",
						rubrica.Codigo, fundamento(padrao, "Art. 28, §9, Lei 8.212/91"))
				},
			},
			{
				tipo:     "FGTS",
				tributo:  TributoFGTS,
				cliente:  IncidenciaAtiva(rubrica.IncidFGTS),
				legal:    IncidenciaAtiva(padrao.IncidFGTSPadrao),
				suspenso: suspende(vinculos, "FGTS"),
				descricao: func(analise Analise) string {
					if analise.Tipo == ImpactoRisco {
						return fmt.Sprintf("Rubrica %s não tributa FGTS mas deveria. Base legal: %s",
							rubrica.Codigo, fundamento(padrao, "Art. 15, Lei 8.036/90"))
					}
					return fmt.Sprintf("Rubrica %s tributa FGTS indevidamente. Possível crédito. Base legal: %s",
						rubrica.Codigo, fundamento(padrao, "Art. 28, §9, Lei 8.212/91"))
				},
			},
			{
				tipo:     "IRRF",
				tributo:  TributoIRRF,
				cliente:  IncidenciaAtiva(rubrica.IncidIRRF),
				legal:    IncidenciaAtiva(padrao.IncidIRRFPadrao),
				suspenso: suspende(vinculos, "IRRF"),
				descricao: func(analise Analise) string {
					if analise.Tipo == ImpactoRisco {
						return fmt.Sprintf("Rubrica %s não tributa IRRF mas deveria. Base legal: %s",
							rubrica.Codigo, fundamento(padrao, "Art. 7, Lei 7.713/88"))
					}
					return fmt.Sprintf("Rubrica %s tributa IRRF indevidamente. Possível restituição. Base legal: %s",
						rubrica.Codigo, fundamento(padrao, "Art. 6, Lei 7.713/88"))
				},
			},
		}

		for _, a := range analises {
			analise := DeterminarTipoImpacto(a.cliente, a.legal, a.suspenso)
			if analise.Justificado {
				continue
			}

			impacto, err := s.impactoFinanceiro(ctx, empresaID, rubrica.Codigo, a.tributo, inicio, fim, prep.parametros)
			if err != nil {
				s.log.Error("falha ao calcular impacto, rubrica ignorada",
					"rubrica", rubrica.Codigo, "tributo", a.tributo, "error", err)
				continue
			}
			if impacto <= 0 {
				continue
			}

			comDivergencia[rubrica.ID] = struct{}{}

			valorOriginal := 0.0
			if a.cliente {
				valorOriginal = impacto
			}
			valorRecalculado := 0.0
			if a.legal {
				valorRecalculado = impacto
			}

			divergencia := Divergencia{
				EmpresaID:         empresaID,
				Tipo:              a.tipo,
				TipoImpacto:       analise.Tipo,
				TributoAfetado:    a.tributo,
				NaturezaRubrica:   rubrica.Tipo,
				Descricao:         a.descricao(analise),
				ValorOriginal:     valorOriginal,
				ValorRecalculado:  valorRecalculado,
				Diferenca:         impacto,
				Severidade:        Severidade(impacto),
				FundamentoLegal:   padrao.FundamentacaoLegal,
				StatusAnalise:     StatusPendente,
				CompetenciaInicio: inicio,
				CompetenciaFim:    fim,
			}
			result.Divergencias = append(result.Divergencias, divergencia)
			s.metrics.IncrementDivergencia(analise.Tipo, a.tributo)

			if analise.Tipo == ImpactoRisco {
				result.TotalRisco += impacto
			} else {
				result.TotalOportunidade += impacto
			}
		}
	}

	result.RubricasComDivergencia = len(comDivergencia)

	if err := s.store.DeleteDivergencias(ctx, empresaID, inicio, fim); err != nil {
		return nil, fmt.Errorf("limpar divergências anteriores: %w", err)
	}
	for i := range result.Divergencias {
		result.Divergencias[i].ID = uuid.New()
		if err := s.store.InsertDivergencia(ctx, &result.Divergencias[i]); err != nil {
			return nil, fmt.Errorf("gravar divergência: %w", err)
		}
	}

	result.TotalDivergencias = len(result.Divergencias)
	result.ImpactoFinanceiro = result.TotalRisco + result.TotalOportunidade

	s.log.Info("auditoria concluída",
		"empresa_id", empresaID,
		"competencia_inicio", inicio,
		"competencia_fim", fim,
		"divergencias", result.TotalDivergencias,
		"risco", result.TotalRisco,
		"oportunidade", result.TotalOportunidade)

	return result, nil
}

// Resumo aggregates the employer's stored findings by affected tax.
func (s *Service) Resumo(ctx context.Context, empresaID uuid.UUID) (*Resumo, error) {
	divergencias, err := s.store.ListDivergencias(ctx, empresaID)
	if err != nil {
		return nil, fmt.Errorf("listar divergências: %w", err)
	}

	resumo := &Resumo{
		TotalDivergencias: len(divergencias),
		PorTributo:        make(map[string]TributoResumo),
	}
	for _, d := range divergencias {
		tributo := d.TributoAfetado
		if tributo == "" {
			tributo = "OUTROS"
		}
		impacto := math.Abs(d.Diferenca)

		entry := resumo.PorTributo[tributo]
		entry.Count++
		switch d.TipoImpacto {
		case ImpactoRisco:
			resumo.TotalRisco += impacto
			entry.Risco += impacto
		case ImpactoOportunidade:
			resumo.TotalOportunidade += impacto
			entry.Oportunidade += impacto
		}
		resumo.PorTributo[tributo] = entry
	}
	return resumo, nil
}

// Divergencias lists the employer's stored findings.
func (s *Service) Divergencias(ctx context.Context, empresaID uuid.UUID) ([]Divergencia, error) {
	return s.store.ListDivergencias(ctx, empresaID)
}

// preparar gathers the audit's inputs concurrently; a failure in any load
// aborts the run, except parameter resolution which degrades internally.
func (s *Service) preparar(ctx context.Context, empresaID uuid.UUID, competenciaFim string) (*preparacao, error) {
	g, ctx := errgroup.WithContext(ctx)

	prep := &preparacao{}
	var processos []ProcessoJudicial
	var vinculos []RubricaProcessoVinculo

	g.Go(func() error {
		start := time.Now()
		base, err := s.store.LoadBaseConhecimento(ctx)
		s.metrics.ObserveLoadLatency("base_conhecimento", time.Since(start))
		if err != nil {
			return fmt.Errorf("carregar base de conhecimento: %w", err)
		}
		prep.baseConhecimento = base
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		var err error
		processos, err = s.store.ListProcessos(ctx, empresaID)
		s.metrics.ObserveLoadLatency("processos", time.Since(start))
		if err != nil {
			return fmt.Errorf("carregar processos judiciais: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		var err error
		vinculos, err = s.store.ListVinculos(ctx, empresaID)
		s.metrics.ObserveLoadLatency("vinculos", time.Since(start))
		if err != nil {
			return fmt.Errorf("carregar vínculos de processo: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		conjunto := s.resolver.Vigentes(ctx, competenciaFim)
		s.metrics.ObserveLoadLatency("parametros", time.Since(start))
		prep.parametros = conjunto.Parametros
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// only suspensions backed by a process on file count
	existentes := make(map[uuid.UUID]struct{}, len(processos))
	for _, p := range processos {
		existentes[p.ID] = struct{}{}
	}
	prep.vinculos = make(map[uuid.UUID][]RubricaProcessoVinculo)
	for _, v := range vinculos {
		if _, ok := existentes[v.ProcessoID]; !ok {
			continue
		}
		prep.vinculos[v.RubricaID] = append(prep.vinculos[v.RubricaID], v)
	}

	return prep, nil
}

// impactoFinanceiro prices a mismatch: the provento base paid through the
// rubric over the range times the tax's flat rate, rounded to cents. IRRF
// uses the top marginal rate as a conservative estimate.
func (s *Service) impactoFinanceiro(ctx context.Context, empresaID uuid.UUID, codigoRubrica, tributo, inicio, fim string, parametros tributos.Parametros) (float64, error) {
	base, err := s.folha.SumProventosPorRubrica(ctx, empresaID, codigoRubrica, inicio, fim)
	if err != nil {
		return 0, err
	}

	var aliquota float64
	switch tributo {
	case TributoINSSPatronal:
		aliquota = parametros.AliquotaINSSPatronal / 100
	case TributoINSSSegurado:
		aliquota = 0.14
	case TributoINSSRAT:
		aliquota = parametros.AliquotaRAT / 100
	case TributoFGTS:
		aliquota = parametros.AliquotaFGTS / 100
	case TributoIRRF:
		aliquota = 0.275
	case TributoMultiplo:
		aliquota = (parametros.AliquotaINSSPatronal + parametros.AliquotaFGTS) / 100
	}

	return math.Round(base*aliquota*100) / 100, nil
}

func (s *Service) resolveIntervalo(intervalo *PeriodRange) (inicio, fim string) {
	now := time.Now()
	inicio = periodo.MonthsAgo(now, DefaultWindowMonths)
	fim = periodo.Current(now)
	if intervalo != nil {
		if intervalo.CompetenciaInicio != "" {
			inicio = intervalo.CompetenciaInicio
		}
		if intervalo.CompetenciaFim != "" {
			fim = intervalo.CompetenciaFim
		}
	}
	return inicio, fim
}

func (s *Service) empresaLock(empresaID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.emExecucao[empresaID]
	if !ok {
		lock = &sync.Mutex{}
		s.emExecucao[empresaID] = lock
	}
	return lock
}

func suspende(vinculos []RubricaProcessoVinculo, tributo string) bool {
	for _, v := range vinculos {
		if v.TributoSuspenso == tributo || v.TributoSuspenso == SuspensaoTodos {
			return true
		}
	}
	return false
}

func fundamento(padrao BaseConhecimento, fallback string) string {
	if padrao.FundamentacaoLegal != "" {
		return padrao.FundamentacaoLegal
	}
	return fallback
}
