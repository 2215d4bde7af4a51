package auditoria

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"auditafolha/internal/folha"
)

// toleranciaBase is the relative slack allowed between a stored tax base and
// the base recomputed from the line items before a divergence is raised.
const toleranciaBase = 0.01

// RunLegacy replays the bottom-up consistency check: for every remuneração of
// the employer (optionally narrowed to one competência) the tax bases are
// recomputed from the line items against the rubric table and compared with
// the bases stored at import time. Findings are scoped to the remuneração and
// replace any previous findings of the same remuneração.
func (s *Service) RunLegacy(ctx context.Context, empresaID uuid.UUID, competencia string) (*Result, error) {
	lock := s.empresaLock(empresaID)
	lock.Lock()
	defer lock.Unlock()

	result := &Result{}

	remuneracoes, err := s.folha.ListRemuneracoes(ctx, empresaID, competencia)
	if err != nil {
		return nil, fmt.Errorf("carregar remunerações: %w", err)
	}
	if len(remuneracoes) == 0 {
		return result, nil
	}

	rubricas, err := s.folha.ListRubricas(ctx, empresaID)
	if err != nil {
		return nil, fmt.Errorf("carregar rubricas: %w", err)
	}
	porCodigo := make(map[string]folha.Rubrica, len(rubricas))
	for _, r := range rubricas {
		porCodigo[r.Codigo] = r
	}

	for _, rem := range remuneracoes {
		itens, err := s.folha.ListItens(ctx, rem.ID)
		if err != nil {
			return nil, fmt.Errorf("carregar itens da remuneração %s: %w", rem.ID, err)
		}

		if err := s.store.DeleteDivergenciasDaRemuneracao(ctx, rem.ID); err != nil {
			return nil, fmt.Errorf("limpar divergências da remuneração %s: %w", rem.ID, err)
		}

		var baseINSS, baseIRRF, baseFGTS float64

		for _, item := range itens {
			rubrica, ok := porCodigo[item.CodigoRubrica]
			if !ok {
				divergencia := Divergencia{
					EmpresaID:         empresaID,
					RemuneracaoID:     &rem.ID,
					ItemRemuneracaoID: &item.ID,
					Tipo:              "Rubrica",
					TipoImpacto:       ImpactoRisco,
					TributoAfetado:    TributoMultiplo,
					Descricao:         fmt.Sprintf("Rubrica %s nao cadastrada na tabela S-1010", item.CodigoRubrica),
					ValorOriginal:     item.Valor,
					ValorRecalculado:  0,
					Diferenca:         item.Valor,
					Severidade:        SeveridadeAlta,
					StatusAnalise:     StatusPendente,
					CompetenciaInicio: rem.Competencia,
					CompetenciaFim:    rem.Competencia,
				}
				result.Divergencias = append(result.Divergencias, divergencia)
				result.TotalRisco += item.Valor
				s.metrics.IncrementDivergencia(ImpactoRisco, TributoMultiplo)
				continue
			}

			if item.Natureza != "provento" {
				continue
			}
			if IncidenciaAtiva(rubrica.IncidINSS) {
				baseINSS += item.Valor
			}
			if IncidenciaAtiva(rubrica.IncidIRRF) {
				baseIRRF += item.Valor
			}
			if IncidenciaAtiva(rubrica.IncidFGTS) {
				baseFGTS += item.Valor
			}
		}

		s.compararBase(result, rem, "INSS", TributoINSSSegurado, baseINSS, rem.BaseINSS)
		s.compararBase(result, rem, "IRRF", TributoIRRF, baseIRRF, rem.BaseIRRF)
		s.compararBase(result, rem, "FGTS", TributoFGTS, baseFGTS, rem.BaseFGTS)
	}

	for i := range result.Divergencias {
		result.Divergencias[i].ID = uuid.New()
		if err := s.store.InsertDivergencia(ctx, &result.Divergencias[i]); err != nil {
			return nil, fmt.Errorf("gravar divergência: %w", err)
		}
	}

	result.TotalDivergencias = len(result.Divergencias)
	result.ImpactoFinanceiro = result.TotalRisco + result.TotalOportunidade

	if err := s.atualizarApuracoes(ctx, empresaID, remuneracoes); err != nil {
		return nil, err
	}

	s.log.Info("verificação de bases concluída",
		"empresa_id", empresaID,
		"remuneracoes", len(remuneracoes),
		"divergencias", result.TotalDivergencias)

	return result, nil
}

// compararBase raises a medium finding when the recomputed base drifts more
// than the tolerance from the stored one. Diferenca keeps its sign; only the
// totals take the absolute value.
func (s *Service) compararBase(result *Result, rem folha.Remuneracao, tipo, tributo string, recalculada, armazenada float64) {
	if math.Abs(recalculada-armazenada) <= toleranciaBase*armazenada {
		return
	}

	diferenca := recalculada - armazenada
	tipoImpacto := ImpactoOportunidade
	if diferenca > 0 {
		tipoImpacto = ImpactoRisco
	}

	divergencia := Divergencia{
		EmpresaID:         rem.EmpresaID,
		RemuneracaoID:     &rem.ID,
		Tipo:              tipo,
		TipoImpacto:       tipoImpacto,
		TributoAfetado:    tributo,
		Descricao:         fmt.Sprintf("Base de calculo do %s divergente", tipo),
		ValorOriginal:     armazenada,
		ValorRecalculado:  recalculada,
		Diferenca:         diferenca,
		Severidade:        SeveridadeMedia,
		StatusAnalise:     StatusPendente,
		CompetenciaInicio: rem.Competencia,
		CompetenciaFim:    rem.Competencia,
	}
	result.Divergencias = append(result.Divergencias, divergencia)
	s.metrics.IncrementDivergencia(tipoImpacto, tributo)

	if tipoImpacto == ImpactoRisco {
		result.TotalRisco += math.Abs(diferenca)
	} else {
		result.TotalOportunidade += math.Abs(diferenca)
	}
}

// atualizarApuracoes refreshes the divergence count of every competência
// touched by the run.
func (s *Service) atualizarApuracoes(ctx context.Context, empresaID uuid.UUID, remuneracoes []folha.Remuneracao) error {
	competencias := make(map[string]struct{})
	for _, rem := range remuneracoes {
		competencias[rem.Competencia] = struct{}{}
	}

	for competencia := range competencias {
		rems, err := s.folha.ListRemuneracoes(ctx, empresaID, competencia)
		if err != nil {
			return fmt.Errorf("carregar remunerações da competência %s: %w", competencia, err)
		}
		ids := make([]uuid.UUID, len(rems))
		for i, r := range rems {
			ids[i] = r.ID
		}

		total, err := s.store.CountDivergenciasDasRemuneracoes(ctx, empresaID, ids)
		if err != nil {
			return fmt.Errorf("contar divergências da competência %s: %w", competencia, err)
		}
		if err := s.folha.UpdateApuracaoDivergencias(ctx, empresaID, competencia, total); err != nil {
			return fmt.Errorf("atualizar apuração da competência %s: %w", competencia, err)
		}
	}
	return nil
}
