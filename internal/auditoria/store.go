package auditoria

import (
	"context"

	"github.com/google/uuid"
)

// Store is the audit persistence boundary: findings, the legal knowledge
// base and the judicial-suspension graph.
type Store interface {
	// Knowledge base, keyed by rubric nature.
	LoadBaseConhecimento(ctx context.Context) (map[string]BaseConhecimento, error)

	// Judicial processes and their rubric suspensions.
	ListProcessos(ctx context.Context, empresaID uuid.UUID) ([]ProcessoJudicial, error)
	ListVinculos(ctx context.Context, empresaID uuid.UUID) ([]RubricaProcessoVinculo, error)

	// Findings. DeleteDivergencias clears a period range before the run's
	// findings are inserted, which is what makes re-runs idempotent.
	InsertDivergencia(ctx context.Context, divergencia *Divergencia) error
	DeleteDivergencias(ctx context.Context, empresaID uuid.UUID, competenciaInicio, competenciaFim string) error
	DeleteDivergenciasDaRemuneracao(ctx context.Context, remuneracaoID uuid.UUID) error
	ListDivergencias(ctx context.Context, empresaID uuid.UUID) ([]Divergencia, error)
	CountDivergenciasDasRemuneracoes(ctx context.Context, empresaID uuid.UUID, remuneracaoIDs []uuid.UUID) (int, error)
}
