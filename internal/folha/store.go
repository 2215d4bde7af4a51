package folha

import (
	"context"

	"github.com/google/uuid"
)

// Store is the payroll persistence boundary. Absent rows surface as
// sentinel.ErrNotFound so callers branch without driver knowledge.
type Store interface {
	// Rubric table (employer's declared incidences).
	ListRubricas(ctx context.Context, empresaID uuid.UUID) ([]Rubrica, error)
	UpsertRubrica(ctx context.Context, rubrica *Rubrica) error

	// S-1010 event records and their validity windows.
	InsertEvtS1010(ctx context.Context, evento *EvtS1010) error
	FindEvtS1010Aberto(ctx context.Context, empresaID uuid.UUID, codRubr string) (*EvtS1010, error)
	EncerrarVigenciaEvtS1010(ctx context.Context, id uuid.UUID, fimValid string) error

	// Workers.
	FindColaboradorByCPF(ctx context.Context, empresaID uuid.UUID, cpf string) (*Colaborador, error)
	CreateColaborador(ctx context.Context, colaborador *Colaborador) error

	// Remunerations and line items.
	FindRemuneracao(ctx context.Context, colaboradorID uuid.UUID, competencia string) (*Remuneracao, error)
	CreateRemuneracao(ctx context.Context, remuneracao *Remuneracao) error
	UpdateRemuneracao(ctx context.Context, remuneracao *Remuneracao) error
	ListRemuneracoes(ctx context.Context, empresaID uuid.UUID, competencia string) ([]Remuneracao, error)
	DeleteItens(ctx context.Context, remuneracaoID uuid.UUID) error
	InsertItem(ctx context.Context, item *ItemRemuneracao) error
	ListItens(ctx context.Context, remuneracaoID uuid.UUID) ([]ItemRemuneracao, error)

	// Sum of provento line-item values for a rubric code across a
	// competência range; the audit engine's impact base.
	SumProventosPorRubrica(ctx context.Context, empresaID uuid.UUID, codigoRubrica, competenciaInicio, competenciaFim string) (float64, error)

	// Import audit rows.
	CreateImportacao(ctx context.Context, importacao *Importacao) error
	FinishImportacao(ctx context.Context, id uuid.UUID, status string, registros int, erros []string) error
	ListImportacoes(ctx context.Context, empresaID uuid.UUID, limit int) ([]Importacao, error)

	// Monthly aggregates.
	UpsertApuracao(ctx context.Context, apuracao *Apuracao) error
	UpdateApuracaoDivergencias(ctx context.Context, empresaID uuid.UUID, competencia string, total int) error
}
