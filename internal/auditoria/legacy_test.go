package auditoria

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditafolha/internal/folha"
)

// seedRemuneracao stores a remuneração with its line items and the given
// (possibly wrong) tax bases.
func (f *engineFixture) seedRemuneracao(t *testing.T, competencia string, baseINSS, baseIRRF, baseFGTS float64, itens ...folha.ItemRemuneracao) folha.Remuneracao {
	t.Helper()
	ctx := context.Background()

	rem := folha.Remuneracao{
		ID:          uuid.New(),
		EmpresaID:   f.empresa,
		Competencia: competencia,
		BaseINSS:    baseINSS,
		BaseIRRF:    baseIRRF,
		BaseFGTS:    baseFGTS,
	}
	require.NoError(t, f.folha.CreateRemuneracao(ctx, &rem))
	for _, item := range itens {
		item.ID = uuid.New()
		item.RemuneracaoID = rem.ID
		require.NoError(t, f.folha.InsertItem(ctx, &item))
	}
	return rem
}

func (f *engineFixture) cadastraRubrica(t *testing.T, codigo, incidINSS, incidIRRF, incidFGTS string) {
	t.Helper()
	require.NoError(t, f.folha.UpsertRubrica(context.Background(), &folha.Rubrica{
		ID:        uuid.New(),
		EmpresaID: f.empresa,
		Codigo:    codigo,
		Natureza:  "provento",
		IncidINSS: incidINSS,
		IncidIRRF: incidIRRF,
		IncidFGTS: incidFGTS,
	}))
}

func TestRunLegacyBasesConsistentes(t *testing.T) {
	f := newEngineFixture(t)
	f.cadastraRubrica(t, "001", "11", "11", "11")
	f.seedRemuneracao(t, "2024-06", 3000, 3000, 3000,
		folha.ItemRemuneracao{CodigoRubrica: "001", Natureza: "provento", Valor: 3000})

	result, err := f.svc.RunLegacy(context.Background(), f.empresa, "2024-06")
	require.NoError(t, err)

	assert.Zero(t, result.TotalDivergencias)
	assert.Zero(t, result.ImpactoFinanceiro)
}

func TestRunLegacyToleranciaRelativa(t *testing.T) {
	f := newEngineFixture(t)
	f.cadastraRubrica(t, "001", "11", "00", "00")
	// recomputed 3000 vs stored 2985: drift of 15 stays inside the 1% band
	f.seedRemuneracao(t, "2024-06", 2985, 0, 0,
		folha.ItemRemuneracao{CodigoRubrica: "001", Natureza: "provento", Valor: 3000})

	result, err := f.svc.RunLegacy(context.Background(), f.empresa, "2024-06")
	require.NoError(t, err)

	assert.Zero(t, result.TotalDivergencias)
}

func TestRunLegacyBaseDivergente(t *testing.T) {
	f := newEngineFixture(t)
	f.cadastraRubrica(t, "001", "11", "11", "11")
	// INSS understated (risk), IRRF exact, FGTS overstated (opportunity)
	f.seedRemuneracao(t, "2024-06", 2000, 3000, 3200,
		folha.ItemRemuneracao{CodigoRubrica: "001", Natureza: "provento", Valor: 3000})

	result, err := f.svc.RunLegacy(context.Background(), f.empresa, "2024-06")
	require.NoError(t, err)

	require.Equal(t, 2, result.TotalDivergencias)

	porTipo := make(map[string]Divergencia)
	for _, d := range result.Divergencias {
		porTipo[d.Tipo] = d
		assert.Equal(t, SeveridadeMedia, d.Severidade)
		assert.Equal(t, "2024-06", d.CompetenciaInicio)
		assert.Equal(t, "2024-06", d.CompetenciaFim)
		require.NotNil(t, d.RemuneracaoID)
	}

	inss := porTipo["INSS"]
	assert.Equal(t, ImpactoRisco, inss.TipoImpacto)
	assert.Equal(t, TributoINSSSegurado, inss.TributoAfetado)
	assert.InDelta(t, 2000, inss.ValorOriginal, 0.001)
	assert.InDelta(t, 3000, inss.ValorRecalculado, 0.001)
	assert.InDelta(t, 1000, inss.Diferenca, 0.001)

	fgts := porTipo["FGTS"]
	assert.Equal(t, ImpactoOportunidade, fgts.TipoImpacto)
	assert.InDelta(t, -200, fgts.Diferenca, 0.001)

	// totals take the absolute value even when the signed difference is negative
	assert.InDelta(t, 1000, result.TotalRisco, 0.001)
	assert.InDelta(t, 200, result.TotalOportunidade, 0.001)
	assert.InDelta(t, 1200, result.ImpactoFinanceiro, 0.001)
}

func TestRunLegacyDescontoNaoCompoeBase(t *testing.T) {
	f := newEngineFixture(t)
	f.cadastraRubrica(t, "001", "11", "00", "00")
	f.cadastraRubrica(t, "101", "11", "00", "00")
	f.seedRemuneracao(t, "2024-06", 3000, 0, 0,
		folha.ItemRemuneracao{CodigoRubrica: "001", Natureza: "provento", Valor: 3000},
		folha.ItemRemuneracao{CodigoRubrica: "101", Natureza: "desconto", Valor: 258.82})

	result, err := f.svc.RunLegacy(context.Background(), f.empresa, "2024-06")
	require.NoError(t, err)

	assert.Zero(t, result.TotalDivergencias)
}

func TestRunLegacyRubricaNaoCadastrada(t *testing.T) {
	f := newEngineFixture(t)
	f.cadastraRubrica(t, "001", "11", "00", "00")
	f.seedRemuneracao(t, "2024-06", 3000, 0, 0,
		folha.ItemRemuneracao{CodigoRubrica: "001", Natureza: "provento", Valor: 3000},
		folha.ItemRemuneracao{CodigoRubrica: "999", Natureza: "provento", Valor: 500})

	result, err := f.svc.RunLegacy(context.Background(), f.empresa, "2024-06")
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalDivergencias)
	d := result.Divergencias[0]
	assert.Equal(t, "Rubrica", d.Tipo)
	assert.Equal(t, ImpactoRisco, d.TipoImpacto)
	assert.Equal(t, TributoMultiplo, d.TributoAfetado)
	assert.Equal(t, SeveridadeAlta, d.Severidade)
	assert.Equal(t, "Rubrica 999 nao cadastrada na tabela S-1010", d.Descricao)
	assert.InDelta(t, 500, d.Diferenca, 0.001)
	require.NotNil(t, d.ItemRemuneracaoID)
	assert.InDelta(t, 500, result.TotalRisco, 0.001)
}

func TestRunLegacyIdempotente(t *testing.T) {
	f := newEngineFixture(t)
	f.cadastraRubrica(t, "001", "11", "00", "00")
	f.seedRemuneracao(t, "2024-06", 2000, 0, 0,
		folha.ItemRemuneracao{CodigoRubrica: "001", Natureza: "provento", Valor: 3000})

	ctx := context.Background()
	_, err := f.svc.RunLegacy(ctx, f.empresa, "2024-06")
	require.NoError(t, err)
	_, err = f.svc.RunLegacy(ctx, f.empresa, "2024-06")
	require.NoError(t, err)

	persistidas, err := f.store.ListDivergencias(ctx, f.empresa)
	require.NoError(t, err)
	assert.Len(t, persistidas, 1)
}

func TestRunLegacyAtualizaApuracao(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	require.NoError(t, f.folha.UpsertApuracao(ctx, &folha.Apuracao{
		EmpresaID:   f.empresa,
		Competencia: "2024-06",
	}))

	f.cadastraRubrica(t, "001", "11", "00", "00")
	f.seedRemuneracao(t, "2024-06", 2000, 0, 0,
		folha.ItemRemuneracao{CodigoRubrica: "001", Natureza: "provento", Valor: 3000})

	_, err := f.svc.RunLegacy(ctx, f.empresa, "")
	require.NoError(t, err)

	apuracao, ok := f.folha.Apuracao(f.empresa, "2024-06")
	require.True(t, ok)
	assert.Equal(t, 1, apuracao.TotalDivergencias)
}

func TestRunLegacySemRemuneracoes(t *testing.T) {
	f := newEngineFixture(t)
	result, err := f.svc.RunLegacy(context.Background(), f.empresa, "2024-06")
	require.NoError(t, err)
	assert.Zero(t, result.TotalDivergencias)
	assert.Empty(t, result.Divergencias)
}
