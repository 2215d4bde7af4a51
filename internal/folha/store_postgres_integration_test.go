//go:build integration

package folha_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"auditafolha/internal/esocial"
	"auditafolha/internal/folha"
	"auditafolha/pkg/platform/sentinel"
	"auditafolha/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *folha.PostgresStore
	empresa  uuid.UUID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = folha.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
	s.empresa = uuid.New()
}

func (s *PostgresStoreSuite) newEvtS1010(codRubr, iniValid string) *folha.EvtS1010 {
	return &folha.EvtS1010{
		ID:        uuid.New(),
		EmpresaID: s.empresa,
		EventoS1010: esocial.EventoS1010{
			XMLID:         "ID1" + uuid.NewString()[:8],
			XMLVersion:    "S_01_03_00",
			TpAmb:         1,
			ProcEmi:       1,
			VerProc:       "1.0",
			EmpTpInsc:     1,
			EmpNrInsc:     "12345678000190",
			OperationType: esocial.OperacaoInclusao,
			CodRubr:       codRubr,
			IdeTabRubr:    "01",
			IniValid:      iniValid,
			DscRubr:       "Salario Base",
			NatRubr:       1000,
			TpRubr:        1,
			CodIncCP:      11,
			CodIncIRRF:    11,
			CodIncFGTS:    11,
			CodIncSIND:    0,
		},
	}
}

func (s *PostgresStoreSuite) criaRemuneracao(competencia string, baseINSS float64) *folha.Remuneracao {
	ctx := context.Background()

	colaborador := &folha.Colaborador{
		ID:        uuid.New(),
		EmpresaID: s.empresa,
		CPF:       uuid.NewString()[:11],
		Nome:      "Maria Silva",
		Matricula: "MAT001",
	}
	s.Require().NoError(s.store.CreateColaborador(ctx, colaborador))

	remuneracao := &folha.Remuneracao{
		ID:            uuid.New(),
		EmpresaID:     s.empresa,
		ColaboradorID: colaborador.ID,
		Competencia:   competencia,
		ValorBruto:    3000,
		ValorLiquido:  3000,
		BaseINSS:      baseINSS,
		BaseIRRF:      baseINSS,
		BaseFGTS:      baseINSS,
	}
	s.Require().NoError(s.store.CreateRemuneracao(ctx, remuneracao))
	return remuneracao
}

func (s *PostgresStoreSuite) TestUpsertRubricaAtualizaExistente() {
	ctx := context.Background()

	rubrica := &folha.Rubrica{
		ID:        uuid.New(),
		EmpresaID: s.empresa,
		Codigo:    "001",
		Descricao: "Salario Base",
		Natureza:  "provento",
		Tipo:      "1000",
		IncidINSS: "11",
		IncidIRRF: "11",
		IncidFGTS: "11",
	}
	s.Require().NoError(s.store.UpsertRubrica(ctx, rubrica))

	atualizada := *rubrica
	atualizada.ID = uuid.New()
	atualizada.Descricao = "Salario Mensal"
	atualizada.IncidINSS = "00"
	s.Require().NoError(s.store.UpsertRubrica(ctx, &atualizada))

	rubricas, err := s.store.ListRubricas(ctx, s.empresa)
	s.Require().NoError(err)
	s.Require().Len(rubricas, 1)
	s.Equal(rubrica.ID, rubricas[0].ID)
	s.Equal("Salario Mensal", rubricas[0].Descricao)
	s.Equal("00", rubricas[0].IncidINSS)
}

func (s *PostgresStoreSuite) TestEvtS1010CicloDeVigencia() {
	ctx := context.Background()

	primeiro := s.newEvtS1010("001", "2024-01")
	s.Require().NoError(s.store.InsertEvtS1010(ctx, primeiro))

	aberto, err := s.store.FindEvtS1010Aberto(ctx, s.empresa, "001")
	s.Require().NoError(err)
	s.Equal(primeiro.ID, aberto.ID)
	s.Equal("2024-01", aberto.IniValid)

	s.Require().NoError(s.store.EncerrarVigenciaEvtS1010(ctx, primeiro.ID, "2024-02"))

	_, err = s.store.FindEvtS1010Aberto(ctx, s.empresa, "001")
	s.ErrorIs(err, sentinel.ErrNotFound)

	segundo := s.newEvtS1010("001", "2024-03")
	s.Require().NoError(s.store.InsertEvtS1010(ctx, segundo))

	aberto, err = s.store.FindEvtS1010Aberto(ctx, s.empresa, "001")
	s.Require().NoError(err)
	s.Equal(segundo.ID, aberto.ID)
}

func (s *PostgresStoreSuite) TestEncerrarVigenciaInexistente() {
	err := s.store.EncerrarVigenciaEvtS1010(context.Background(), uuid.New(), "2024-02")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestColaboradorPorCPF() {
	ctx := context.Background()

	_, err := s.store.FindColaboradorByCPF(ctx, s.empresa, "12345678901")
	s.ErrorIs(err, sentinel.ErrNotFound)

	colaborador := &folha.Colaborador{
		ID:        uuid.New(),
		EmpresaID: s.empresa,
		CPF:       "12345678901",
		Nome:      "Maria Silva",
		Matricula: "MAT001",
	}
	s.Require().NoError(s.store.CreateColaborador(ctx, colaborador))

	achado, err := s.store.FindColaboradorByCPF(ctx, s.empresa, "12345678901")
	s.Require().NoError(err)
	s.Equal(colaborador.ID, achado.ID)
	s.Equal("Maria Silva", achado.Nome)

	// same CPF under another employer is a different worker
	_, err = s.store.FindColaboradorByCPF(ctx, uuid.New(), "12345678901")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRemuneracaoComItens() {
	ctx := context.Background()

	remuneracao := s.criaRemuneracao("2024-06", 3000)

	item := &folha.ItemRemuneracao{
		ID:            uuid.New(),
		RemuneracaoID: remuneracao.ID,
		CodigoRubrica: "001",
		Descricao:     "Salario Base",
		Natureza:      "provento",
		Valor:         3000,
	}
	s.Require().NoError(s.store.InsertItem(ctx, item))

	achada, err := s.store.FindRemuneracao(ctx, remuneracao.ColaboradorID, "2024-06")
	s.Require().NoError(err)
	s.Equal(remuneracao.ID, achada.ID)
	s.InDelta(3000, achada.BaseINSS, 0.001)

	itens, err := s.store.ListItens(ctx, remuneracao.ID)
	s.Require().NoError(err)
	s.Require().Len(itens, 1)
	s.Nil(itens[0].RubricaID)

	achada.BaseINSS = 3500
	s.Require().NoError(s.store.UpdateRemuneracao(ctx, achada))
	s.Require().NoError(s.store.DeleteItens(ctx, remuneracao.ID))

	itens, err = s.store.ListItens(ctx, remuneracao.ID)
	s.Require().NoError(err)
	s.Empty(itens)

	achada, err = s.store.FindRemuneracao(ctx, remuneracao.ColaboradorID, "2024-06")
	s.Require().NoError(err)
	s.InDelta(3500, achada.BaseINSS, 0.001)
}

func (s *PostgresStoreSuite) TestSumProventosIgnoraDescontosEForaDoIntervalo() {
	ctx := context.Background()

	dentro := s.criaRemuneracao("2024-06", 3000)
	fora := s.criaRemuneracao("2025-01", 3000)

	inserir := func(remuneracaoID uuid.UUID, natureza string, valor float64) {
		s.Require().NoError(s.store.InsertItem(ctx, &folha.ItemRemuneracao{
			ID:            uuid.New(),
			RemuneracaoID: remuneracaoID,
			CodigoRubrica: "001",
			Natureza:      natureza,
			Valor:         valor,
		}))
	}
	inserir(dentro.ID, "provento", 3000)
	inserir(dentro.ID, "desconto", 250)
	inserir(fora.ID, "provento", 5000)

	total, err := s.store.SumProventosPorRubrica(ctx, s.empresa, "001", "2024-01", "2024-12")
	s.Require().NoError(err)
	s.InDelta(3000, total, 0.001)

	total, err = s.store.SumProventosPorRubrica(ctx, s.empresa, "999", "2024-01", "2024-12")
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *PostgresStoreSuite) TestImportacaoCicloCompleto() {
	ctx := context.Background()

	importacao := &folha.Importacao{
		ID:          uuid.New(),
		EmpresaID:   s.empresa,
		TipoEvento:  "S-1200",
		NomeArquivo: "folha.xml",
		Competencia: "2024-06",
		Status:      folha.StatusProcessing,
	}
	s.Require().NoError(s.store.CreateImportacao(ctx, importacao))

	erros := []string{"Colaborador 123: CPF invalido"}
	s.Require().NoError(s.store.FinishImportacao(ctx, importacao.ID, folha.StatusPartial, 2, erros))

	importacoes, err := s.store.ListImportacoes(ctx, s.empresa, 10)
	s.Require().NoError(err)
	s.Require().Len(importacoes, 1)
	s.Equal(folha.StatusPartial, importacoes[0].Status)
	s.Equal(2, importacoes[0].RegistrosProcessados)
	s.Equal(erros, importacoes[0].Erros)
	s.Equal("2024-06", importacoes[0].Competencia)
}

func (s *PostgresStoreSuite) TestApuracaoUpsertEContagem() {
	ctx := context.Background()

	apuracao := &folha.Apuracao{
		EmpresaID:             s.empresa,
		Competencia:           "2024-06",
		TotalBrutoOriginal:    3000,
		TotalBrutoRecalculado: 3000,
	}
	s.Require().NoError(s.store.UpsertApuracao(ctx, apuracao))

	apuracao.TotalBrutoOriginal = 6000
	apuracao.TotalBrutoRecalculado = 6000
	s.Require().NoError(s.store.UpsertApuracao(ctx, apuracao))

	s.Require().NoError(s.store.UpdateApuracaoDivergencias(ctx, s.empresa, "2024-06", 4))

	var bruto float64
	var divergencias int
	err := s.postgres.DB.QueryRowContext(ctx,
		`SELECT total_bruto_original, total_divergencias FROM apuracoes
		 WHERE empresa_id = $1 AND competencia = $2`, s.empresa, "2024-06").
		Scan(&bruto, &divergencias)
	s.Require().NoError(err)
	s.InDelta(6000, bruto, 0.001)
	s.Equal(4, divergencias)
}

func (s *PostgresStoreSuite) TestFindRemuneracaoInexistente() {
	_, err := s.store.FindRemuneracao(context.Background(), uuid.New(), "2024-06")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
