package auditoria

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore persists audit findings and serves the legal knowledge base
// and the judicial-suspension graph from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LoadBaseConhecimento(ctx context.Context) (map[string]BaseConhecimento, error) {
	const query = `
		SELECT natureza_rubrica, descricao_padrao,
		       incid_inss_padrao, incid_irrf_padrao, incid_fgts_padrao,
		       fundamentacao_legal
		FROM base_conhecimento_rubricas`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load base conhecimento: %w", err)
	}
	defer rows.Close()

	base := make(map[string]BaseConhecimento)
	for rows.Next() {
		var b BaseConhecimento
		if err := rows.Scan(&b.NaturezaRubrica, &b.DescricaoPadrao,
			&b.IncidINSSPadrao, &b.IncidIRRFPadrao, &b.IncidFGTSPadrao,
			&b.FundamentacaoLegal); err != nil {
			return nil, fmt.Errorf("scan base conhecimento: %w", err)
		}
		base[b.NaturezaRubrica] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate base conhecimento: %w", err)
	}
	return base, nil
}

func (s *PostgresStore) ListProcessos(ctx context.Context, empresaID uuid.UUID) ([]ProcessoJudicial, error) {
	const query = `
		SELECT id, empresa_id, nr_processo, tp_proc, ind_suspensao,
		       COALESCE(cod_susp, ''), ini_valid, COALESCE(fim_valid, '')
		FROM evt_s1070
		WHERE empresa_id = $1
		ORDER BY ini_valid`

	rows, err := s.db.QueryContext(ctx, query, empresaID)
	if err != nil {
		return nil, fmt.Errorf("list processos: %w", err)
	}
	defer rows.Close()

	var processos []ProcessoJudicial
	for rows.Next() {
		var p ProcessoJudicial
		if err := rows.Scan(&p.ID, &p.EmpresaID, &p.NrProcesso, &p.TpProc,
			&p.IndSuspensao, &p.CodSusp, &p.IniValid, &p.FimValid); err != nil {
			return nil, fmt.Errorf("scan processo: %w", err)
		}
		processos = append(processos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processos: %w", err)
	}
	return processos, nil
}

func (s *PostgresStore) ListVinculos(ctx context.Context, empresaID uuid.UUID) ([]RubricaProcessoVinculo, error) {
	const query = `
		SELECT empresa_id, rubrica_id, processo_id, tributo_suspenso
		FROM rubrica_processo_vinculo
		WHERE empresa_id = $1`

	rows, err := s.db.QueryContext(ctx, query, empresaID)
	if err != nil {
		return nil, fmt.Errorf("list vinculos: %w", err)
	}
	defer rows.Close()

	var vinculos []RubricaProcessoVinculo
	for rows.Next() {
		var v RubricaProcessoVinculo
		if err := rows.Scan(&v.EmpresaID, &v.RubricaID, &v.ProcessoID, &v.TributoSuspenso); err != nil {
			return nil, fmt.Errorf("scan vinculo: %w", err)
		}
		vinculos = append(vinculos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vinculos: %w", err)
	}
	return vinculos, nil
}

func (s *PostgresStore) InsertDivergencia(ctx context.Context, divergencia *Divergencia) error {
	const query = `
		INSERT INTO divergencias (
			id, empresa_id, remuneracao_id, item_remuneracao_id, tipo,
			tipo_impacto, tributo_afetado, natureza_rubrica, descricao,
			valor_original, valor_recalculado, diferenca, severidade,
			fundamento_legal, status_analise, competencia_inicio, competencia_fim
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := s.db.ExecContext(ctx, query,
		divergencia.ID, divergencia.EmpresaID,
		nullUUIDPtr(divergencia.RemuneracaoID), nullUUIDPtr(divergencia.ItemRemuneracaoID),
		divergencia.Tipo, divergencia.TipoImpacto, divergencia.TributoAfetado,
		nullStr(divergencia.NaturezaRubrica), divergencia.Descricao,
		divergencia.ValorOriginal, divergencia.ValorRecalculado, divergencia.Diferenca,
		divergencia.Severidade, nullStr(divergencia.FundamentoLegal),
		divergencia.StatusAnalise, divergencia.CompetenciaInicio, divergencia.CompetenciaFim)
	if err != nil {
		return fmt.Errorf("insert divergencia: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteDivergencias(ctx context.Context, empresaID uuid.UUID, competenciaInicio, competenciaFim string) error {
	const query = `
		DELETE FROM divergencias
		WHERE empresa_id = $1
		  AND competencia_inicio >= $2
		  AND competencia_fim <= $3`

	if _, err := s.db.ExecContext(ctx, query, empresaID, competenciaInicio, competenciaFim); err != nil {
		return fmt.Errorf("delete divergencias: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteDivergenciasDaRemuneracao(ctx context.Context, remuneracaoID uuid.UUID) error {
	const query = `DELETE FROM divergencias WHERE remuneracao_id = $1`

	if _, err := s.db.ExecContext(ctx, query, remuneracaoID); err != nil {
		return fmt.Errorf("delete divergencias da remuneracao: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDivergencias(ctx context.Context, empresaID uuid.UUID) ([]Divergencia, error) {
	const query = `
		SELECT id, empresa_id, remuneracao_id, item_remuneracao_id, tipo,
		       tipo_impacto, tributo_afetado, COALESCE(natureza_rubrica, ''),
		       descricao, valor_original, valor_recalculado, diferenca,
		       severidade, COALESCE(fundamento_legal, ''), status_analise,
		       competencia_inicio, competencia_fim, created_at
		FROM divergencias
		WHERE empresa_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, empresaID)
	if err != nil {
		return nil, fmt.Errorf("list divergencias: %w", err)
	}
	defer rows.Close()

	var divergencias []Divergencia
	for rows.Next() {
		var d Divergencia
		var remID, itemID uuid.NullUUID
		if err := rows.Scan(&d.ID, &d.EmpresaID, &remID, &itemID, &d.Tipo,
			&d.TipoImpacto, &d.TributoAfetado, &d.NaturezaRubrica,
			&d.Descricao, &d.ValorOriginal, &d.ValorRecalculado, &d.Diferenca,
			&d.Severidade, &d.FundamentoLegal, &d.StatusAnalise,
			&d.CompetenciaInicio, &d.CompetenciaFim, &d.CriadoEm); err != nil {
			return nil, fmt.Errorf("scan divergencia: %w", err)
		}
		if remID.Valid {
			id := remID.UUID
			d.RemuneracaoID = &id
		}
		if itemID.Valid {
			id := itemID.UUID
			d.ItemRemuneracaoID = &id
		}
		divergencias = append(divergencias, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate divergencias: %w", err)
	}
	return divergencias, nil
}

func (s *PostgresStore) CountDivergenciasDasRemuneracoes(ctx context.Context, empresaID uuid.UUID, remuneracaoIDs []uuid.UUID) (int, error) {
	if len(remuneracaoIDs) == 0 {
		return 0, nil
	}

	const query = `
		SELECT COUNT(*)
		FROM divergencias
		WHERE empresa_id = $1 AND remuneracao_id = ANY($2)`

	ids := make([]string, len(remuneracaoIDs))
	for i, id := range remuneracaoIDs {
		ids[i] = id.String()
	}

	var total int
	if err := s.db.QueryRowContext(ctx, query, empresaID, pq.Array(ids)).Scan(&total); err != nil {
		return 0, fmt.Errorf("count divergencias: %w", err)
	}
	return total, nil
}

func nullStr(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullUUIDPtr(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
