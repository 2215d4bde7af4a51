package folha

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"auditafolha/pkg/platform/sentinel"
)

// PostgresStore persists the payroll domain in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListRubricas(ctx context.Context, empresaID uuid.UUID) ([]Rubrica, error) {
	const query = `
		SELECT id, empresa_id, codigo, descricao, natureza, tipo,
		       incid_inss, incid_irrf, incid_fgts, created_at
		FROM rubricas
		WHERE empresa_id = $1
		ORDER BY codigo`

	rows, err := s.db.QueryContext(ctx, query, empresaID)
	if err != nil {
		return nil, fmt.Errorf("list rubricas: %w", err)
	}
	defer rows.Close()

	var rubricas []Rubrica
	for rows.Next() {
		var r Rubrica
		if err := rows.Scan(&r.ID, &r.EmpresaID, &r.Codigo, &r.Descricao, &r.Natureza,
			&r.Tipo, &r.IncidINSS, &r.IncidIRRF, &r.IncidFGTS, &r.CriadoEm); err != nil {
			return nil, fmt.Errorf("scan rubrica: %w", err)
		}
		rubricas = append(rubricas, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rubricas: %w", err)
	}
	return rubricas, nil
}

func (s *PostgresStore) UpsertRubrica(ctx context.Context, rubrica *Rubrica) error {
	const query = `
		INSERT INTO rubricas (id, empresa_id, codigo, descricao, natureza, tipo,
		                      incid_inss, incid_irrf, incid_fgts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (empresa_id, codigo) DO UPDATE SET
			descricao = EXCLUDED.descricao,
			natureza = EXCLUDED.natureza,
			tipo = EXCLUDED.tipo,
			incid_inss = EXCLUDED.incid_inss,
			incid_irrf = EXCLUDED.incid_irrf,
			incid_fgts = EXCLUDED.incid_fgts`

	_, err := s.db.ExecContext(ctx, query, rubrica.ID, rubrica.EmpresaID, rubrica.Codigo,
		rubrica.Descricao, rubrica.Natureza, rubrica.Tipo,
		rubrica.IncidINSS, rubrica.IncidIRRF, rubrica.IncidFGTS)
	if err != nil {
		return fmt.Errorf("upsert rubrica: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertEvtS1010(ctx context.Context, evento *EvtS1010) error {
	const query = `
		INSERT INTO evt_s1010 (
			id, empresa_id, xml_id, xml_version, tp_amb, proc_emi, ver_proc,
			emp_tp_insc, emp_nr_insc, rub_operation_type, rub_cod_rubr,
			rub_ide_tab_rubr, rub_ini_valid, rub_fim_valid, rub_dsc_rubr,
			rub_nat_rubr, rub_tp_rubr, rub_cod_inc_cp, rub_cod_inc_irrf,
			rub_cod_inc_fgts, rub_cod_inc_sind, rec_tp_amb, rec_dh_recepcao,
			rec_versao_app_recepcao, rec_protocolo_envio, rec_cd_resposta,
			rec_desc_resposta, rec_dh_processamento, rec_nr_recibo, rec_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		          $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		          $27, $28, $29, $30)`

	_, err := s.db.ExecContext(ctx, query,
		evento.ID, evento.EmpresaID, evento.XMLID, evento.XMLVersion,
		evento.TpAmb, evento.ProcEmi, evento.VerProc,
		evento.EmpTpInsc, evento.EmpNrInsc, evento.OperationType, evento.CodRubr,
		evento.IdeTabRubr, evento.IniValid, nullString(evento.FimValid), evento.DscRubr,
		evento.NatRubr, evento.TpRubr, evento.CodIncCP, evento.CodIncIRRF,
		evento.CodIncFGTS, evento.CodIncSIND, evento.RecTpAmb, evento.RecDhRecepcao,
		evento.RecVersaoAppRecepcao, evento.RecProtocoloEnvio, evento.RecCdResposta,
		evento.RecDescResposta, evento.RecDhProcessamento, evento.RecNrRecibo, evento.RecHash)
	if err != nil {
		return fmt.Errorf("insert evt_s1010: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindEvtS1010Aberto(ctx context.Context, empresaID uuid.UUID, codRubr string) (*EvtS1010, error) {
	const query = `
		SELECT id, empresa_id, rub_cod_rubr, rub_ini_valid, COALESCE(rub_fim_valid, ''), rub_operation_type
		FROM evt_s1010
		WHERE empresa_id = $1 AND rub_cod_rubr = $2 AND rub_fim_valid IS NULL
		ORDER BY rub_ini_valid DESC
		LIMIT 1`

	var evento EvtS1010
	err := s.db.QueryRowContext(ctx, query, empresaID, codRubr).Scan(
		&evento.ID, &evento.EmpresaID, &evento.CodRubr, &evento.IniValid,
		&evento.FimValid, &evento.OperationType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find open evt_s1010: %w", err)
	}
	return &evento, nil
}

func (s *PostgresStore) EncerrarVigenciaEvtS1010(ctx context.Context, id uuid.UUID, fimValid string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE evt_s1010 SET rub_fim_valid = $2 WHERE id = $1`, id, fimValid)
	if err != nil {
		return fmt.Errorf("close evt_s1010 validity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindColaboradorByCPF(ctx context.Context, empresaID uuid.UUID, cpf string) (*Colaborador, error) {
	const query = `
		SELECT id, empresa_id, cpf, nome, matricula, created_at
		FROM colaboradores
		WHERE empresa_id = $1 AND cpf = $2`

	var c Colaborador
	err := s.db.QueryRowContext(ctx, query, empresaID, cpf).Scan(
		&c.ID, &c.EmpresaID, &c.CPF, &c.Nome, &c.Matricula, &c.CriadoEm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find colaborador: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateColaborador(ctx context.Context, colaborador *Colaborador) error {
	const query = `
		INSERT INTO colaboradores (id, empresa_id, cpf, nome, matricula)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query, colaborador.ID, colaborador.EmpresaID,
		colaborador.CPF, colaborador.Nome, colaborador.Matricula)
	if err != nil {
		return fmt.Errorf("create colaborador: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindRemuneracao(ctx context.Context, colaboradorID uuid.UUID, competencia string) (*Remuneracao, error) {
	const query = `
		SELECT id, empresa_id, colaborador_id, COALESCE(importacao_id, '00000000-0000-0000-0000-000000000000'),
		       competencia, valor_bruto, valor_descontos, valor_liquido,
		       base_inss, base_irrf, base_fgts, created_at
		FROM remuneracoes
		WHERE colaborador_id = $1 AND competencia = $2`

	var r Remuneracao
	err := s.db.QueryRowContext(ctx, query, colaboradorID, competencia).Scan(
		&r.ID, &r.EmpresaID, &r.ColaboradorID, &r.ImportacaoID, &r.Competencia,
		&r.ValorBruto, &r.ValorDescontos, &r.ValorLiquido,
		&r.BaseINSS, &r.BaseIRRF, &r.BaseFGTS, &r.CriadoEm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find remuneracao: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) CreateRemuneracao(ctx context.Context, remuneracao *Remuneracao) error {
	const query = `
		INSERT INTO remuneracoes (id, empresa_id, colaborador_id, importacao_id, competencia,
		                          valor_bruto, valor_descontos, valor_liquido,
		                          base_inss, base_irrf, base_fgts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query, remuneracao.ID, remuneracao.EmpresaID,
		remuneracao.ColaboradorID, nullUUID(remuneracao.ImportacaoID), remuneracao.Competencia,
		remuneracao.ValorBruto, remuneracao.ValorDescontos, remuneracao.ValorLiquido,
		remuneracao.BaseINSS, remuneracao.BaseIRRF, remuneracao.BaseFGTS)
	if err != nil {
		return fmt.Errorf("create remuneracao: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateRemuneracao(ctx context.Context, remuneracao *Remuneracao) error {
	const query = `
		UPDATE remuneracoes SET
			importacao_id = $2,
			valor_bruto = $3,
			valor_descontos = $4,
			valor_liquido = $5,
			base_inss = $6,
			base_irrf = $7,
			base_fgts = $8
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, remuneracao.ID, nullUUID(remuneracao.ImportacaoID),
		remuneracao.ValorBruto, remuneracao.ValorDescontos, remuneracao.ValorLiquido,
		remuneracao.BaseINSS, remuneracao.BaseIRRF, remuneracao.BaseFGTS)
	if err != nil {
		return fmt.Errorf("update remuneracao: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListRemuneracoes(ctx context.Context, empresaID uuid.UUID, competencia string) ([]Remuneracao, error) {
	query := `
		SELECT id, empresa_id, colaborador_id, COALESCE(importacao_id, '00000000-0000-0000-0000-000000000000'),
		       competencia, valor_bruto, valor_descontos, valor_liquido,
		       base_inss, base_irrf, base_fgts, created_at
		FROM remuneracoes
		WHERE empresa_id = $1`
	args := []any{empresaID}
	if competencia != "" {
		query += ` AND competencia = $2`
		args = append(args, competencia)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list remuneracoes: %w", err)
	}
	defer rows.Close()

	var remuneracoes []Remuneracao
	for rows.Next() {
		var r Remuneracao
		if err := rows.Scan(&r.ID, &r.EmpresaID, &r.ColaboradorID, &r.ImportacaoID,
			&r.Competencia, &r.ValorBruto, &r.ValorDescontos, &r.ValorLiquido,
			&r.BaseINSS, &r.BaseIRRF, &r.BaseFGTS, &r.CriadoEm); err != nil {
			return nil, fmt.Errorf("scan remuneracao: %w", err)
		}
		remuneracoes = append(remuneracoes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate remuneracoes: %w", err)
	}
	return remuneracoes, nil
}

func (s *PostgresStore) DeleteItens(ctx context.Context, remuneracaoID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM itens_remuneracao WHERE remuneracao_id = $1`, remuneracaoID); err != nil {
		return fmt.Errorf("delete itens: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertItem(ctx context.Context, item *ItemRemuneracao) error {
	const query = `
		INSERT INTO itens_remuneracao (id, remuneracao_id, rubrica_id, codigo_rubrica,
		                               descricao, natureza, referencia, valor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var rubricaID any
	if item.RubricaID != nil {
		rubricaID = *item.RubricaID
	}
	_, err := s.db.ExecContext(ctx, query, item.ID, item.RemuneracaoID, rubricaID,
		item.CodigoRubrica, item.Descricao, item.Natureza, item.Referencia, item.Valor)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListItens(ctx context.Context, remuneracaoID uuid.UUID) ([]ItemRemuneracao, error) {
	const query = `
		SELECT id, remuneracao_id, rubrica_id, codigo_rubrica, descricao, natureza, referencia, valor
		FROM itens_remuneracao
		WHERE remuneracao_id = $1`

	rows, err := s.db.QueryContext(ctx, query, remuneracaoID)
	if err != nil {
		return nil, fmt.Errorf("list itens: %w", err)
	}
	defer rows.Close()

	var itens []ItemRemuneracao
	for rows.Next() {
		var item ItemRemuneracao
		var rubricaID uuid.NullUUID
		if err := rows.Scan(&item.ID, &item.RemuneracaoID, &rubricaID, &item.CodigoRubrica,
			&item.Descricao, &item.Natureza, &item.Referencia, &item.Valor); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if rubricaID.Valid {
			id := rubricaID.UUID
			item.RubricaID = &id
		}
		itens = append(itens, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate itens: %w", err)
	}
	return itens, nil
}

func (s *PostgresStore) SumProventosPorRubrica(ctx context.Context, empresaID uuid.UUID, codigoRubrica, competenciaInicio, competenciaFim string) (float64, error) {
	const query = `
		SELECT COALESCE(SUM(i.valor), 0)
		FROM itens_remuneracao i
		JOIN remuneracoes r ON r.id = i.remuneracao_id
		WHERE r.empresa_id = $1
		  AND i.codigo_rubrica = $2
		  AND i.natureza = 'provento'
		  AND r.competencia >= $3
		  AND r.competencia <= $4`

	var total float64
	err := s.db.QueryRowContext(ctx, query, empresaID, codigoRubrica, competenciaInicio, competenciaFim).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum proventos: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) CreateImportacao(ctx context.Context, importacao *Importacao) error {
	const query = `
		INSERT INTO importacoes (id, empresa_id, tipo_evento, nome_arquivo, competencia,
		                         status, registros_processados, erros,
		                         arquivo_origem_zip, caminho_no_zip, tabela_destino)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query, importacao.ID, importacao.EmpresaID,
		importacao.TipoEvento, importacao.NomeArquivo, nullString(importacao.Competencia),
		importacao.Status, importacao.RegistrosProcessados, pq.Array(importacao.Erros),
		nullString(importacao.ArquivoOrigemZip), nullString(importacao.CaminhoNoZip),
		nullString(importacao.TabelaDestino))
	if err != nil {
		return fmt.Errorf("create importacao: %w", err)
	}
	return nil
}

func (s *PostgresStore) FinishImportacao(ctx context.Context, id uuid.UUID, status string, registros int, erros []string) error {
	const query = `
		UPDATE importacoes
		SET status = $2, registros_processados = $3, erros = $4
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, id, status, registros, pq.Array(erros))
	if err != nil {
		return fmt.Errorf("finish importacao: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListImportacoes(ctx context.Context, empresaID uuid.UUID, limit int) ([]Importacao, error) {
	const query = `
		SELECT id, empresa_id, tipo_evento, nome_arquivo, COALESCE(competencia, ''),
		       status, registros_processados, erros,
		       COALESCE(arquivo_origem_zip, ''), COALESCE(caminho_no_zip, ''),
		       COALESCE(tabela_destino, ''), created_at
		FROM importacoes
		WHERE empresa_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, empresaID, limit)
	if err != nil {
		return nil, fmt.Errorf("list importacoes: %w", err)
	}
	defer rows.Close()

	var importacoes []Importacao
	for rows.Next() {
		var imp Importacao
		if err := rows.Scan(&imp.ID, &imp.EmpresaID, &imp.TipoEvento, &imp.NomeArquivo,
			&imp.Competencia, &imp.Status, &imp.RegistrosProcessados, pq.Array(&imp.Erros),
			&imp.ArquivoOrigemZip, &imp.CaminhoNoZip, &imp.TabelaDestino, &imp.CriadoEm); err != nil {
			return nil, fmt.Errorf("scan importacao: %w", err)
		}
		importacoes = append(importacoes, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate importacoes: %w", err)
	}
	return importacoes, nil
}

func (s *PostgresStore) UpsertApuracao(ctx context.Context, apuracao *Apuracao) error {
	const query = `
		INSERT INTO apuracoes (empresa_id, competencia,
		                       total_bruto_original, total_bruto_recalculado,
		                       total_inss_original, total_inss_recalculado,
		                       total_irrf_original, total_irrf_recalculado,
		                       total_fgts_original, total_fgts_recalculado,
		                       total_divergencias)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (empresa_id, competencia) DO UPDATE SET
			total_bruto_original = EXCLUDED.total_bruto_original,
			total_bruto_recalculado = EXCLUDED.total_bruto_recalculado,
			total_inss_original = EXCLUDED.total_inss_original,
			total_inss_recalculado = EXCLUDED.total_inss_recalculado,
			total_irrf_original = EXCLUDED.total_irrf_original,
			total_irrf_recalculado = EXCLUDED.total_irrf_recalculado,
			total_fgts_original = EXCLUDED.total_fgts_original,
			total_fgts_recalculado = EXCLUDED.total_fgts_recalculado,
			total_divergencias = EXCLUDED.total_divergencias`

	_, err := s.db.ExecContext(ctx, query, apuracao.EmpresaID, apuracao.Competencia,
		apuracao.TotalBrutoOriginal, apuracao.TotalBrutoRecalculado,
		apuracao.TotalINSSOriginal, apuracao.TotalINSSRecalculado,
		apuracao.TotalIRRFOriginal, apuracao.TotalIRRFRecalculado,
		apuracao.TotalFGTSOriginal, apuracao.TotalFGTSRecalculado,
		apuracao.TotalDivergencias)
	if err != nil {
		return fmt.Errorf("upsert apuracao: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateApuracaoDivergencias(ctx context.Context, empresaID uuid.UUID, competencia string, total int) error {
	const query = `
		UPDATE apuracoes SET total_divergencias = $3
		WHERE empresa_id = $1 AND competencia = $2`

	if _, err := s.db.ExecContext(ctx, query, empresaID, competencia, total); err != nil {
		return fmt.Errorf("update apuracao divergencias: %w", err)
	}
	return nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
