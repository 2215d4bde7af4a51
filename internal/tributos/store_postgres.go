package tributos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"auditafolha/pkg/platform/sentinel"
)

// PostgresStore reads the configured vigências. Rows with empresa_id are
// tenant overrides reserved for future use; resolution reads the global rows.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LatestVigencia(ctx context.Context, ano int) (*Vigencia, error) {
	const query = `
		SELECT vigencia_ano, vigencia_mes, salario_minimo, teto_inss, aliquota_fgts,
		       deducao_dependente_irrf, aliquota_inss_patronal, aliquota_rat, aliquota_terceiros
		FROM parametros_sistema
		WHERE empresa_id IS NULL AND vigencia_ano <= $1
		ORDER BY vigencia_ano DESC, vigencia_mes DESC
		LIMIT 1`

	var v Vigencia
	err := s.db.QueryRowContext(ctx, query, ano).Scan(
		&v.Ano, &v.Mes,
		&v.Parametros.SalarioMinimo, &v.Parametros.TetoINSS, &v.Parametros.AliquotaFGTS,
		&v.Parametros.DeducaoDependenteIRRF, &v.Parametros.AliquotaINSSPatronal,
		&v.Parametros.AliquotaRAT, &v.Parametros.AliquotaTerceiros)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load vigencia: %w", err)
	}
	return &v, nil
}

func (s *PostgresStore) ListFaixasINSS(ctx context.Context, ano, mes int) ([]FaixaINSS, error) {
	const query = `
		SELECT valor_limite, aliquota
		FROM faixas_inss
		WHERE empresa_id IS NULL AND vigencia_ano = $1 AND vigencia_mes = $2
		ORDER BY ordem`

	rows, err := s.db.QueryContext(ctx, query, ano, mes)
	if err != nil {
		return nil, fmt.Errorf("list faixas inss: %w", err)
	}
	defer rows.Close()

	var faixas []FaixaINSS
	for rows.Next() {
		var f FaixaINSS
		if err := rows.Scan(&f.Limite, &f.Aliquota); err != nil {
			return nil, fmt.Errorf("scan faixa inss: %w", err)
		}
		faixas = append(faixas, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faixas inss: %w", err)
	}
	return faixas, nil
}

func (s *PostgresStore) ListFaixasIRRF(ctx context.Context, ano, mes int) ([]FaixaIRRF, error) {
	const query = `
		SELECT valor_limite, aliquota, valor_deducao
		FROM faixas_irrf
		WHERE empresa_id IS NULL AND vigencia_ano = $1 AND vigencia_mes = $2
		ORDER BY ordem`

	rows, err := s.db.QueryContext(ctx, query, ano, mes)
	if err != nil {
		return nil, fmt.Errorf("list faixas irrf: %w", err)
	}
	defer rows.Close()

	var faixas []FaixaIRRF
	for rows.Next() {
		var f FaixaIRRF
		var limite sql.NullFloat64
		if err := rows.Scan(&limite, &f.Aliquota, &f.Deducao); err != nil {
			return nil, fmt.Errorf("scan faixa irrf: %w", err)
		}
		// the top bracket is stored with a NULL ceiling
		f.Limite = math.Inf(1)
		if limite.Valid {
			f.Limite = limite.Float64
		}
		faixas = append(faixas, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faixas irrf: %w", err)
	}
	return faixas, nil
}
