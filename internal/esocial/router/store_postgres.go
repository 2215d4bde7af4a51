package router

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore reads routing rules from the xml_router_config table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]Config, error) {
	const query = `
		SELECT tag_xml, codigo_evento, tabela_destino, ordem_prioridade, ativo
		FROM xml_router_config
		WHERE ativo = true
		ORDER BY ordem_prioridade DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listar configuração do roteador: %w", err)
	}
	defer rows.Close()

	var configs []Config
	for rows.Next() {
		var c Config
		if err := rows.Scan(&c.TagXML, &c.CodigoEvento, &c.TabelaDestino, &c.OrdemPrioridade, &c.Ativo); err != nil {
			return nil, fmt.Errorf("ler configuração do roteador: %w", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar configuração do roteador: %w", err)
	}
	return configs, nil
}
