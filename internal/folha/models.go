// Package folha holds the payroll domain: rubric tables, workers,
// remunerations and their line items, import audit rows and monthly
// aggregates. Stores are empresa-scoped; every query carries the employer id.
package folha

import (
	"time"

	"github.com/google/uuid"

	"auditafolha/internal/esocial"
)

// Import outcome statuses.
const (
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusPartial    = "partial"
	StatusError      = "error"
)

// Rubrica is the employer's declared view of a pay item: what it is and which
// taxes it says the item attracts. Tipo carries the eSocial natRubr code and
// keys the legal knowledge base.
type Rubrica struct {
	ID        uuid.UUID
	EmpresaID uuid.UUID
	Codigo    string
	Descricao string
	Natureza  string
	Tipo      string
	IncidINSS string
	IncidIRRF string
	IncidFGTS string
	CriadoEm  time.Time
}

// EvtS1010 is a persisted S-1010 event occurrence with its validity window.
// FimValid empty means the window is still open.
type EvtS1010 struct {
	ID        uuid.UUID
	EmpresaID uuid.UUID
	esocial.EventoS1010
	CriadoEm time.Time
}

// Colaborador is a worker identified by CPF within an employer.
type Colaborador struct {
	ID        uuid.UUID
	EmpresaID uuid.UUID
	CPF       string
	Nome      string
	Matricula string
	CriadoEm  time.Time
}

// Remuneracao is one worker's pay within a competência, with the totals and
// tax bases accumulated from its line items at import time.
type Remuneracao struct {
	ID             uuid.UUID
	EmpresaID      uuid.UUID
	ColaboradorID  uuid.UUID
	ImportacaoID   uuid.UUID
	Competencia    string
	ValorBruto     float64
	ValorDescontos float64
	ValorLiquido   float64
	BaseINSS       float64
	BaseIRRF       float64
	BaseFGTS       float64
	CriadoEm       time.Time
}

// ItemRemuneracao is one detVerbas line kept for drill-down and for the audit
// engine's impact base. RubricaID is nil when the code was not in the imported
// rubric table.
type ItemRemuneracao struct {
	ID            uuid.UUID
	RemuneracaoID uuid.UUID
	RubricaID     *uuid.UUID
	CodigoRubrica string
	Descricao     string
	Natureza      string
	Referencia    float64
	Valor         float64
}

// Importacao is the audit row recorded for every processed file.
type Importacao struct {
	ID                   uuid.UUID `json:"id"`
	EmpresaID            uuid.UUID `json:"empresa_id"`
	TipoEvento           string    `json:"tipo_evento"`
	NomeArquivo          string    `json:"nome_arquivo"`
	Competencia          string    `json:"competencia,omitempty"`
	Status               string    `json:"status"`
	RegistrosProcessados int       `json:"registros_processados"`
	Erros                []string  `json:"erros,omitempty"`
	ArquivoOrigemZip     string    `json:"arquivo_origem_zip,omitempty"`
	CaminhoNoZip         string    `json:"caminho_no_zip,omitempty"`
	TabelaDestino        string    `json:"tabela_destino,omitempty"`
	CriadoEm             time.Time `json:"created_at"`
}

// Apuracao is the per-competência aggregate the dashboards read. Original and
// recalculated columns start equal; the audit engine updates the divergence
// count.
type Apuracao struct {
	EmpresaID             uuid.UUID
	Competencia           string
	TotalBrutoOriginal    float64
	TotalBrutoRecalculado float64
	TotalINSSOriginal     float64
	TotalINSSRecalculado  float64
	TotalIRRFOriginal     float64
	TotalIRRFRecalculado  float64
	TotalFGTSOriginal     float64
	TotalFGTSRecalculado  float64
	TotalDivergencias     int
}
