// Package auditoria runs the divergence audit: the employer's declared
// tax-incidence codes are compared against the legal knowledge base, judicial
// suspensions override mismatches, and each confirmed mismatch is priced
// against the imported payroll.
package auditoria

import (
	"time"

	"github.com/google/uuid"
)

// Impact directions.
const (
	ImpactoRisco        = "risco"
	ImpactoOportunidade = "oportunidade"
	ImpactoInformativo  = "informativo"
)

// Affected taxes.
const (
	TributoINSSPatronal = "INSS_PATRONAL"
	TributoINSSSegurado = "INSS_SEGURADO"
	TributoINSSRAT      = "INSS_RAT"
	TributoFGTS         = "FGTS"
	TributoIRRF         = "IRRF"
	TributoMultiplo     = "MULTIPLO"
)

// Finding severities.
const (
	SeveridadeAlta  = "high"
	SeveridadeMedia = "medium"
	SeveridadeBaixa = "low"
)

// StatusPendente is the initial analysis status of every finding.
const StatusPendente = "pendente"

// SuspensaoTodos is the wildcard tributo_suspenso value covering every tax.
const SuspensaoTodos = "TODOS"

// Divergencia is one audit finding.
type Divergencia struct {
	ID                uuid.UUID  `json:"id"`
	EmpresaID         uuid.UUID  `json:"empresa_id"`
	RemuneracaoID     *uuid.UUID `json:"remuneracao_id,omitempty"`
	ItemRemuneracaoID *uuid.UUID `json:"item_remuneracao_id,omitempty"`
	Tipo              string     `json:"tipo"`
	TipoImpacto       string     `json:"tipo_impacto"`
	TributoAfetado    string     `json:"tributo_afetado"`
	NaturezaRubrica   string     `json:"natureza_rubrica,omitempty"`
	Descricao         string     `json:"descricao"`
	ValorOriginal     float64    `json:"valor_original"`
	ValorRecalculado  float64    `json:"valor_recalculado"`
	Diferenca         float64    `json:"diferenca"`
	Severidade        string     `json:"severidade"`
	FundamentoLegal   string     `json:"fundamento_legal,omitempty"`
	StatusAnalise     string     `json:"status_analise"`
	CompetenciaInicio string     `json:"competencia_inicio"`
	CompetenciaFim    string     `json:"competencia_fim"`
	CriadoEm          time.Time  `json:"created_at"`
}

// BaseConhecimento is the legal standard for one rubric nature: which taxes
// the law says it attracts, and on what grounds.
type BaseConhecimento struct {
	NaturezaRubrica    string
	DescricaoPadrao    string
	IncidINSSPadrao    string
	IncidIRRFPadrao    string
	IncidFGTSPadrao    string
	FundamentacaoLegal string
}

// ProcessoJudicial is a persisted S-1070 judicial/administrative process.
type ProcessoJudicial struct {
	ID           uuid.UUID
	EmpresaID    uuid.UUID
	NrProcesso   string
	TpProc       int
	IndSuspensao int
	CodSusp      string
	IniValid     string
	FimValid     string
}

// RubricaProcessoVinculo ties a rubric to a process that suspends collection
// of a tax (or TODOS).
type RubricaProcessoVinculo struct {
	EmpresaID       uuid.UUID
	RubricaID       uuid.UUID
	ProcessoID      uuid.UUID
	TributoSuspenso string
}

// Result is the outcome of an audit run.
type Result struct {
	Divergencias           []Divergencia `json:"divergencias"`
	TotalDivergencias      int           `json:"total_divergencias"`
	ImpactoFinanceiro      float64       `json:"impacto_financeiro"`
	TotalRisco             float64       `json:"total_risco"`
	TotalOportunidade      float64       `json:"total_oportunidade"`
	RubricasAnalisadas     int           `json:"rubricas_analisadas"`
	RubricasComDivergencia int           `json:"rubricas_com_divergencia"`
	RubricasNaoMapeadas    int           `json:"rubricas_nao_mapeadas"`
}

// PeriodRange bounds an audit to a competência interval.
type PeriodRange struct {
	CompetenciaInicio string `json:"competencia_inicio"`
	CompetenciaFim    string `json:"competencia_fim"`
}

// TributoResumo aggregates findings of one affected tax.
type TributoResumo struct {
	Risco        float64 `json:"risco"`
	Oportunidade float64 `json:"oportunidade"`
	Count        int     `json:"count"`
}

// Resumo is the employer-wide audit summary.
type Resumo struct {
	TotalRisco        float64                  `json:"total_risco"`
	TotalOportunidade float64                  `json:"total_oportunidade"`
	TotalDivergencias int                      `json:"total_divergencias"`
	PorTributo        map[string]TributoResumo `json:"por_tributo"`
}
