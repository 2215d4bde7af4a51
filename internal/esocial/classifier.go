package esocial

import "regexp"

// EventUnknown is the sentinel code for documents the free-text detector
// cannot place.
const EventUnknown = "unknown"

// Supported event codes. Only these two are functionally parsed; the rest of
// the table exists so unsupported uploads are reported by name instead of as
// generic errors.
const (
	EventS1010 = "S-1010"
	EventS1200 = "S-1200"
)

type eventPattern struct {
	pattern *regexp.Regexp
	code    string
}

// eventPatterns is ordered; the first match wins. Each pattern matches the
// characteristic event element name or the literal event code.
var eventPatterns = []eventPattern{
	{regexp.MustCompile(`(?i)evtTabRubrica|S-1010`), "S-1010"},
	{regexp.MustCompile(`(?i)evtRemun|S-1200`), "S-1200"},
	{regexp.MustCompile(`(?i)evtInfoEmpregador|S-1000`), "S-1000"},
	{regexp.MustCompile(`(?i)evtTabEstab|S-1005`), "S-1005"},
	{regexp.MustCompile(`(?i)evtTabLotacao|S-1020`), "S-1020"},
	{regexp.MustCompile(`(?i)evtTabCargo|S-1030`), "S-1030"},
	{regexp.MustCompile(`(?i)evtTabCarreira|S-1035`), "S-1035"},
	{regexp.MustCompile(`(?i)evtTabFuncao|S-1040`), "S-1040"},
	{regexp.MustCompile(`(?i)evtTabHorTur|S-1050`), "S-1050"},
	{regexp.MustCompile(`(?i)evtTabAmbiente|S-1060`), "S-1060"},
	{regexp.MustCompile(`(?i)evtTabProcesso|S-1070`), "S-1070"},
	{regexp.MustCompile(`(?i)evtTabOperPort|S-1080`), "S-1080"},
	{regexp.MustCompile(`(?i)evtAdmissao|S-2200`), "S-2200"},
	{regexp.MustCompile(`(?i)evtAltCadastral|S-2205`), "S-2205"},
	{regexp.MustCompile(`(?i)evtAltContratual|S-2206`), "S-2206"},
	{regexp.MustCompile(`(?i)evtCAT|S-2210`), "S-2210"},
	{regexp.MustCompile(`(?i)evtMonit|S-2220`), "S-2220"},
	{regexp.MustCompile(`(?i)evtAfastTemp|S-2230`), "S-2230"},
	{regexp.MustCompile(`(?i)evtExpRisco|S-2240`), "S-2240"},
	{regexp.MustCompile(`(?i)evtDeslig|S-2299`), "S-2299"},
	{regexp.MustCompile(`(?i)evtTSVInicio|S-2300`), "S-2300"},
	{regexp.MustCompile(`(?i)evtTSVAltContr|S-2306`), "S-2306"},
	{regexp.MustCompile(`(?i)evtTSVTermino|S-2399`), "S-2399"},
	{regexp.MustCompile(`(?i)evtCdBenPrRP|S-2400`), "S-2400"},
	{regexp.MustCompile(`(?i)evtCdBenIn|S-2405`), "S-2405"},
	{regexp.MustCompile(`(?i)evtCdBenAlt|S-2410`), "S-2410"},
	{regexp.MustCompile(`(?i)evtBenPrRP|S-2416`), "S-2416"},
	{regexp.MustCompile(`(?i)evtCdBenTerm|S-2418`), "S-2418"},
	{regexp.MustCompile(`(?i)evtReabreEvPer|S-2420`), "S-2420"},
	{regexp.MustCompile(`(?i)evtPgtos|S-1210`), "S-1210"},
	{regexp.MustCompile(`(?i)evtContratAvNP|S-1250`), "S-1250"},
	{regexp.MustCompile(`(?i)evtAqProd|S-1260`), "S-1260"},
	{regexp.MustCompile(`(?i)evtComProd|S-1270`), "S-1270"},
	{regexp.MustCompile(`(?i)evtInfoComplPer|S-1280`), "S-1280"},
	{regexp.MustCompile(`(?i)evtFechaEvPer|S-1299`), "S-1299"},
	{regexp.MustCompile(`(?i)evtExclusao|S-3000`), "S-3000"},
	{regexp.MustCompile(`(?i)evtBasesTrab|S-5001`), "S-5001"},
	{regexp.MustCompile(`(?i)evtIrrfBenef|S-5002`), "S-5002"},
	{regexp.MustCompile(`(?i)evtBasesFGTS|S-5003`), "S-5003"},
	{regexp.MustCompile(`(?i)evtCS|S-5011`), "S-5011"},
	{regexp.MustCompile(`(?i)evtTotConting|S-5012`), "S-5012"},
	{regexp.MustCompile(`(?i)evtFGTS|S-5013`), "S-5013"},
}

var eventDescriptions = map[string]string{
	"S-1000":     "Informações do Empregador",
	"S-1005":     "Tabela de Estabelecimentos",
	"S-1010":     "Tabela de Rubricas",
	"S-1020":     "Tabela de Lotações",
	"S-1030":     "Tabela de Cargos",
	"S-1035":     "Tabela de Carreiras",
	"S-1040":     "Tabela de Funções",
	"S-1050":     "Tabela de Horários",
	"S-1060":     "Tabela de Ambientes",
	"S-1070":     "Tabela de Processos Administrativos/Judiciais",
	"S-1080":     "Tabela de Operadores Portuários",
	"S-1200":     "Remuneração do Trabalhador",
	"S-1210":     "Pagamentos de Rendimentos",
	"S-1250":     "Aquisição de Produção Rural",
	"S-1260":     "Comercialização da Produção Rural",
	"S-1270":     "Contratação de Trabalhadores Avulsos",
	"S-1280":     "Informações Complementares",
	"S-1299":     "Fechamento dos Eventos Periódicos",
	"S-2200":     "Cadastramento Inicial / Admissão",
	"S-2205":     "Alteração de Dados Cadastrais",
	"S-2206":     "Alteração de Contrato de Trabalho",
	"S-2210":     "CAT",
	"S-2220":     "Monitoramento da Saúde",
	"S-2230":     "Afastamento Temporário",
	"S-2240":     "Condições Ambientais",
	"S-2299":     "Desligamento",
	"S-2300":     "TSV - Início",
	"S-2306":     "TSV - Alteração",
	"S-2399":     "TSV - Término",
	"S-2400":     "Benefício - RP",
	"S-2405":     "Benefício - Início",
	"S-2410":     "Benefício - Alteração",
	"S-2416":     "Benefício - RP",
	"S-2418":     "Benefício - Término",
	"S-2420":     "Reabertura de Eventos",
	"S-3000":     "Exclusão de Eventos",
	"S-5001":     "Bases do Trabalhador",
	"S-5002":     "IRRF Beneficiário",
	"S-5003":     "Bases de FGTS",
	"S-5011":     "Totalizador de Contribuições",
	"S-5012":     "Totalizador de Contingência",
	"S-5013":     "Totalizador de FGTS",
	EventUnknown: "Evento não identificado",
}

// DetectEventType classifies raw XML text by pattern matching. It is the
// coarse diagnostic path used to name unsupported uploads; authoritative
// dispatch goes through the structural router.
func DetectEventType(content string) string {
	for _, entry := range eventPatterns {
		if entry.pattern.MatchString(content) {
			return entry.code
		}
	}
	return EventUnknown
}

// IsEventSupported reports whether the pipeline can functionally process the
// event code.
func IsEventSupported(code string) bool {
	return code == EventS1010 || code == EventS1200
}

// EventDescription returns the human-readable name of an event code.
func EventDescription(code string) string {
	if desc, ok := eventDescriptions[code]; ok {
		return desc
	}
	return "Evento desconhecido"
}
