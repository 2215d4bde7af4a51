package auditoria

// IncidenciaAtiva reports whether an eSocial incidence code means the tax is
// collected. "00" and the empty string both mean no incidence.
func IncidenciaAtiva(codigo string) bool {
	return codigo != "00" && codigo != ""
}

// Analise is the classification of one (rubric, tax) pair.
type Analise struct {
	Tipo        string
	Justificado bool
}

// DeterminarTipoImpacto classifies a declared-vs-legal incidence pair.
// Agreement and judicially suspended mismatches are justified; an undue
// collection is an opportunity (possible credit); a missing collection is a
// risk (possible assessment).
func DeterminarTipoImpacto(clienteIncide, legalIncide, temProcesso bool) Analise {
	if clienteIncide == legalIncide {
		return Analise{Tipo: ImpactoInformativo, Justificado: true}
	}
	if temProcesso {
		return Analise{Tipo: ImpactoInformativo, Justificado: true}
	}
	if clienteIncide && !legalIncide {
		return Analise{Tipo: ImpactoOportunidade, Justificado: false}
	}
	return Analise{Tipo: ImpactoRisco, Justificado: false}
}

// Severidade grades a financial impact.
func Severidade(impacto float64) string {
	switch {
	case impacto > 10000:
		return SeveridadeAlta
	case impacto > 1000:
		return SeveridadeMedia
	default:
		return SeveridadeBaixa
	}
}
