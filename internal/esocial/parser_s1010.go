package esocial

// Rubrica is one rubric occurrence extracted from an S-1010 table event.
// Incidence codes stay raw strings; the audit engine interprets them.
type Rubrica struct {
	Codigo    string
	Descricao string
	Natureza  string
	Tipo      string
	IncidINSS string
	IncidIRRF string
	IncidFGTS string
}

// naturezaDescricao maps the numeric tpRubr code to the domain label.
// Unrecognized codes fall back to provento, matching how the payroll
// dashboards have always displayed them.
func naturezaDescricao(codigo string) string {
	switch codigo {
	case "1":
		return "provento"
	case "2":
		return "desconto"
	case "3":
		return "informativo"
	case "4":
		return "informativo_dedutora"
	default:
		return "provento"
	}
}

// ParseS1010 extracts every rubric occurrence from an S-1010 event. Two
// layout variants circulate: flat ideRubrica/dadosRubrica sibling pairs and
// occurrences wrapped in infoRubrica blocks. A missing dadosRubrica block is
// tolerated, the descriptive fields just stay empty.
func ParseS1010(content string) ([]Rubrica, error) {
	root, err := Parse(content)
	if err != nil {
		return nil, err
	}

	ideRubricas := root.All("ideRubrica")
	dadosRubricas := root.All("dadosRubrica")

	var rubricas []Rubrica

	if len(ideRubricas) == 0 {
		for _, info := range root.All("infoRubrica") {
			ide := info.First("ideRubrica")
			dados := info.First("dadosRubrica")
			if ide == nil || dados == nil {
				continue
			}
			rubricas = append(rubricas, Rubrica{
				Codigo:    ide.Text("codRubr"),
				Descricao: dados.Text("dscRubr"),
				Natureza:  naturezaDescricao(dados.Text("tpRubr")),
				Tipo:      dados.Text("natRubr"),
				IncidINSS: orDefault(dados.Text("codIncCP"), "00"),
				IncidIRRF: orDefault(dados.Text("codIncIRRF"), "00"),
				IncidFGTS: orDefault(dados.Text("codIncFGTS"), "00"),
			})
		}
		return rubricas, nil
	}

	for i, ide := range ideRubricas {
		codigo := ide.Text("codRubr")
		if codigo == "" {
			continue
		}

		var dados *Node
		if i < len(dadosRubricas) {
			dados = dadosRubricas[i]
		}

		rubrica := Rubrica{
			Codigo:    codigo,
			Natureza:  "provento",
			IncidINSS: "00",
			IncidIRRF: "00",
			IncidFGTS: "00",
		}
		if dados != nil {
			rubrica.Descricao = dados.Text("dscRubr")
			rubrica.Tipo = dados.Text("natRubr")
			rubrica.Natureza = naturezaDescricao(orDefault(dados.Text("tpRubr"), "1"))
			rubrica.IncidINSS = dados.Text("codIncCP")
			rubrica.IncidIRRF = dados.Text("codIncIRRF")
			rubrica.IncidFGTS = dados.Text("codIncFGTS")
		}
		rubricas = append(rubricas, rubrica)
	}

	return rubricas, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
