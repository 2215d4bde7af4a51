package esocial

// Colaborador identifies the worker a remuneration belongs to.
type Colaborador struct {
	CPF       string
	Nome      string
	Matricula string
}

// ItemRemuneracao is one detVerbas line item.
type ItemRemuneracao struct {
	CodigoRubrica   string
	Descricao       string
	Natureza        string
	NaturezaRubrica string
	Referencia      float64
	Valor           float64
}

// Remuneracao groups one worker's line items within a competência.
type Remuneracao struct {
	Colaborador Colaborador
	Competencia string
	Itens       []ItemRemuneracao
}

// ParseS1200 extracts per-worker remunerations from an S-1200 event. The
// competência comes from ideEvento>perApur. Each dmDev demonstrative resolves
// its worker through the nearest enclosing ideTrabalhador, falling back to
// the first one in the document; records without a CPF or without line items
// are dropped. Documents with no dmDev at all get a second pass over
// infoPerApur blocks carrying flat detVerbas entries.
func ParseS1200(content string) ([]Remuneracao, error) {
	root, err := Parse(content)
	if err != nil {
		return nil, err
	}

	competencia := root.First("ideEvento").Text("perApur")

	var remuneracoes []Remuneracao
	for _, dmDev := range root.All("dmDev") {
		colaborador := resolveColaborador(root, dmDev)

		var itens []ItemRemuneracao
		for _, detVerbas := range dmDev.All("detVerbas") {
			ide := detVerbas.First("ideRubrica")
			if ide == nil {
				continue
			}
			itens = append(itens, ItemRemuneracao{
				CodigoRubrica:   ide.Text("codRubr"),
				Natureza:        naturezaDescricao(ide.Text("tpRubr")),
				NaturezaRubrica: ide.Text("natRubr"),
				Referencia:      detVerbas.Number("qtdRubr"),
				Valor:           detVerbas.Number("vrRubr"),
			})
		}

		if colaborador.Matricula == "" {
			colaborador.Matricula = dmDev.Text("ideDmDev")
		}
		if len(itens) > 0 && colaborador.CPF != "" {
			remuneracoes = append(remuneracoes, Remuneracao{
				Colaborador: colaborador,
				Competencia: competencia,
				Itens:       itens,
			})
		}
	}

	if len(remuneracoes) == 0 {
		remuneracoes = parseS1200Flat(root, competencia)
	}

	return remuneracoes, nil
}

func resolveColaborador(root, dmDev *Node) Colaborador {
	var colaborador Colaborador

	if parent := dmDev.Parent(); parent != nil {
		if trabalhador := parent.First("ideTrabalhador"); trabalhador != nil {
			colaborador.CPF = trabalhador.Text("cpfTrab")
			colaborador.Nome = orDefault(trabalhador.Text("nmTrab", "nome"), "Colaborador")
		}
		if perApur := parent.First("infoPerApur"); perApur != nil && perApur.First("ideEstabLot") != nil {
			colaborador.Matricula = dmDev.Text("ideDmDev")
		}
	}

	if colaborador.CPF == "" {
		if trabalhador := root.First("ideTrabalhador"); trabalhador != nil {
			colaborador.CPF = trabalhador.Text("cpfTrab")
			colaborador.Nome = orDefault(trabalhador.Text("nmTrab", "nome"), "Colaborador")
		}
	}

	return colaborador
}

// parseS1200Flat handles files where detVerbas lives directly under
// infoPerApur with inline rubric fields instead of a nested ideRubrica.
func parseS1200Flat(root *Node, competencia string) []Remuneracao {
	var colaborador Colaborador
	if trabalhador := root.First("ideTrabalhador"); trabalhador != nil {
		colaborador.CPF = trabalhador.Text("cpfTrab")
		colaborador.Nome = orDefault(trabalhador.Text("nmTrab"), "Colaborador")
	}

	var remuneracoes []Remuneracao
	for _, perApur := range root.All("infoPerApur") {
		var itens []ItemRemuneracao
		for _, detVerbas := range perApur.All("detVerbas") {
			codigo := detVerbas.Text("codRubr")
			if codigo == "" {
				continue
			}
			itens = append(itens, ItemRemuneracao{
				CodigoRubrica:   codigo,
				Natureza:        naturezaDescricao(detVerbas.Text("tpRubr")),
				NaturezaRubrica: detVerbas.Text("natRubr"),
				Referencia:      detVerbas.Number("qtdRubr"),
				Valor:           detVerbas.Number("vrRubr"),
			})
		}
		if len(itens) > 0 && colaborador.CPF != "" {
			remuneracoes = append(remuneracoes, Remuneracao{
				Colaborador: colaborador,
				Competencia: competencia,
				Itens:       itens,
			})
		}
	}
	return remuneracoes
}
