package esocial

import "errors"

// ErrEventoSemID marks event files whose envelope carries no Id attribute.
var ErrEventoSemID = errors.New("identificador do evento não encontrado no XML")

// EventoS1010 carries every field persisted from a complete S-1010 event,
// including the transmission receipt when the file is a processed return.
// String fields are empty and numeric fields zero when the source element is
// absent.
type EventoS1010 struct {
	XMLID      string
	XMLVersion string

	TpAmb   int
	ProcEmi int
	VerProc string

	EmpTpInsc int
	EmpNrInsc string

	OperationType string
	CodRubr       string
	IdeTabRubr    string
	IniValid      string
	FimValid      string

	DscRubr    string
	NatRubr    int
	TpRubr     int
	CodIncCP   int
	CodIncIRRF int
	CodIncFGTS int
	CodIncSIND int

	RecTpAmb             int
	RecDhRecepcao        string
	RecVersaoAppRecepcao string
	RecProtocoloEnvio    string
	RecCdResposta        int
	RecDescResposta      string
	RecDhProcessamento   string
	RecNrRecibo          string
	RecHash              string
}

// Operation types of table events.
const (
	OperacaoInclusao  = "inclusao"
	OperacaoAlteracao = "alteracao"
	OperacaoExclusao  = "exclusao"
)

// ExtractXMLID returns the Id attribute that identifies the event inside the
// eSocial envelope: the first non-Signature child of the root carrying one,
// or a direct child of that element. Returns "" when no Id is present or the
// document is malformed.
func ExtractXMLID(content string) string {
	root, err := Parse(content)
	if err != nil {
		return ""
	}

	for _, child := range root.Children() {
		if child.Name() == "Signature" {
			continue
		}
		if id := child.Attr("Id"); id != "" {
			return id
		}
		for _, sub := range child.Children() {
			if id := sub.Attr("Id"); id != "" {
				return id
			}
		}
	}
	return ""
}

// ParseS1010Completo extracts the full S-1010 event record used at ingestion
// time: operation type, validity window, employer registration and receipt
// block. Unlike ParseS1010 it requires the event Id to be present.
func ParseS1010Completo(content string) (*EventoS1010, error) {
	root, err := Parse(content)
	if err != nil {
		return nil, err
	}

	xmlID := ExtractXMLID(content)
	if xmlID == "" {
		return nil, ErrEventoSemID
	}

	evento := &EventoS1010{
		XMLID:      xmlID,
		XMLVersion: orDefault(root.Attr("xmlns"), "1.0"),
	}

	if ideEvento := root.First("ideEvento"); ideEvento != nil {
		evento.TpAmb = int(ideEvento.Number("tpAmb"))
		evento.ProcEmi = int(ideEvento.Number("procEmi"))
		evento.VerProc = ideEvento.Text("verProc")
	}
	if ideEmpregador := root.First("ideEmpregador"); ideEmpregador != nil {
		evento.EmpTpInsc = int(ideEmpregador.Number("tpInsc"))
		evento.EmpNrInsc = ideEmpregador.Text("nrInsc")
	}

	var operacao *Node
	switch {
	case root.First("inclusao") != nil:
		evento.OperationType = OperacaoInclusao
		operacao = root.First("inclusao")
	case root.First("alteracao") != nil:
		evento.OperationType = OperacaoAlteracao
		operacao = root.First("alteracao")
	case root.First("exclusao") != nil:
		evento.OperationType = OperacaoExclusao
		operacao = root.First("exclusao")
	}

	if ide := operacao.First("ideRubrica"); ide != nil {
		evento.CodRubr = ide.Text("codRubr")
		evento.IdeTabRubr = ide.Text("ideTabRubr")
		evento.IniValid = ide.Text("iniValid")
		evento.FimValid = ide.Text("fimValid")
	}
	if dados := operacao.First("dadosRubrica"); dados != nil {
		evento.DscRubr = dados.Text("dscRubr")
		evento.NatRubr = int(dados.Number("natRubr"))
		evento.TpRubr = int(dados.Number("tpRubr"))
		evento.CodIncCP = int(dados.Number("codIncCP"))
		evento.CodIncIRRF = int(dados.Number("codIncIRRF"))
		evento.CodIncFGTS = int(dados.Number("codIncFGTS"))
		evento.CodIncSIND = int(dados.Number("codIncSIND"))
	}

	if retorno := root.First("retornoEvento"); retorno != nil {
		evento.RecTpAmb = int(retorno.Number("tpAmb"))
		evento.RecDhRecepcao = retorno.Text("dhRecepcao")
		evento.RecVersaoAppRecepcao = retorno.Text("versaoAppRecepcao")
		evento.RecProtocoloEnvio = retorno.Text("protocoloEnvio")
		evento.RecCdResposta = int(retorno.Number("cdResposta"))
		evento.RecDescResposta = retorno.Text("descResposta")
		evento.RecDhProcessamento = retorno.Text("dhProcessamento")
	}
	if recibo := root.First("Recibo"); recibo != nil {
		evento.RecNrRecibo = recibo.Text("nrRecibo")
		evento.RecHash = recibo.Text("hash")
	}

	return evento, nil
}
