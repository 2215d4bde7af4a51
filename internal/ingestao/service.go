// Package ingestao receives eSocial files, routes each one to its event
// processor and persists what they carry: S-1010 rubric table events with
// their validity windows and S-1200 remunerations with their line items.
// ZIP batches are expanded before routing.
package ingestao

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"auditafolha/internal/esocial"
	"auditafolha/internal/esocial/router"
	"auditafolha/internal/folha"
	"auditafolha/internal/ingestao/metrics"
	"auditafolha/pkg/periodo"
	"auditafolha/pkg/platform/audit"
	"auditafolha/pkg/platform/sentinel"
)

// Arquivo is one uploaded file, XML or ZIP.
type Arquivo struct {
	Nome     string
	Conteudo []byte
}

// FileResult reports the outcome of one processed XML.
type FileResult struct {
	Sucesso      bool     `json:"sucesso"`
	Mensagem     string   `json:"mensagem"`
	Registros    int      `json:"registros"`
	TipoEvento   string   `json:"tipo_evento,omitempty"`
	DestinoSQL   string   `json:"destino_sql,omitempty"`
	XMLID        string   `json:"xml_id,omitempty"`
	Avisos       []string `json:"avisos,omitempty"`
	CaminhoNoZip string   `json:"caminho_no_zip,omitempty"`
}

// UnsupportedFile reports an XML whose event the system recognizes but does
// not process.
type UnsupportedFile struct {
	NomeArquivo  string `json:"nome_arquivo"`
	CaminhoNoZip string `json:"caminho_no_zip,omitempty"`
	TipoEvento   string `json:"tipo_evento"`
	Descricao    string `json:"descricao"`
}

// BatchResult is the outcome of one upload batch.
type BatchResult struct {
	Resultados    []FileResult      `json:"resultados"`
	NaoSuportados []UnsupportedFile `json:"nao_suportados,omitempty"`
	TotalArquivos int               `json:"total_arquivos"`
}

// Roteador resolves which event an XML carries and where it lands.
type Roteador interface {
	Route(ctx context.Context, conteudoXML string) router.RouteResult
}

// DivergenciaCounter is the slice of the audit store the importer needs to
// refresh apuração divergence counts.
type DivergenciaCounter interface {
	CountDivergenciasDasRemuneracoes(ctx context.Context, empresaID uuid.UUID, remuneracaoIDs []uuid.UUID) (int, error)
}

// Service runs the import pipeline.
type Service struct {
	store     folha.Store
	contador  DivergenciaCounter
	roteador  Roteador
	publisher *audit.Publisher
	log       *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(store folha.Store, contador DivergenciaCounter, roteador Roteador, publisher *audit.Publisher, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:     store,
		contador:  contador,
		roteador:  roteador,
		publisher: publisher,
		log:       log,
		metrics:   m,
	}
}

// unidade is one XML ready for routing, with its ZIP provenance when it came
// from a batch.
type unidade struct {
	nome         string
	conteudo     string
	arquivoZip   string
	caminhoNoZip string
}

// Process expands, routes and persists an upload batch. Per-file failures
// land in the batch result; only infrastructure failures abort the batch.
func (s *Service) Process(ctx context.Context, empresaID uuid.UUID, arquivos []Arquivo) (*BatchResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBatchLatency(time.Since(start)) }()

	result := &BatchResult{}
	var unidades []unidade

	for _, arquivo := range arquivos {
		if esocial.IsZipFile(arquivo.Nome) {
			extracao, err := esocial.ExtractZip(arquivo.Conteudo, nil)
			if err != nil {
				result.Resultados = append(result.Resultados, FileResult{
					Mensagem: fmt.Sprintf("%s: %v", arquivo.Nome, err),
				})
				continue
			}
			for _, xml := range extracao.XMLFiles {
				unidades = append(unidades, unidade{
					nome:         xml.Name,
					conteudo:     xml.Content,
					arquivoZip:   arquivo.Nome,
					caminhoNoZip: xml.Path,
				})
			}
			continue
		}
		unidades = append(unidades, unidade{
			nome:     arquivo.Nome,
			conteudo: esocial.DecodeXMLText(arquivo.Conteudo),
		})
	}

	result.TotalArquivos = len(unidades)

	for _, u := range unidades {
		s.processUnidade(ctx, empresaID, u, result)
	}

	s.log.Info("lote processado",
		"empresa_id", empresaID,
		"arquivos", result.TotalArquivos,
		"nao_suportados", len(result.NaoSuportados),
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

func (s *Service) processUnidade(ctx context.Context, empresaID uuid.UUID, u unidade, result *BatchResult) {
	rota := s.roteador.Route(ctx, u.conteudo)

	if !rota.Sucesso {
		tipo := esocial.DetectEventType(u.conteudo)
		if !esocial.IsEventSupported(tipo) {
			result.NaoSuportados = append(result.NaoSuportados, UnsupportedFile{
				NomeArquivo:  u.nome,
				CaminhoNoZip: u.caminhoNoZip,
				TipoEvento:   tipo,
				Descricao:    esocial.EventDescription(tipo),
			})
			s.metrics.IncrementArquivo(tipo, "nao_suportado")
			return
		}
		result.Resultados = append(result.Resultados, FileResult{
			Mensagem:     fmt.Sprintf("%s: %s", u.nome, rota.Erro),
			CaminhoNoZip: u.caminhoNoZip,
		})
		s.metrics.IncrementArquivo(tipo, "erro")
		return
	}

	var fr FileResult
	switch rota.EventoESocial {
	case esocial.EventS1010:
		fr = s.processS1010(ctx, empresaID, u, rota.DestinoSQL)
		fr.TipoEvento = esocial.EventS1010
		fr.DestinoSQL = rota.DestinoSQL
	case esocial.EventS1200:
		fr = s.processS1200(ctx, empresaID, u)
		fr.TipoEvento = esocial.EventS1200
	default:
		result.NaoSuportados = append(result.NaoSuportados, UnsupportedFile{
			NomeArquivo:  u.nome,
			CaminhoNoZip: u.caminhoNoZip,
			TipoEvento:   rota.EventoESocial,
			Descricao:    fmt.Sprintf("Evento %s não implementado", rota.EventoESocial),
		})
		s.metrics.IncrementArquivo(rota.EventoESocial, "nao_suportado")
		return
	}

	fr.CaminhoNoZip = u.caminhoNoZip
	result.Resultados = append(result.Resultados, fr)

	status := "erro"
	acao := audit.EventArquivoRejeitado
	if fr.Sucesso {
		status = "sucesso"
		acao = audit.EventArquivoImportado
	}
	s.metrics.IncrementArquivo(fr.TipoEvento, status)
	s.publica(ctx, audit.Event{
		EmpresaID: empresaID,
		Action:    string(acao),
		Subject:   u.nome,
		Detail:    fr.Mensagem,
	})
}

// processS1010 persists one rubric table event. An inclusion whose code
// already has an open validity window either closes that window at the
// previous month or, if it does not start after the open one, is rejected.
func (s *Service) processS1010(ctx context.Context, empresaID uuid.UUID, u unidade, destino string) FileResult {
	evento, err := esocial.ParseS1010Completo(u.conteudo)
	if err != nil {
		return FileResult{Mensagem: fmt.Sprintf("%s: Erro ao processar XML", u.nome)}
	}

	if destino == "" {
		destino = "evt_s1010"
	}
	importacao := folha.Importacao{
		ID:               uuid.New(),
		EmpresaID:        empresaID,
		TipoEvento:       esocial.EventS1010,
		NomeArquivo:      u.nome,
		Status:           folha.StatusProcessing,
		ArquivoOrigemZip: u.arquivoZip,
		CaminhoNoZip:     u.caminhoNoZip,
		TabelaDestino:    destino,
	}
	if err := s.store.CreateImportacao(ctx, &importacao); err != nil {
		return FileResult{Mensagem: fmt.Sprintf("%s: %v", u.nome, err)}
	}

	var avisos []string
	procErr := s.aplicarS1010(ctx, empresaID, u.nome, evento, &avisos)

	status := folha.StatusSuccess
	registros := 1
	var erros []string
	if procErr != nil {
		status = folha.StatusError
		registros = 0
		erros = []string{procErr.Error()}
	}
	if err := s.store.FinishImportacao(ctx, importacao.ID, status, registros, erros); err != nil {
		s.log.Error("falha ao finalizar importação", "importacao_id", importacao.ID, "error", err)
	}

	if procErr != nil {
		return FileResult{Mensagem: fmt.Sprintf("%s: %v", u.nome, procErr), XMLID: evento.XMLID}
	}
	return FileResult{
		Sucesso:   true,
		Mensagem:  fmt.Sprintf("%s: Rubrica importada", u.nome),
		Registros: 1,
		XMLID:     evento.XMLID,
		Avisos:    avisos,
	}
}

func (s *Service) aplicarS1010(ctx context.Context, empresaID uuid.UUID, nome string, evento *esocial.EventoS1010, avisos *[]string) error {
	if evento.OperationType == esocial.OperacaoInclusao {
		aberto, err := s.store.FindEvtS1010Aberto(ctx, empresaID, evento.CodRubr)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			// first occurrence of the code
		case err != nil:
			return fmt.Errorf("consultar vigência aberta: %w", err)
		default:
			if periodo.Compare(evento.IniValid, aberto.IniValid) <= 0 {
				return errors.New("Evento S-1010 com data de início anterior a um registro já existente")
			}
			fim := periodo.Previous(evento.IniValid)
			if err := s.store.EncerrarVigenciaEvtS1010(ctx, aberto.ID, fim); err != nil {
				return fmt.Errorf("encerrar vigência anterior: %w", err)
			}
			*avisos = append(*avisos, "Importação realizou o encerramento de vigência de rubrica com código já existente")
			s.publica(ctx, audit.Event{
				EmpresaID: empresaID,
				Action:    string(audit.EventVigenciaEncerrada),
				Subject:   evento.CodRubr,
				Detail:    fmt.Sprintf("vigência encerrada em %s pelo arquivo %s", fim, nome),
			})
		}
	}

	registro := folha.EvtS1010{
		ID:          uuid.New(),
		EmpresaID:   empresaID,
		EventoS1010: *evento,
	}
	if err := s.store.InsertEvtS1010(ctx, &registro); err != nil {
		return fmt.Errorf("gravar evento: %w", err)
	}

	if evento.OperationType != esocial.OperacaoExclusao {
		if err := s.registrarRubrica(ctx, empresaID, evento); err != nil {
			return fmt.Errorf("registrar rubrica: %w", err)
		}
	}
	return nil
}

// registrarRubrica projects the event into the rubricas table the audit
// engine reads.
func (s *Service) registrarRubrica(ctx context.Context, empresaID uuid.UUID, evento *esocial.EventoS1010) error {
	rubrica := folha.Rubrica{
		ID:        uuid.New(),
		EmpresaID: empresaID,
		Codigo:    evento.CodRubr,
		Descricao: evento.DscRubr,
		Natureza:  naturezaDoTipo(evento.TpRubr),
		Tipo:      fmt.Sprintf("%d", evento.NatRubr),
		IncidINSS: fmt.Sprintf("%02d", evento.CodIncCP),
		IncidIRRF: fmt.Sprintf("%02d", evento.CodIncIRRF),
		IncidFGTS: fmt.Sprintf("%02d", evento.CodIncFGTS),
	}
	return s.store.UpsertRubrica(ctx, &rubrica)
}

func naturezaDoTipo(tpRubr int) string {
	switch tpRubr {
	case 2:
		return "desconto"
	case 3:
		return "informativo"
	case 4:
		return "informativo_dedutora"
	default:
		return "provento"
	}
}

// processS1200 persists every remuneration of one periodic event. Worker
// level failures accumulate; the import finishes partial instead of
// aborting.
func (s *Service) processS1200(ctx context.Context, empresaID uuid.UUID, u unidade) FileResult {
	remuneracoes, err := esocial.ParseS1200(u.conteudo)
	if err != nil || len(remuneracoes) == 0 {
		return FileResult{Mensagem: fmt.Sprintf("%s: Nenhuma remuneração encontrada", u.nome)}
	}

	competencia := remuneracoes[0].Competencia

	importacao := folha.Importacao{
		ID:               uuid.New(),
		EmpresaID:        empresaID,
		TipoEvento:       esocial.EventS1200,
		NomeArquivo:      u.nome,
		Competencia:      competencia,
		Status:           folha.StatusProcessing,
		ArquivoOrigemZip: u.arquivoZip,
		CaminhoNoZip:     u.caminhoNoZip,
	}
	if err := s.store.CreateImportacao(ctx, &importacao); err != nil {
		return FileResult{Mensagem: fmt.Sprintf("%s: %v", u.nome, err)}
	}

	rubricas, err := s.store.ListRubricas(ctx, empresaID)
	if err != nil {
		return FileResult{Mensagem: fmt.Sprintf("%s: %v", u.nome, err)}
	}
	porCodigo := make(map[string]folha.Rubrica, len(rubricas))
	for _, r := range rubricas {
		porCodigo[r.Codigo] = r
	}

	processados := 0
	var erros []string

	for _, rem := range remuneracoes {
		if err := s.gravarRemuneracao(ctx, empresaID, importacao.ID, porCodigo, rem); err != nil {
			erros = append(erros, fmt.Sprintf("Colaborador %s: %v", rem.Colaborador.CPF, err))
			continue
		}
		processados++
	}

	status := folha.StatusSuccess
	if len(erros) > 0 {
		status = folha.StatusPartial
	}
	if err := s.store.FinishImportacao(ctx, importacao.ID, status, processados, erros); err != nil {
		s.log.Error("falha ao finalizar importação", "importacao_id", importacao.ID, "error", err)
	}

	if err := s.atualizarApuracao(ctx, empresaID, competencia); err != nil {
		s.log.Error("falha ao atualizar apuração", "competencia", competencia, "error", err)
	}

	return FileResult{
		Sucesso:   len(erros) == 0,
		Mensagem:  fmt.Sprintf("%s: %d remunerações importadas", u.nome, processados),
		Registros: processados,
	}
}

func (s *Service) gravarRemuneracao(ctx context.Context, empresaID, importacaoID uuid.UUID, porCodigo map[string]folha.Rubrica, rem esocial.Remuneracao) error {
	colaborador, err := s.store.FindColaboradorByCPF(ctx, empresaID, rem.Colaborador.CPF)
	if errors.Is(err, sentinel.ErrNotFound) {
		colaborador = &folha.Colaborador{
			ID:        uuid.New(),
			EmpresaID: empresaID,
			CPF:       rem.Colaborador.CPF,
			Nome:      rem.Colaborador.Nome,
			Matricula: rem.Colaborador.Matricula,
		}
		if err := s.store.CreateColaborador(ctx, colaborador); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var valorBruto, valorDescontos float64
	var baseINSS, baseIRRF, baseFGTS float64

	for _, item := range rem.Itens {
		switch item.Natureza {
		case "provento":
			valorBruto += item.Valor
		case "desconto":
			valorDescontos += item.Valor
		}

		rubrica, ok := porCodigo[item.CodigoRubrica]
		if !ok {
			continue
		}
		if rubrica.IncidINSS != "00" {
			baseINSS += item.Valor
		}
		if rubrica.IncidIRRF != "00" {
			baseIRRF += item.Valor
		}
		if rubrica.IncidFGTS != "00" {
			baseFGTS += item.Valor
		}
	}

	registro := folha.Remuneracao{
		EmpresaID:      empresaID,
		ColaboradorID:  colaborador.ID,
		ImportacaoID:   importacaoID,
		Competencia:    rem.Competencia,
		ValorBruto:     valorBruto,
		ValorDescontos: valorDescontos,
		ValorLiquido:   valorBruto - valorDescontos,
		BaseINSS:       baseINSS,
		BaseIRRF:       baseIRRF,
		BaseFGTS:       baseFGTS,
	}

	existente, err := s.store.FindRemuneracao(ctx, colaborador.ID, rem.Competencia)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		registro.ID = uuid.New()
		if err := s.store.CreateRemuneracao(ctx, &registro); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := s.store.DeleteItens(ctx, existente.ID); err != nil {
			return err
		}
		registro.ID = existente.ID
		if err := s.store.UpdateRemuneracao(ctx, &registro); err != nil {
			return err
		}
	}

	for _, item := range rem.Itens {
		linha := folha.ItemRemuneracao{
			ID:            uuid.New(),
			RemuneracaoID: registro.ID,
			CodigoRubrica: item.CodigoRubrica,
			Descricao:     item.Descricao,
			Natureza:      item.Natureza,
			Referencia:    item.Referencia,
			Valor:         item.Valor,
		}
		if rubrica, ok := porCodigo[item.CodigoRubrica]; ok {
			id := rubrica.ID
			linha.RubricaID = &id
		}
		if err := s.store.InsertItem(ctx, &linha); err != nil {
			return err
		}
	}
	return nil
}

// atualizarApuracao recomputes the competência aggregate from every stored
// remuneração. Original and recalculated columns start equal; audits update
// the divergence count afterwards.
func (s *Service) atualizarApuracao(ctx context.Context, empresaID uuid.UUID, competencia string) error {
	remuneracoes, err := s.store.ListRemuneracoes(ctx, empresaID, competencia)
	if err != nil {
		return err
	}
	if len(remuneracoes) == 0 {
		return nil
	}

	apuracao := folha.Apuracao{
		EmpresaID:   empresaID,
		Competencia: competencia,
	}
	ids := make([]uuid.UUID, len(remuneracoes))
	for i, r := range remuneracoes {
		ids[i] = r.ID
		apuracao.TotalBrutoOriginal += r.ValorBruto
		apuracao.TotalINSSOriginal += r.BaseINSS
		apuracao.TotalIRRFOriginal += r.BaseIRRF
		apuracao.TotalFGTSOriginal += r.BaseFGTS
	}
	apuracao.TotalBrutoRecalculado = apuracao.TotalBrutoOriginal
	apuracao.TotalINSSRecalculado = apuracao.TotalINSSOriginal
	apuracao.TotalIRRFRecalculado = apuracao.TotalIRRFOriginal
	apuracao.TotalFGTSRecalculado = apuracao.TotalFGTSOriginal

	if s.contador != nil {
		total, err := s.contador.CountDivergenciasDasRemuneracoes(ctx, empresaID, ids)
		if err != nil {
			return err
		}
		apuracao.TotalDivergencias = total
	}

	return s.store.UpsertApuracao(ctx, &apuracao)
}

// Importacoes lists the employer's most recent import audit rows.
func (s *Service) Importacoes(ctx context.Context, empresaID uuid.UUID, limit int) ([]folha.Importacao, error) {
	return s.store.ListImportacoes(ctx, empresaID, limit)
}

func (s *Service) publica(ctx context.Context, event audit.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error("falha ao publicar evento de auditoria", "action", event.Action, "error", err)
	}
}
