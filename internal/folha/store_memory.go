package folha

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"auditafolha/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests and local runs
// without a database.
type MemoryStore struct {
	mu           sync.RWMutex
	rubricas     []Rubrica
	eventosS1010 []EvtS1010
	colabs       []Colaborador
	remuneracoes []Remuneracao
	itens        []ItemRemuneracao
	importacoes  []Importacao
	apuracoes    map[string]Apuracao // empresa|competencia
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{apuracoes: make(map[string]Apuracao)}
}

func (s *MemoryStore) ListRubricas(_ context.Context, empresaID uuid.UUID) ([]Rubrica, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Rubrica
	for _, r := range s.rubricas {
		if r.EmpresaID == empresaID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpsertRubrica(_ context.Context, rubrica *Rubrica) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rubricas {
		if r.EmpresaID == rubrica.EmpresaID && r.Codigo == rubrica.Codigo {
			rubrica.ID = r.ID
			s.rubricas[i] = *rubrica
			return nil
		}
	}
	s.rubricas = append(s.rubricas, *rubrica)
	return nil
}

func (s *MemoryStore) InsertEvtS1010(_ context.Context, evento *EvtS1010) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventosS1010 = append(s.eventosS1010, *evento)
	return nil
}

func (s *MemoryStore) FindEvtS1010Aberto(_ context.Context, empresaID uuid.UUID, codRubr string) (*EvtS1010, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var abertos []EvtS1010
	for _, e := range s.eventosS1010 {
		if e.EmpresaID == empresaID && e.CodRubr == codRubr && e.FimValid == "" {
			abertos = append(abertos, e)
		}
	}
	if len(abertos) == 0 {
		return nil, sentinel.ErrNotFound
	}
	sort.Slice(abertos, func(i, j int) bool { return abertos[i].IniValid > abertos[j].IniValid })
	evento := abertos[0]
	return &evento, nil
}

func (s *MemoryStore) EncerrarVigenciaEvtS1010(_ context.Context, id uuid.UUID, fimValid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.eventosS1010 {
		if s.eventosS1010[i].ID == id {
			s.eventosS1010[i].FimValid = fimValid
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *MemoryStore) FindColaboradorByCPF(_ context.Context, empresaID uuid.UUID, cpf string) (*Colaborador, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.colabs {
		if c.EmpresaID == empresaID && c.CPF == cpf {
			colaborador := c
			return &colaborador, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) CreateColaborador(_ context.Context, colaborador *Colaborador) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colabs = append(s.colabs, *colaborador)
	return nil
}

func (s *MemoryStore) FindRemuneracao(_ context.Context, colaboradorID uuid.UUID, competencia string) (*Remuneracao, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.remuneracoes {
		if r.ColaboradorID == colaboradorID && r.Competencia == competencia {
			remuneracao := r
			return &remuneracao, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) CreateRemuneracao(_ context.Context, remuneracao *Remuneracao) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remuneracoes = append(s.remuneracoes, *remuneracao)
	return nil
}

func (s *MemoryStore) UpdateRemuneracao(_ context.Context, remuneracao *Remuneracao) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.remuneracoes {
		if s.remuneracoes[i].ID == remuneracao.ID {
			s.remuneracoes[i] = *remuneracao
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *MemoryStore) ListRemuneracoes(_ context.Context, empresaID uuid.UUID, competencia string) ([]Remuneracao, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Remuneracao
	for _, r := range s.remuneracoes {
		if r.EmpresaID != empresaID {
			continue
		}
		if competencia != "" && r.Competencia != competencia {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *MemoryStore) DeleteItens(_ context.Context, remuneracaoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.itens[:0]
	for _, item := range s.itens {
		if item.RemuneracaoID != remuneracaoID {
			kept = append(kept, item)
		}
	}
	s.itens = kept
	return nil
}

func (s *MemoryStore) InsertItem(_ context.Context, item *ItemRemuneracao) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itens = append(s.itens, *item)
	return nil
}

func (s *MemoryStore) ListItens(_ context.Context, remuneracaoID uuid.UUID) ([]ItemRemuneracao, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ItemRemuneracao
	for _, item := range s.itens {
		if item.RemuneracaoID == remuneracaoID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *MemoryStore) SumProventosPorRubrica(_ context.Context, empresaID uuid.UUID, codigoRubrica, competenciaInicio, competenciaFim string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	remPorID := make(map[uuid.UUID]Remuneracao, len(s.remuneracoes))
	for _, r := range s.remuneracoes {
		remPorID[r.ID] = r
	}

	var total float64
	for _, item := range s.itens {
		if item.CodigoRubrica != codigoRubrica || item.Natureza != "provento" {
			continue
		}
		rem, ok := remPorID[item.RemuneracaoID]
		if !ok || rem.EmpresaID != empresaID {
			continue
		}
		if rem.Competencia < competenciaInicio || rem.Competencia > competenciaFim {
			continue
		}
		total += item.Valor
	}
	return total, nil
}

func (s *MemoryStore) CreateImportacao(_ context.Context, importacao *Importacao) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.importacoes = append(s.importacoes, *importacao)
	return nil
}

func (s *MemoryStore) FinishImportacao(_ context.Context, id uuid.UUID, status string, registros int, erros []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.importacoes {
		if s.importacoes[i].ID == id {
			s.importacoes[i].Status = status
			s.importacoes[i].RegistrosProcessados = registros
			s.importacoes[i].Erros = erros
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *MemoryStore) ListImportacoes(_ context.Context, empresaID uuid.UUID, limit int) ([]Importacao, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Importacao
	for i := len(s.importacoes) - 1; i >= 0; i-- {
		if s.importacoes[i].EmpresaID != empresaID {
			continue
		}
		out = append(out, s.importacoes[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) UpsertApuracao(_ context.Context, apuracao *Apuracao) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apuracoes[apuracaoKey(apuracao.EmpresaID, apuracao.Competencia)] = *apuracao
	return nil
}

func (s *MemoryStore) UpdateApuracaoDivergencias(_ context.Context, empresaID uuid.UUID, competencia string, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := apuracaoKey(empresaID, competencia)
	apuracao, ok := s.apuracoes[key]
	if !ok {
		return nil
	}
	apuracao.TotalDivergencias = total
	s.apuracoes[key] = apuracao
	return nil
}

// Apuracao returns the stored aggregate for assertions in tests.
func (s *MemoryStore) Apuracao(empresaID uuid.UUID, competencia string) (Apuracao, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apuracao, ok := s.apuracoes[apuracaoKey(empresaID, competencia)]
	return apuracao, ok
}

func apuracaoKey(empresaID uuid.UUID, competencia string) string {
	return empresaID.String() + "|" + competencia
}
