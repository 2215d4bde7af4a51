package auditoria

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory Store used by tests and local runs.
type MemoryStore struct {
	mu               sync.RWMutex
	baseConhecimento map[string]BaseConhecimento
	processos        []ProcessoJudicial
	vinculos         []RubricaProcessoVinculo
	divergencias     []Divergencia
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{baseConhecimento: make(map[string]BaseConhecimento)}
}

// SeedBaseConhecimento replaces the knowledge-base entry for a rubric nature.
func (s *MemoryStore) SeedBaseConhecimento(entries ...BaseConhecimento) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.baseConhecimento[e.NaturezaRubrica] = e
	}
}

// SeedProcesso registers a judicial process.
func (s *MemoryStore) SeedProcesso(processo ProcessoJudicial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processos = append(s.processos, processo)
}

// SeedVinculo registers a rubric-process suspension link.
func (s *MemoryStore) SeedVinculo(vinculo RubricaProcessoVinculo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vinculos = append(s.vinculos, vinculo)
}

func (s *MemoryStore) LoadBaseConhecimento(ctx context.Context) (map[string]BaseConhecimento, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	base := make(map[string]BaseConhecimento, len(s.baseConhecimento))
	for k, v := range s.baseConhecimento {
		base[k] = v
	}
	return base, nil
}

func (s *MemoryStore) ListProcessos(ctx context.Context, empresaID uuid.UUID) ([]ProcessoJudicial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ProcessoJudicial
	for _, p := range s.processos {
		if p.EmpresaID == empresaID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListVinculos(ctx context.Context, empresaID uuid.UUID) ([]RubricaProcessoVinculo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RubricaProcessoVinculo
	for _, v := range s.vinculos {
		if v.EmpresaID == empresaID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertDivergencia(ctx context.Context, divergencia *Divergencia) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *divergencia
	if d.CriadoEm.IsZero() {
		d.CriadoEm = time.Now()
	}
	s.divergencias = append(s.divergencias, d)
	return nil
}

func (s *MemoryStore) DeleteDivergencias(ctx context.Context, empresaID uuid.UUID, competenciaInicio, competenciaFim string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.divergencias[:0]
	for _, d := range s.divergencias {
		remove := d.EmpresaID == empresaID &&
			d.CompetenciaInicio >= competenciaInicio &&
			d.CompetenciaFim <= competenciaFim
		if !remove {
			kept = append(kept, d)
		}
	}
	s.divergencias = kept
	return nil
}

func (s *MemoryStore) DeleteDivergenciasDaRemuneracao(ctx context.Context, remuneracaoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.divergencias[:0]
	for _, d := range s.divergencias {
		if d.RemuneracaoID != nil && *d.RemuneracaoID == remuneracaoID {
			continue
		}
		kept = append(kept, d)
	}
	s.divergencias = kept
	return nil
}

func (s *MemoryStore) ListDivergencias(ctx context.Context, empresaID uuid.UUID) ([]Divergencia, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Divergencia
	for _, d := range s.divergencias {
		if d.EmpresaID == empresaID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryStore) CountDivergenciasDasRemuneracoes(ctx context.Context, empresaID uuid.UUID, remuneracaoIDs []uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[uuid.UUID]struct{}, len(remuneracaoIDs))
	for _, id := range remuneracaoIDs {
		ids[id] = struct{}{}
	}
	total := 0
	for _, d := range s.divergencias {
		if d.EmpresaID != empresaID || d.RemuneracaoID == nil {
			continue
		}
		if _, ok := ids[*d.RemuneracaoID]; ok {
			total++
		}
	}
	return total, nil
}
