package tributos

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditafolha/pkg/platform/sentinel"
)

type stubParamStore struct {
	vigencia    *Vigencia
	vigenciaErr error
	faixasINSS  []FaixaINSS
	faixasIRRF  []FaixaIRRF
	faixasErr   error
	calls       int
}

func (s *stubParamStore) LatestVigencia(context.Context, int) (*Vigencia, error) {
	s.calls++
	if s.vigenciaErr != nil {
		return nil, s.vigenciaErr
	}
	return s.vigencia, nil
}

func (s *stubParamStore) ListFaixasINSS(context.Context, int, int) ([]FaixaINSS, error) {
	return s.faixasINSS, s.faixasErr
}

func (s *stubParamStore) ListFaixasIRRF(context.Context, int, int) ([]FaixaIRRF, error) {
	return s.faixasIRRF, s.faixasErr
}

func newTestResolver(store Store) *Resolver {
	return NewResolver(store, slog.New(slog.DiscardHandler))
}

func TestResolverVigentes(t *testing.T) {
	store := &stubParamStore{
		vigencia: &Vigencia{
			Ano: 2024, Mes: 1,
			Parametros: Parametros{SalarioMinimo: 1412.00, AliquotaFGTS: 8.00, AliquotaINSSPatronal: 20.00},
		},
		faixasINSS: []FaixaINSS{{Limite: 2000, Aliquota: 8.0}},
		faixasIRRF: []FaixaIRRF{{Limite: 3000, Aliquota: 10.0, Deducao: 100}},
	}
	resolver := newTestResolver(store)

	conjunto := resolver.Vigentes(context.Background(), "2024-06")
	require.NotNil(t, conjunto)
	assert.InDelta(t, 1412.00, conjunto.Parametros.SalarioMinimo, 1e-9)
	assert.Len(t, conjunto.FaixasINSS, 1)
	assert.InDelta(t, 8.0, conjunto.FaixasINSS[0].Aliquota, 1e-9)
}

func TestResolverMemoiza(t *testing.T) {
	store := &stubParamStore{
		vigencia:   &Vigencia{Ano: 2024, Mes: 1, Parametros: ParametrosDefault()},
		faixasINSS: FaixasINSS2024(),
		faixasIRRF: FaixasIRRF2024(),
	}
	resolver := newTestResolver(store)
	ctx := context.Background()

	resolver.Vigentes(ctx, "2024-01")
	resolver.Vigentes(ctx, "2024-02")
	assert.Equal(t, 1, store.calls)

	resolver.Invalidate()
	resolver.Vigentes(ctx, "2024-03")
	assert.Equal(t, 2, store.calls)
}

func TestResolverSemVigenciaUsaPadroes(t *testing.T) {
	store := &stubParamStore{vigenciaErr: sentinel.ErrNotFound}
	resolver := newTestResolver(store)

	conjunto := resolver.Vigentes(context.Background(), "")
	assert.Equal(t, ParametrosDefault(), conjunto.Parametros)
	assert.Equal(t, FaixasINSS2024(), conjunto.FaixasINSS)

	// a default set is not memoized; configuration may appear later
	resolver.Vigentes(context.Background(), "")
	assert.Equal(t, 2, store.calls)
}

func TestResolverFalhaDeInfraUsaPadroes(t *testing.T) {
	store := &stubParamStore{vigenciaErr: errors.New("conexão recusada")}
	resolver := newTestResolver(store)

	conjunto := resolver.Vigentes(context.Background(), "2024-01")
	assert.Equal(t, ParametrosDefault(), conjunto.Parametros)
}

func TestResolverFaixasVaziasSubstituidas(t *testing.T) {
	store := &stubParamStore{
		vigencia: &Vigencia{Ano: 2024, Mes: 1, Parametros: ParametrosDefault()},
	}
	resolver := newTestResolver(store)

	conjunto := resolver.Vigentes(context.Background(), "2024-01")
	assert.Equal(t, FaixasINSS2024(), conjunto.FaixasINSS)
	assert.Equal(t, FaixasIRRF2024(), conjunto.FaixasIRRF)
}
