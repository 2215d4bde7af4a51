//go:build integration

package router_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"auditafolha/internal/esocial/router"
	"auditafolha/pkg/testutil/containers"
)

const xmlS1010 = `<eSocial xmlns="http://www.esocial.gov.br/schema/evt/evtTabRubrica/v_S_01_03_00"><evtTabRubrica Id="ID1"></evtTabRubrica></eSocial>`

type RouterIntegrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	cache    *router.RedisCache
	roteador *router.Router
}

func TestRouterIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RouterIntegrationSuite))
}

func (s *RouterIntegrationSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.redis = containers.NewRedisContainer(s.T())
	s.cache = router.NewRedisCache(s.redis.Client)
	s.roteador = router.New(router.NewPostgresStore(s.postgres.DB), s.cache,
		slog.New(slog.DiscardHandler))
}

func (s *RouterIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RouterIntegrationSuite) TestRouteUsaConfiguracaoSemeada() {
	rota := s.roteador.Route(context.Background(), xmlS1010)
	s.True(rota.Sucesso)
	s.Equal("evtTabRubrica", rota.TagEncontrada)
	s.Equal("S-1010", rota.EventoESocial)
	s.Equal("evt_s1010", rota.DestinoSQL)
}

func (s *RouterIntegrationSuite) TestRoutePopulaCacheCompartilhado() {
	ctx := context.Background()

	_, ok, err := s.cache.Get(ctx)
	s.Require().NoError(err)
	s.False(ok)

	rota := s.roteador.Route(ctx, xmlS1010)
	s.Require().True(rota.Sucesso)

	configs, ok, err := s.cache.Get(ctx)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Contains(configs, "evtTabRubrica")
	s.Contains(configs, "evtRemun")
	s.Equal("remuneracoes", configs["evtRemun"].TabelaDestino)
}

func (s *RouterIntegrationSuite) TestInvalidateForcaRecarga() {
	ctx := context.Background()

	rota := s.roteador.Route(ctx, xmlS1010)
	s.Require().True(rota.Sucesso)

	s.Require().NoError(s.cache.Invalidate(ctx))

	_, ok, err := s.cache.Get(ctx)
	s.Require().NoError(err)
	s.False(ok)

	// next route round-trips to the store and repopulates
	rota = s.roteador.Route(ctx, xmlS1010)
	s.True(rota.Sucesso)

	_, ok, err = s.cache.Get(ctx)
	s.Require().NoError(err)
	s.True(ok)
}
