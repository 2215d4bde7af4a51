package esocial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectEventType(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"rubric table by element", `<eSocial><evtTabRubrica/></eSocial>`, EventS1010},
		{"rubric table by code", `<arquivo>evento S-1010 retificado</arquivo>`, EventS1010},
		{"remuneration", `<eSocial><evtRemun Id="x"/></eSocial>`, EventS1200},
		{"case insensitive", `<esocial><EVTREMUN/></esocial>`, EventS1200},
		{"employer info", `<eSocial><evtInfoEmpregador/></eSocial>`, "S-1000"},
		{"judicial process table", `<eSocial><evtTabProcesso/></eSocial>`, "S-1070"},
		{"periodic closing", `<eSocial><evtFechaEvPer/></eSocial>`, "S-1299"},
		{"fgts totalizer", `<eSocial><evtFGTS/></eSocial>`, "S-5013"},
		{"unrecognized", `<eSocial><evtAlgoNovo/></eSocial>`, EventUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectEventType(tc.content))
		})
	}
}

func TestDetectEventTypeFirstMatchWins(t *testing.T) {
	// evtTabRubrica appears earlier in the pattern table than evtRemun
	content := `<lote><evtTabRubrica/><evtRemun/></lote>`
	assert.Equal(t, EventS1010, DetectEventType(content))
}

func TestIsEventSupported(t *testing.T) {
	assert.True(t, IsEventSupported(EventS1010))
	assert.True(t, IsEventSupported(EventS1200))
	assert.False(t, IsEventSupported("S-1000"))
	assert.False(t, IsEventSupported("S-1299"))
	assert.False(t, IsEventSupported(EventUnknown))
}

func TestEventDescription(t *testing.T) {
	assert.Equal(t, "Tabela de Rubricas", EventDescription(EventS1010))
	assert.Equal(t, "Remuneração do Trabalhador", EventDescription(EventS1200))
	assert.Equal(t, "Evento não identificado", EventDescription(EventUnknown))
	assert.Equal(t, "Evento desconhecido", EventDescription("S-9999"))
}
