package esocial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractXMLID(t *testing.T) {
	t.Run("id on first child", func(t *testing.T) {
		id := ExtractXMLID(`<eSocial><evtTabRubrica Id="ID1111"/></eSocial>`)
		assert.Equal(t, "ID1111", id)
	})

	t.Run("signature skipped", func(t *testing.T) {
		id := ExtractXMLID(`<eSocial><Signature Id="SIG"/><evtRemun Id="ID2222"/></eSocial>`)
		assert.Equal(t, "ID2222", id)
	})

	t.Run("id one level down", func(t *testing.T) {
		id := ExtractXMLID(`<eSocial><retornoProcessamentoDownload><evento Id="ID3333"/></retornoProcessamentoDownload></eSocial>`)
		assert.Equal(t, "ID3333", id)
	})

	t.Run("absent", func(t *testing.T) {
		assert.Empty(t, ExtractXMLID(`<eSocial><evtRemun/></eSocial>`))
	})

	t.Run("malformed", func(t *testing.T) {
		assert.Empty(t, ExtractXMLID(`<eSocial>`))
	})
}

func TestParseS1010Completo(t *testing.T) {
	evento, err := ParseS1010Completo(s1010Wrapped)
	require.NoError(t, err)

	assert.Equal(t, "ID1234567890", evento.XMLID)
	assert.Equal(t, 1, evento.TpAmb)
	assert.Equal(t, "1.0", evento.VerProc)
	assert.Equal(t, 1, evento.EmpTpInsc)
	assert.Equal(t, "12345678000190", evento.EmpNrInsc)

	assert.Equal(t, OperacaoInclusao, evento.OperationType)
	assert.Equal(t, "001", evento.CodRubr)
	assert.Equal(t, "T01", evento.IdeTabRubr)
	assert.Equal(t, "2024-01", evento.IniValid)
	assert.Empty(t, evento.FimValid)

	assert.Equal(t, "Salário Base", evento.DscRubr)
	assert.Equal(t, 1000, evento.NatRubr)
	assert.Equal(t, 1, evento.TpRubr)
	assert.Equal(t, 11, evento.CodIncCP)
	assert.Equal(t, 11, evento.CodIncIRRF)
	assert.Equal(t, 11, evento.CodIncFGTS)
}

func TestParseS1010CompletoOperacoes(t *testing.T) {
	template := func(op string) string {
		return `<eSocial><evtTabRubrica Id="IDX"><infoRubrica><` + op + `>
		  <ideRubrica><codRubr>009</codRubr><iniValid>2024-05</iniValid></ideRubrica>
		</` + op + `></infoRubrica></evtTabRubrica></eSocial>`
	}

	for _, op := range []string{OperacaoInclusao, OperacaoAlteracao, OperacaoExclusao} {
		t.Run(op, func(t *testing.T) {
			evento, err := ParseS1010Completo(template(op))
			require.NoError(t, err)
			assert.Equal(t, op, evento.OperationType)
			assert.Equal(t, "009", evento.CodRubr)
		})
	}
}

func TestParseS1010CompletoRecibo(t *testing.T) {
	content := `<eSocial><retornoEvento Id="IDR">
	  <tpAmb>1</tpAmb>
	  <dhRecepcao>2024-03-10T10:00:00</dhRecepcao>
	  <protocoloEnvio>1.2.202403.0000001</protocoloEnvio>
	  <cdResposta>201</cdResposta>
	  <descResposta>Sucesso</descResposta>
	  <Recibo><nrRecibo>1.1.0001</nrRecibo><hash>abc123</hash></Recibo>
	</retornoEvento></eSocial>`

	evento, err := ParseS1010Completo(content)
	require.NoError(t, err)
	assert.Equal(t, 1, evento.RecTpAmb)
	assert.Equal(t, "1.2.202403.0000001", evento.RecProtocoloEnvio)
	assert.Equal(t, 201, evento.RecCdResposta)
	assert.Equal(t, "Sucesso", evento.RecDescResposta)
	assert.Equal(t, "1.1.0001", evento.RecNrRecibo)
	assert.Equal(t, "abc123", evento.RecHash)
}

func TestParseS1010CompletoSemID(t *testing.T) {
	_, err := ParseS1010Completo(`<eSocial><evtTabRubrica/></eSocial>`)
	assert.ErrorIs(t, err, ErrEventoSemID)
}
