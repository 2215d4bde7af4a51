package esocial

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractZip(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"lote/evt1.xml":  []byte(`<eSocial><evtRemun/></eSocial>`),
		"lote/evt2.XML":  []byte(`<eSocial><evtTabRubrica/></eSocial>`),
		"lote/notas.txt": []byte("ignorado"),
	})

	var calls int
	result, err := ExtractZip(data, func(done, total int) {
		calls++
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)

	assert.Len(t, result.XMLFiles, 2)
	assert.Equal(t, 3, result.TotalFiles)
	assert.Equal(t, 2, calls)

	names := map[string]string{}
	for _, f := range result.XMLFiles {
		names[f.Name] = f.Path
	}
	assert.Equal(t, "lote/evt1.xml", names["evt1.xml"])
	assert.Equal(t, "lote/evt2.XML", names["evt2.XML"])
}

func TestExtractZipSemXML(t *testing.T) {
	data := buildZip(t, map[string][]byte{"leia-me.txt": []byte("oi")})
	_, err := ExtractZip(data, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nenhum arquivo XML encontrado no ZIP")
}

func TestExtractZipCorrompido(t *testing.T) {
	_, err := ExtractZip([]byte("definitivamente não é um zip"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrompido ou inválido")
}

func TestExtractZipMuitoGrande(t *testing.T) {
	data := make([]byte, maxZipSizeBytes+1)
	_, err := ExtractZip(data, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "muito grande")
	assert.Contains(t, err.Error(), "500MB")
}

func TestExtractZipDecodificaLatin1(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><eSocial><dscRubr>Salário</dscRubr></eSocial>`))
	require.NoError(t, err)

	data := buildZip(t, map[string][]byte{"evt.xml": latin1})
	result, err := ExtractZip(data, nil)
	require.NoError(t, err)
	require.Len(t, result.XMLFiles, 1)
	assert.Contains(t, result.XMLFiles[0].Content, "Salário")
}

func TestIsZipIsXML(t *testing.T) {
	assert.True(t, IsZipFile("LOTE.ZIP"))
	assert.False(t, IsZipFile("lote.rar"))
	assert.True(t, IsXMLFile("evento.Xml"))
	assert.False(t, IsXMLFile("evento.xsd"))
}

func TestDecodeXMLTextUTF8Passthrough(t *testing.T) {
	raw := []byte(`<?xml version="1.0" encoding="UTF-8"?><a>Remuneração</a>`)
	assert.Equal(t, string(raw), DecodeXMLText(raw))
}
