package offersource

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLXFML = `<?xml version="1.0" encoding="UTF-8"?>
<LXFML>
  <Bricks>
    <Brick>
      <Part designID="3001" materials="1,0"/>
    </Brick>
    <Brick>
      <Part designID="3001" materials="1,0"/>
    </Brick>
    <Brick>
      <Part designID="3068" materials="5,0"/>
    </Brick>
    <Brick>
      <Part designID="30133" materials="999999,0"/>
    </Brick>
  </Bricks>
</LXFML>
`

func buildModelZip(t *testing.T, lxfml string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(modelFileEntry)
	require.NoError(t, err)
	_, err = w.Write([]byte(lxfml))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadModelFileCountsParts(t *testing.T) {
	content := buildModelZip(t, sampleLXFML)

	needed, err := ReadModelFile(content)
	require.NoError(t, err)

	assert.Equal(t, 2, needed[catalog.NewPart("3001", 1, catalog.ConditionNew)])
	assert.Equal(t, 1, needed[catalog.NewPart("3068b", 2, catalog.ConditionNew)])
}

func TestReadModelFileSkipsUnknownColor(t *testing.T) {
	content := buildModelZip(t, sampleLXFML)

	needed, err := ReadModelFile(content)
	require.NoError(t, err)

	assert.Equal(t, 2, len(needed)) // the 30133/999999 entry is dropped
}

func TestReadModelFileTranslatesPartID(t *testing.T) {
	content := buildModelZip(t, `<LXFML><Part designID="30133" materials="1,0"/></LXFML>`)

	needed, err := ReadModelFile(content)
	require.NoError(t, err)

	assert.Equal(t, 1, needed[catalog.NewPart("x97", 1, catalog.ConditionNew)])
}

func TestReadModelFileMissingEntry(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("other.xml")
	require.NoError(t, err)
	_, _ = w.Write([]byte("<x/>"))
	require.NoError(t, zw.Close())

	_, err = ReadModelFile(buf.Bytes())
	assert.Error(t, err)
}
