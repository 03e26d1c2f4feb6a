package archive

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eocd struct {
	entriesOnDisk uint16
	entries       uint16
	dirSize       uint32
	dirOffset     uint32
}

func readEOCD(t *testing.T, data []byte) eocd {
	t.Helper()
	require.GreaterOrEqual(t, len(data), endOfCentralDirLen)
	tail := data[len(data)-endOfCentralDirLen:]
	le := binary.LittleEndian
	require.Equal(t, uint32(endOfCentralDirSignature), le.Uint32(tail[0:]))
	return eocd{
		entriesOnDisk: le.Uint16(tail[8:]),
		entries:       le.Uint16(tail[10:]),
		dirSize:       le.Uint32(tail[12:]),
		dirOffset:     le.Uint32(tail[16:]),
	}
}

// readZip opens data with the standard library reader and returns name -> content in archive order.
func readZip(t *testing.T, data []byte) ([]string, map[string][]byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	found := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		names = append(names, f.Name)
		found[f.Name] = content
	}
	return names, found
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)

	expected := []byte{
		0x50, 0x4b, 0x05, 0x06, // signature
		0, 0, 0, 0, // disk numbers
		0, 0, 0, 0, // entry counts
		0, 0, 0, 0, // central directory size
		0, 0, 0, 0, // central directory offset
		0, 0, // comment length
	}
	assert.Equal(t, expected, data)

	names, _ := readZip(t, data)
	assert.Empty(t, names)
}

func TestEncode_CSVAndText(t *testing.T) {
	data, err := Encode([]Entry{
		{Name: "a.csv", Content: "x,y\n1,2"},
		{Name: "b.txt", Content: "hello"},
	})
	require.NoError(t, err)

	names, found := readZip(t, data)
	assert.Equal(t, []string{"a.csv", "b.txt"}, names)
	assert.Equal(t, "\uFEFFx,y\n1,2", string(found["a.csv"]))
	assert.Equal(t, "hello", string(found["b.txt"]))
	assert.Equal(t, uint16(2), readEOCD(t, data).entries)
}

func TestEncode_EntryCount(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 64} {
		t.Run(fmt.Sprintf("%d entries", n), func(t *testing.T) {
			entries := make([]Entry, n)
			for i := range entries {
				entries[i] = Entry{Name: fmt.Sprintf("file-%03d.txt", i), Content: strings.Repeat("x", i)}
			}

			data, err := Encode(entries)
			require.NoError(t, err)

			end := readEOCD(t, data)
			assert.Equal(t, uint16(n), end.entries)
			assert.Equal(t, uint16(n), end.entriesOnDisk)
			assert.Equal(t, uint32(len(data)-endOfCentralDirLen), end.dirOffset+end.dirSize)
		})
	}
}

func TestEncode_BOMOnlyForCSV(t *testing.T) {
	entries := []Entry{
		{Name: "artigos.csv", Content: "ID,Titulo"},
		{Name: "notes.txt", Content: "plain"},
		{Name: "data.csv.bak", Content: "not csv"},
		{Name: "empty.csv", Content: ""},
		{Name: "README", Content: ""},
	}
	data, err := Encode(entries)
	require.NoError(t, err)

	_, found := readZip(t, data)
	for _, e := range entries {
		got := found[e.Name]
		if NeedsBOM(e.Name) {
			assert.True(t, bytes.HasPrefix(got, utf8BOM), "%s should start with a BOM", e.Name)
			assert.Equal(t, e.Content, string(got[len(utf8BOM):]))
		} else {
			assert.False(t, bytes.HasPrefix(got, utf8BOM), "%s should not start with a BOM", e.Name)
			assert.Equal(t, e.Content, string(got))
		}
	}
}

func TestEncode_CentralDirectoryOffsets(t *testing.T) {
	entries := []Entry{
		{Name: "leads_comunidade.csv", Content: "Nome,WhatsApp\nAna,5511999990000"},
		{Name: "ação.txt", Content: "conteúdo com acentos"},
		{Name: "metadados.csv", Content: "Versão\n1.0"},
	}
	data, err := Encode(entries)
	require.NoError(t, err)

	end := readEOCD(t, data)
	le := binary.LittleEndian
	pos := int(end.dirOffset)
	for i, e := range entries {
		require.Equal(t, uint32(centralDirectorySignature), le.Uint32(data[pos:]), "entry %d", i)
		nameLen := int(le.Uint16(data[pos+28:]))
		name := string(data[pos+centralDirHeaderLen : pos+centralDirHeaderLen+nameLen])
		assert.Equal(t, e.Name, name, "central directory order")

		local := int(le.Uint32(data[pos+42:]))
		assert.Equal(t, uint32(localFileHeaderSignature), le.Uint32(data[local:]), "offset of %s", e.Name)
		localName := string(data[local+localFileHeaderLen : local+localFileHeaderLen+nameLen])
		assert.Equal(t, e.Name, localName)

		pos += centralDirHeaderLen + nameLen
	}
	assert.Equal(t, len(data)-endOfCentralDirLen, pos)
}

func TestEncode_ZeroedTimestampsAndChecksums(t *testing.T) {
	data, err := Encode([]Entry{{Name: "a.txt", Content: "abc"}})
	require.NoError(t, err)

	le := binary.LittleEndian
	assert.Equal(t, uint16(zipVersion), le.Uint16(data[4:]))
	assert.Equal(t, uint16(methodStore), le.Uint16(data[8:]))
	assert.Zero(t, le.Uint16(data[10:]), "mod time")
	assert.Zero(t, le.Uint16(data[12:]), "mod date")
	assert.Zero(t, le.Uint32(data[14:]), "crc32")
	assert.Equal(t, uint32(3), le.Uint32(data[18:]))
	assert.Equal(t, uint32(3), le.Uint32(data[22:]))
}

func TestEncode_WithCRC32(t *testing.T) {
	entries := []Entry{
		{Name: "a.csv", Content: "x,y\n1,2"},
		{Name: "b.txt", Content: "hello"},
	}
	data, err := Encode(entries, WithCRC32())
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	assert.Equal(t, crc32.ChecksumIEEE(entryData(entries[0])), zr.File[0].CRC32)
	assert.Equal(t, crc32.ChecksumIEEE([]byte("hello")), zr.File[1].CRC32)

	_, found := readZip(t, data)
	assert.Equal(t, "hello", string(found["b.txt"]))
}

func TestEncode_Deterministic(t *testing.T) {
	entries := []Entry{
		{Name: "artigos.csv", Content: "ID\n1"},
		{Name: "leads_comunidade.csv", Content: "Nome\nAna"},
	}
	first, err := Encode(entries)
	require.NoError(t, err)
	second, err := Encode(entries)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncodeTo_MatchesEncode(t *testing.T) {
	entries := []Entry{{Name: "a.csv", Content: "1"}, {Name: "b", Content: ""}}
	want, err := Encode(entries)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := EncodeTo(&buf, entries)
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), n)
	assert.Equal(t, want, buf.Bytes())
}

func TestEncode_NameTooLong(t *testing.T) {
	long := strings.Repeat("n", maxUint16+1)
	_, err := Encode([]Entry{{Name: "ok.txt"}, {Name: long, Content: "x"}})
	require.Error(t, err)

	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, 1, encErr.Index)
	assert.Equal(t, "name length", encErr.Field)
	assert.Equal(t, uint64(maxUint16+1), encErr.Value)
}

func TestEncode_TooManyEntries(t *testing.T) {
	entries := make([]Entry, maxUint16+1)
	for i := range entries {
		entries[i] = Entry{Name: fmt.Sprintf("%d", i)}
	}

	var buf bytes.Buffer
	n, err := EncodeTo(&buf, entries)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len(), "nothing is written when validation fails")

	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "entry count", encErr.Field)
	assert.Equal(t, "65535", encErr.Entry)
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("disk full")
	}
	w.after--
	return len(p), nil
}

func TestEncodeTo_WriterError(t *testing.T) {
	_, err := EncodeTo(&failingWriter{after: 1}, []Entry{{Name: "a.txt", Content: "abc"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "a.txt")
}

func TestEncodingError_Error(t *testing.T) {
	err := &EncodingError{Entry: "x.csv", Index: 3, Field: "size", Value: 10, Limit: 5}
	assert.Equal(t, `archive: entry 3 ("x.csv"): size 10 exceeds limit 5`, err.Error())

	err = &EncodingError{Index: -1, Field: "central directory size", Value: 10, Limit: 5}
	assert.Equal(t, "archive: central directory size 10 exceeds limit 5", err.Error())
}
