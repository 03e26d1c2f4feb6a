// Package archive writes minimal store-only ZIP archives from in-memory text entries.
//
// The output is byte-for-byte deterministic: every date and time field is zero and,
// unless WithCRC32 is given, every CRC-32 field is zero as well. Readers that verify
// checksums only accept archives built with WithCRC32.
package archive

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"strings"
)

// utf8BOM is prepended to .csv entries so spreadsheet applications detect UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Entry is one file stored in the archive.
type Entry struct {
	Name    string
	Content string
}

// EncodingError reports a value that does not fit its ZIP header field.
// Index is -1 when the field belongs to the archive rather than an entry.
type EncodingError struct {
	Entry string
	Index int
	Field string
	Value uint64
	Limit uint64
}

func (e *EncodingError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("archive: %s %d exceeds limit %d", e.Field, e.Value, e.Limit)
	}
	return fmt.Sprintf("archive: entry %d (%q): %s %d exceeds limit %d", e.Index, e.Entry, e.Field, e.Value, e.Limit)
}

type options struct {
	crc bool
}

// Option configures Encode and EncodeTo.
type Option func(*options)

// WithCRC32 fills the CRC-32 fields with real IEEE checksums of the stored bytes.
func WithCRC32() Option {
	return func(o *options) {
		o.crc = true
	}
}

// NeedsBOM reports whether the entry name gets a UTF-8 byte-order mark.
func NeedsBOM(name string) bool {
	return strings.HasSuffix(name, ".csv")
}

// Encode builds the complete archive for entries, in order.
func Encode(entries []Entry, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := EncodeTo(&buf, entries, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// prepared holds one entry's encoded name and stored data and where its local header starts.
type prepared struct {
	name    []byte
	data    []byte
	offset  uint64
	checked uint32
}

// EncodeTo writes the archive for entries to w and returns the number of bytes written.
// All header fields are validated before the first byte is written, so an EncodingError
// never leaves a partial archive behind.
func EncodeTo(w io.Writer, entries []Entry, opts ...Option) (int64, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if len(entries) > maxUint16 {
		return 0, &EncodingError{
			Entry: entries[maxUint16].Name,
			Index: maxUint16,
			Field: "entry count",
			Value: uint64(len(entries)),
			Limit: maxUint16,
		}
	}

	files := make([]prepared, 0, len(entries))
	var offset uint64
	for i, e := range entries {
		p := prepared{
			name:   []byte(e.Name),
			data:   entryData(e),
			offset: offset,
		}
		if len(p.name) > maxUint16 {
			return 0, &EncodingError{Entry: e.Name, Index: i, Field: "name length", Value: uint64(len(p.name)), Limit: maxUint16}
		}
		if uint64(len(p.data)) > maxUint32 {
			return 0, &EncodingError{Entry: e.Name, Index: i, Field: "size", Value: uint64(len(p.data)), Limit: maxUint32}
		}
		if offset > maxUint32 {
			return 0, &EncodingError{Entry: e.Name, Index: i, Field: "local header offset", Value: offset, Limit: maxUint32}
		}
		if o.crc {
			p.checked = crc32.ChecksumIEEE(p.data)
		}
		files = append(files, p)
		offset += uint64(localFileHeaderLen + len(p.name) + len(p.data))
	}

	centralDirOffset := offset
	var centralDirSize uint64
	headers := make([]centralDirectoryHeader, len(files))
	for i, f := range files {
		headers[i] = centralDirectoryHeader{
			CRC32:             f.checked,
			CompressedSize:    uint32(len(f.data)),
			UncompressedSize:  uint32(len(f.data)),
			LocalHeaderOffset: uint32(f.offset),
			Name:              f.name,
		}
		centralDirSize += uint64(headers[i].size())
	}
	if centralDirOffset > maxUint32 {
		return 0, &EncodingError{Index: -1, Field: "central directory offset", Value: centralDirOffset, Limit: maxUint32}
	}
	if centralDirSize > maxUint32 {
		return 0, &EncodingError{Index: -1, Field: "central directory size", Value: centralDirSize, Limit: maxUint32}
	}

	var written int64
	write := func(b []byte) error {
		n, err := w.Write(b)
		written += int64(n)
		return err
	}

	for _, f := range files {
		lh := localFileHeader{
			CRC32:            f.checked,
			CompressedSize:   uint32(len(f.data)),
			UncompressedSize: uint32(len(f.data)),
			Name:             f.name,
		}
		if err := write(lh.marshal()); err != nil {
			return written, fmt.Errorf("writing local header for %s: %w", f.name, err)
		}
		if err := write(f.data); err != nil {
			return written, fmt.Errorf("writing data for %s: %w", f.name, err)
		}
	}

	for _, h := range headers {
		if err := write(h.marshal()); err != nil {
			return written, fmt.Errorf("writing central directory for %s: %w", h.Name, err)
		}
	}

	eocd := endOfCentralDirectory{
		Entries:          uint16(len(files)),
		CentralDirSize:   uint32(centralDirSize),
		CentralDirOffset: uint32(centralDirOffset),
	}
	if err := write(eocd.marshal()); err != nil {
		return written, fmt.Errorf("writing end of central directory: %w", err)
	}

	return written, nil
}

// entryData returns the bytes stored for e, BOM included.
func entryData(e Entry) []byte {
	if !NeedsBOM(e.Name) {
		return []byte(e.Content)
	}
	data := make([]byte, 0, len(utf8BOM)+len(e.Content))
	data = append(data, utf8BOM...)
	return append(data, e.Content...)
}
