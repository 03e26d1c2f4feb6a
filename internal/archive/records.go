package archive

import "encoding/binary"

const (
	localFileHeaderSignature  = 0x04034b50
	centralDirectorySignature = 0x02014b50
	endOfCentralDirSignature  = 0x06054b50

	localFileHeaderLen  = 30
	centralDirHeaderLen = 46
	endOfCentralDirLen  = 22
	zipVersion          = 20
	methodStore         = 0
	maxUint16           = 1<<16 - 1
	maxUint32           = 1<<32 - 1
)

// localFileHeader precedes an entry's data.
type localFileHeader struct {
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Name             []byte
}

func (h localFileHeader) marshal() []byte {
	b := make([]byte, localFileHeaderLen+len(h.Name))
	le := binary.LittleEndian
	le.PutUint32(b[0:], localFileHeaderSignature)
	le.PutUint16(b[4:], zipVersion) // version needed
	le.PutUint16(b[6:], 0)          // flags
	le.PutUint16(b[8:], methodStore)
	le.PutUint16(b[10:], 0) // mod time
	le.PutUint16(b[12:], 0) // mod date
	le.PutUint32(b[14:], h.CRC32)
	le.PutUint32(b[18:], h.CompressedSize)
	le.PutUint32(b[22:], h.UncompressedSize)
	le.PutUint16(b[26:], uint16(len(h.Name)))
	le.PutUint16(b[28:], 0) // extra field length
	copy(b[localFileHeaderLen:], h.Name)
	return b
}

// centralDirectoryHeader is the trailing index record for one entry.
type centralDirectoryHeader struct {
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	LocalHeaderOffset uint32
	Name              []byte
}

func (h centralDirectoryHeader) marshal() []byte {
	b := make([]byte, centralDirHeaderLen+len(h.Name))
	le := binary.LittleEndian
	le.PutUint32(b[0:], centralDirectorySignature)
	le.PutUint16(b[4:], zipVersion) // version made by
	le.PutUint16(b[6:], zipVersion) // version needed
	le.PutUint16(b[8:], 0)          // flags
	le.PutUint16(b[10:], methodStore)
	le.PutUint16(b[12:], 0) // mod time
	le.PutUint16(b[14:], 0) // mod date
	le.PutUint32(b[16:], h.CRC32)
	le.PutUint32(b[20:], h.CompressedSize)
	le.PutUint32(b[24:], h.UncompressedSize)
	le.PutUint16(b[28:], uint16(len(h.Name)))
	le.PutUint16(b[30:], 0) // extra field length
	le.PutUint16(b[32:], 0) // comment length
	le.PutUint16(b[34:], 0) // disk number start
	le.PutUint16(b[36:], 0) // internal attributes
	le.PutUint32(b[38:], 0) // external attributes
	le.PutUint32(b[42:], h.LocalHeaderOffset)
	copy(b[centralDirHeaderLen:], h.Name)
	return b
}

func (h centralDirectoryHeader) size() int {
	return centralDirHeaderLen + len(h.Name)
}

// endOfCentralDirectory closes the archive.
type endOfCentralDirectory struct {
	Entries          uint16
	CentralDirSize   uint32
	CentralDirOffset uint32
}

func (e endOfCentralDirectory) marshal() []byte {
	b := make([]byte, endOfCentralDirLen)
	le := binary.LittleEndian
	le.PutUint32(b[0:], endOfCentralDirSignature)
	le.PutUint16(b[4:], 0)         // this disk
	le.PutUint16(b[6:], 0)         // disk with central directory
	le.PutUint16(b[8:], e.Entries) // entries on this disk
	le.PutUint16(b[10:], e.Entries)
	le.PutUint32(b[12:], e.CentralDirSize)
	le.PutUint32(b[16:], e.CentralDirOffset)
	le.PutUint16(b[20:], 0) // comment length
	return b
}
