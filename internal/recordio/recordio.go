// Package recordio implements reading and writing of length-prefixed, checksummed records.
//
// The framing is the one used by TensorFlow record files:
//
//	uint64 length
//	uint32 masked crc32c of length
//	byte   data[length]
//	uint32 masked crc32c of data
//
// All integers are little endian.
package recordio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"sync"
)

const (
	headerSize = 12
	footerSize = 4
	maskDelta  = 0xa282ead8

	// MaxRecordSize is the largest record the Reader accepts.
	MaxRecordSize = 1 << 31 // 2 GiB
)

// ErrCorrupt is returned when a checksum does not match the record contents.
var ErrCorrupt = errors.New("recordio: checksum mismatch")

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// MaskedCRC returns the masked crc32c checksum of b.
func MaskedCRC(b []byte) uint32 {
	crc := crc32.Checksum(b, crcTable)
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// Writer writes records to an io.Writer.
type Writer struct {
	mut  sync.Mutex
	dest io.Writer
}

// NewWriter returns a new Writer. dest is the io.Writer that the Writer should write to.
func NewWriter(dest io.Writer) *Writer {
	return &Writer{dest: dest}
}

// Write writes one record containing data.
func (w *Writer) Write(data []byte) error {
	var header [headerSize]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(len(data)))
	binary.LittleEndian.PutUint32(header[8:], MaskedCRC(header[:8]))

	var footer [footerSize]byte
	binary.LittleEndian.PutUint32(footer[:], MaskedCRC(data))

	w.mut.Lock()
	defer w.mut.Unlock()

	if _, err := w.dest.Write(header[:]); err != nil {
		return fmt.Errorf("recordio: failed to write record header: %w", err)
	}
	if _, err := w.dest.Write(data); err != nil {
		return fmt.Errorf("recordio: failed to write record: %w", err)
	}
	if _, err := w.dest.Write(footer[:]); err != nil {
		return fmt.Errorf("recordio: failed to write record footer: %w", err)
	}
	return nil
}

// Reader reads records from an io.Reader.
type Reader struct {
	mut sync.Mutex
	src io.Reader
}

// NewReader returns a new Reader. src is the io.Reader that the Reader should read records from.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src}
}

// Read reads the next record. It returns io.EOF if the stream ends cleanly before a record,
// and io.ErrUnexpectedEOF if it ends in the middle of one.
func (r *Reader) Read() ([]byte, error) {
	r.mut.Lock()
	defer r.mut.Unlock()

	var header [headerSize]byte
	if _, err := io.ReadFull(r.src, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("recordio: failed to read record header: %w", err)
	}
	if MaskedCRC(header[:8]) != binary.LittleEndian.Uint32(header[8:]) {
		return nil, fmt.Errorf("%w in record header", ErrCorrupt)
	}

	length := binary.LittleEndian.Uint64(header[:8])
	if length > MaxRecordSize {
		return nil, errors.New("recordio: record length is greater than 2 GiB")
	}

	buf := make([]byte, length+footerSize)
	if _, err := io.ReadFull(r.src, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("recordio: failed to read record: %w", err)
	}
	data, footer := buf[:length], buf[length:]
	if MaskedCRC(data) != binary.LittleEndian.Uint32(footer) {
		return nil, fmt.Errorf("%w in record data", ErrCorrupt)
	}
	return data, nil
}
