// Package shortvec implements the compact-u16 length prefix used by Solana
// transactions: 7 bits per byte, least significant group first, with the high
// bit marking a continuation. Lengths take one to three bytes.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedLen = 3

var (
	ErrLenTooLarge  = errors.Errorf("len exceeds %d", math.MaxUint16)
	ErrTooLong      = errors.Errorf("encoding exceeds %d bytes", maxEncodedLen)
	ErrNonCanonical = errors.New("encoding is not canonical")
)

// AppendLen appends the encoding of n to dst.
func AppendLen(dst []byte, n int) ([]byte, error) {
	if n < 0 || n > math.MaxUint16 {
		return dst, ErrLenTooLarge
	}

	for n >= 0x80 {
		dst = append(dst, byte(n&0x7f)|0x80)
		n >>= 7
	}
	return append(dst, byte(n)), nil
}

// EncodeLen writes the encoding of n to w.
func EncodeLen(w io.Writer, n int) (int, error) {
	var scratch [maxEncodedLen]byte
	encoded, err := AppendLen(scratch[:0], n)
	if err != nil {
		return 0, err
	}
	return w.Write(encoded)
}

// DecodeLen reads one encoded length from r. A reader that ends before the
// length does yields io.ErrUnexpectedEOF, unless nothing was read at all.
func DecodeLen(r io.ByteReader) (int, error) {
	var n int
	for i := 0; ; i++ {
		if i == maxEncodedLen {
			return 0, ErrTooLong
		}

		b, err := r.ReadByte()
		if err == io.EOF && i > 0 {
			return 0, io.ErrUnexpectedEOF
		} else if err != nil {
			return 0, err
		}

		n |= int(b&0x7f) << (7 * i)
		if b&0x80 != 0 {
			continue
		}

		if b == 0 && i > 0 {
			return 0, ErrNonCanonical
		}
		if n > math.MaxUint16 {
			return 0, ErrLenTooLarge
		}
		return n, nil
	}
}
