// Package binary encodes and decodes the fixed size, little endian layouts
// used by on-chain account records and instruction payloads.
package binary

import (
	"crypto/ed25519"
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrLayoutSizeMismatch indicates the input length differs from the layout span.
	ErrLayoutSizeMismatch = errors.New("layout size mismatch")

	// ErrInvalidOptionTag indicates an optional field carried a tag other than 0 or 1.
	ErrInvalidOptionTag = errors.New("invalid option tag")
)

// LayoutSizeMismatchError carries the expected and actual sizes of a failed decode.
type LayoutSizeMismatchError struct {
	Expected int
	Actual   int
}

func (e *LayoutSizeMismatchError) Error() string {
	return fmt.Sprintf("layout size mismatch: expected %d bytes, got %d", e.Expected, e.Actual)
}

// Is allows errors.Is(err, ErrLayoutSizeMismatch).
func (e *LayoutSizeMismatchError) Is(target error) bool {
	return target == ErrLayoutSizeMismatch
}

// Field is a single fixed size element of a layout, bound to a Go value.
type Field interface {
	// Size is the number of bytes the field occupies.
	Size() int

	put(dst []byte)
	get(src []byte) error
}

// Span returns the total encoded size of the layout.
func Span(layout ...Field) int {
	var n int
	for _, f := range layout {
		n += f.Size()
	}
	return n
}

// Encode serializes the layout, in order, into a new buffer of exactly Span bytes.
func Encode(layout ...Field) []byte {
	b := make([]byte, Span(layout...))

	var offset int
	for _, f := range layout {
		f.put(b[offset : offset+f.Size()])
		offset += f.Size()
	}

	return b
}

// Decode parses b into the layout's bound values. The input must be exactly
// Span bytes long.
func Decode(b []byte, layout ...Field) error {
	span := Span(layout...)
	if len(b) != span {
		return &LayoutSizeMismatchError{Expected: span, Actual: len(b)}
	}

	var offset int
	for i, f := range layout {
		if err := f.get(b[offset : offset+f.Size()]); err != nil {
			return errors.Wrapf(err, "field %d at offset %d", i, offset)
		}
		offset += f.Size()
	}

	return nil
}

type uint8Field struct{ v *uint8 }

// Uint8 binds a single byte.
func Uint8(v *uint8) Field { return uint8Field{v} }

func (f uint8Field) Size() int { return 1 }
func (f uint8Field) put(dst []byte) {
	var o int
	PutUint8(dst, *f.v, &o)
}
func (f uint8Field) get(src []byte) error {
	var o int
	GetUint8(src, f.v, &o)
	return nil
}

type boolField struct{ v *bool }

// Bool binds a boolean stored as a single byte.
func Bool(v *bool) Field { return boolField{v} }

func (f boolField) Size() int { return 1 }
func (f boolField) put(dst []byte) {
	dst[0] = 0
	if *f.v {
		dst[0] = 1
	}
}
func (f boolField) get(src []byte) error {
	*f.v = src[0] != 0
	return nil
}

type uint32Field struct{ v *uint32 }

// Uint32 binds a little endian u32.
func Uint32(v *uint32) Field { return uint32Field{v} }

func (f uint32Field) Size() int { return 4 }
func (f uint32Field) put(dst []byte) {
	var o int
	PutUint32(dst, *f.v, &o)
}
func (f uint32Field) get(src []byte) error {
	var o int
	GetUint32(src, f.v, &o)
	return nil
}

type uint64Field struct{ v *uint64 }

// Uint64 binds a little endian u64. The full range [0, 2^64-1] round trips.
func Uint64(v *uint64) Field { return uint64Field{v} }

func (f uint64Field) Size() int { return 8 }
func (f uint64Field) put(dst []byte) {
	var o int
	PutUint64(dst, *f.v, &o)
}
func (f uint64Field) get(src []byte) error {
	var o int
	GetUint64(src, f.v, &o)
	return nil
}

type key32Field struct{ v *ed25519.PublicKey }

// Key32 binds a 32 byte public key. A nil key encodes as zeros.
func Key32(v *ed25519.PublicKey) Field { return key32Field{v} }

func (f key32Field) Size() int { return ed25519.PublicKeySize }
func (f key32Field) put(dst []byte) {
	var o int
	PutKey32(dst, *f.v, &o)
}
func (f key32Field) get(src []byte) error {
	var o int
	GetKey32(src, f.v, &o)
	return nil
}

type optionalKey32Field struct {
	v   *ed25519.PublicKey
	tag OptionTag
}

// OptionalKey32 binds a public key preceded by a presence tag of tagSize
// bytes. A nil key is absent. It panics if tagSize is not a valid width.
func OptionalKey32(v *ed25519.PublicKey, tagSize OptionTag) Field {
	mustValidTag(tagSize)
	return optionalKey32Field{v: v, tag: tagSize}
}

func (f optionalKey32Field) Size() int { return int(f.tag) + ed25519.PublicKeySize }
func (f optionalKey32Field) put(dst []byte) {
	var o int
	PutOptionalKey32(dst, *f.v, &o, f.tag)
}
func (f optionalKey32Field) get(src []byte) error {
	var o int
	return GetOptionalKey32(src, f.v, &o, f.tag)
}

type optionalUint64Field struct {
	v   **uint64
	tag OptionTag
}

// OptionalUint64 binds a u64 preceded by a presence tag of tagSize bytes. It
// panics if tagSize is not a valid width.
func OptionalUint64(v **uint64, tagSize OptionTag) Field {
	mustValidTag(tagSize)
	return optionalUint64Field{v: v, tag: tagSize}
}

func (f optionalUint64Field) Size() int { return int(f.tag) + 8 }
func (f optionalUint64Field) put(dst []byte) {
	var o int
	PutOptionalUint64(dst, *f.v, &o, f.tag)
}
func (f optionalUint64Field) get(src []byte) error {
	var o int
	return GetOptionalUint64(src, f.v, &o, f.tag)
}

type blobField struct {
	v *[]byte
	n int
}

// Blob binds a fixed length byte string of n bytes. Shorter values are zero
// padded on encode and longer values are truncated to n bytes.
func Blob(v *[]byte, n int) Field { return blobField{v: v, n: n} }

func (f blobField) Size() int { return f.n }
func (f blobField) put(dst []byte) {
	copy(dst, *f.v)
}
func (f blobField) get(src []byte) error {
	*f.v = make([]byte, f.n)
	copy(*f.v, src)
	return nil
}

func mustValidTag(t OptionTag) {
	if !t.Valid() {
		panic(fmt.Sprintf("binary: invalid option tag width %d", t))
	}
}

type paddingField int

// Padding reserves n zero bytes that are ignored on decode.
func Padding(n int) Field { return paddingField(n) }

func (f paddingField) Size() int          { return int(f) }
func (f paddingField) put(_ []byte)       {}
func (f paddingField) get(_ []byte) error { return nil }
