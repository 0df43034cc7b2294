package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// OptionTag is the width in bytes of the presence tag before an optional
// value. Account records use a 4 byte COption tag, while instruction payloads
// use a single byte.
type OptionTag int

const (
	OptionTag8  OptionTag = 1
	OptionTag32 OptionTag = 4
)

// Valid reports whether t is one of the supported tag widths.
func (t OptionTag) Valid() bool {
	return t == OptionTag8 || t == OptionTag32
}

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst[:ed25519.PublicKeySize], src)
	*offset += ed25519.PublicKeySize
}

func PutOptionalKey32(dst []byte, src []byte, offset *int, optionSize OptionTag) {
	n := int(optionSize)
	PutOptionTag(dst, len(src) > 0, optionSize)
	if len(src) > 0 {
		copy(dst[n:n+ed25519.PublicKeySize], src)
	}

	*offset += n + ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

func PutOptionalUint64(dst []byte, v *uint64, offset *int, optionSize OptionTag) {
	PutOptionTag(dst, v != nil, optionSize)
	if v != nil {
		binary.LittleEndian.PutUint64(dst[optionSize:], *v)
	}
	*offset += int(optionSize) + 8
}

// PutOptionTag writes a little endian presence tag of optionSize bytes.
func PutOptionTag(dst []byte, present bool, optionSize OptionTag) {
	for i := 0; i < int(optionSize); i++ {
		dst[i] = 0
	}
	if present {
		dst[0] = 1
	}
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src)
	*offset += ed25519.PublicKeySize
}

// GetOptionalKey32 reads an optional key. When the tag marks the value as
// absent, dst is set to nil and the value bytes are skipped.
func GetOptionalKey32(src []byte, dst *ed25519.PublicKey, offset *int, optionSize OptionTag) error {
	present, err := GetOptionTag(src, optionSize)
	if err != nil {
		return err
	}

	*dst = nil
	if present {
		*dst = make([]byte, ed25519.PublicKeySize)
		copy(*dst, src[optionSize:])
	}
	*offset += int(optionSize) + ed25519.PublicKeySize
	return nil
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src)
	*offset += 4
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset += 1
}

func GetOptionalUint64(src []byte, dst **uint64, offset *int, optionSize OptionTag) error {
	present, err := GetOptionTag(src, optionSize)
	if err != nil {
		return err
	}

	*dst = nil
	if present {
		val := binary.LittleEndian.Uint64(src[optionSize:])
		*dst = &val
	}
	*offset += int(optionSize) + 8
	return nil
}

// GetOptionTag reads a presence tag of optionSize bytes. Only 0 and 1 are
// valid tag values.
func GetOptionTag(src []byte, optionSize OptionTag) (bool, error) {
	var tag uint32
	switch optionSize {
	case OptionTag8:
		tag = uint32(src[0])
	case OptionTag32:
		tag = binary.LittleEndian.Uint32(src)
	default:
		return false, ErrInvalidOptionTag
	}

	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidOptionTag
	}
}
