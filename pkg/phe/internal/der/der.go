// Package der frames ordered lists of byte strings as a DER SEQUENCE OF OCTET STRING.
//
//     30 <len> { 04 <len> <payload> }*
//
// Lengths use DER's minimal short form below 128 bytes and long form above. Decoding accepts only
// that canonical form, so Encode(Decode(r)) == r for every record Decode accepts.
package der

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// FormatError reports a malformed record and the offset at which decoding failed.
type FormatError struct {
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("der: %s at offset %d", e.Reason, e.Offset)
}

// Encode frames the given parts, in order.
func Encode(parts ...[]byte) ([]byte, error) {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, p := range parts {
			b.AddASN1OctetString(p)
		}
	})

	return b.Bytes()
}

// Decode parses a record into its parts. The parts are copies of the record's contents.
func Decode(record []byte) ([][]byte, error) {
	input := cryptobyte.String(record)

	if !input.PeekASN1Tag(asn1.SEQUENCE) {
		return nil, &FormatError{Offset: 0, Reason: "expected SEQUENCE"}
	}

	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) {
		return nil, &FormatError{Offset: 1, Reason: "invalid SEQUENCE length"}
	}

	end := len(record) - len(input)
	if !input.Empty() {
		return nil, &FormatError{Offset: end, Reason: "trailing data"}
	}

	parts := make([][]byte, 0, 4)

	for !seq.Empty() {
		offset := end - len(seq)

		if !seq.PeekASN1Tag(asn1.OCTET_STRING) {
			return nil, &FormatError{Offset: offset, Reason: "expected OCTET STRING"}
		}

		var part cryptobyte.String
		if !seq.ReadASN1(&part, asn1.OCTET_STRING) {
			return nil, &FormatError{Offset: offset, Reason: "invalid OCTET STRING length"}
		}

		parts = append(parts, append([]byte{}, part...))
	}

	return parts, nil
}

// DecodeN parses a record which must contain exactly n parts.
func DecodeN(record []byte, n int) ([][]byte, error) {
	parts, err := Decode(record)
	if err != nil {
		return nil, err
	}

	if len(parts) != n {
		return nil, &FormatError{
			Offset: len(record),
			Reason: fmt.Sprintf("expected %d parts, found %d", n, len(parts)),
		}
	}

	return parts, nil
}

// DecodeSized parses a record which must contain exactly len(sizes) parts, the i-th of which must
// be exactly sizes[i] bytes long.
func DecodeSized(record []byte, sizes ...int) ([][]byte, error) {
	parts, err := DecodeN(record, len(sizes))
	if err != nil {
		return nil, err
	}

	for i, p := range parts {
		if len(p) != sizes[i] {
			return nil, &FormatError{
				Offset: PartOffset(record, i),
				Reason: fmt.Sprintf("part %d is %d bytes, expected %d", i, len(p), sizes[i]),
			}
		}
	}

	return parts, nil
}

// PartOffset returns the offset of the i-th part of a record Decode accepts, or the end of the
// record if it has fewer than i+1 parts.
func PartOffset(record []byte, i int) int {
	input := cryptobyte.String(record)

	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) {
		return 0
	}

	end := len(record) - len(input)

	for j := 0; j < i; j++ {
		if !seq.SkipASN1(asn1.OCTET_STRING) {
			break
		}
	}

	return end - len(seq)
}
