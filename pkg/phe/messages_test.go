package phe

import (
	"bytes"
	"errors"
	"testing"

	"github.com/codahale/gubbins/assert"
	"github.com/codahale/phe/pkg/phe/internal/der"
)

// P-256 part sizes: nonce, uncompressed point, and a framed proof of two 32-byte scalars.
const (
	testNonceSize = 32
	testPointSize = 65
	testProofSize = 2 + 2*(2+32)
)

func TestEnrollmentResponse_Binary(t *testing.T) {
	t.Parallel()

	in := &EnrollmentResponse{
		NS:    filled(testNonceSize, 1),
		C0:    filled(testPointSize, 2),
		C1:    filled(testPointSize, 3),
		Proof: filled(testProofSize, 4),
	}

	data, err := in.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	var out EnrollmentResponse
	if err := out.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "round trip", in, &out)

	var fe *der.FormatError
	if err := out.UnmarshalBinary(data[:len(data)-1]); !errors.As(err, &fe) {
		t.Errorf("truncated: %v", err)
	}

	short, err := der.Encode(in.NS, in.C0)
	if err != nil {
		t.Fatal(err)
	}

	if err := out.UnmarshalBinary(short); !errors.As(err, &fe) {
		t.Errorf("missing parts: %v", err)
	}
}

func TestEnrollmentResponse_WrongSizes(t *testing.T) {
	t.Parallel()

	p384Point := filled(97, 2)

	for name, tc := range map[string]struct {
		parts [][]byte
		bad   int
	}{
		"one-byte parts": {
			parts: [][]byte{{1}, {2}, {3}, {4}},
			bad:   0,
		},
		"short nonce": {
			parts: [][]byte{filled(testNonceSize-1, 1), filled(testPointSize, 2), filled(testPointSize, 3), filled(testProofSize, 4)},
			bad:   0,
		},
		"unknown point size": {
			parts: [][]byte{filled(testNonceSize, 1), filled(testPointSize-1, 2), filled(testPointSize, 3), filled(testProofSize, 4)},
			bad:   1,
		},
		"mixed suites": {
			parts: [][]byte{filled(testNonceSize, 1), p384Point, filled(testPointSize, 3), filled(testProofSize, 4)},
			bad:   2,
		},
		"short proof": {
			parts: [][]byte{filled(testNonceSize, 1), filled(testPointSize, 2), filled(testPointSize, 3), filled(testProofSize-1, 4)},
			bad:   3,
		},
	} {
		data, err := der.Encode(tc.parts...)
		if err != nil {
			t.Fatal(err)
		}

		var fe *der.FormatError
		if err := new(EnrollmentResponse).UnmarshalBinary(data); !errors.As(err, &fe) {
			t.Errorf("%s: expected FormatError, got %v", name, err)

			continue
		}

		assert.Equal(t, name+" offset", der.PartOffset(data, tc.bad), fe.Offset)
	}
}

func TestEnrollmentRecord_Text(t *testing.T) {
	t.Parallel()

	in := &EnrollmentRecord{
		NS: filled(testNonceSize, 1),
		NC: filled(testNonceSize, 2),
		T0: filled(testPointSize, 3),
		T1: filled(testPointSize, 4),
	}

	text, err := in.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var out EnrollmentRecord
	if err := out.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "round trip", in, &out)

	swapped, err := der.Encode(in.T0, in.T1, in.NS, in.NC)
	if err != nil {
		t.Fatal(err)
	}

	var fe *der.FormatError
	if err := out.UnmarshalBinary(swapped); !errors.As(err, &fe) {
		t.Errorf("swapped parts: %v", err)
	}
}

func TestEnrollmentRecord_P521(t *testing.T) {
	t.Parallel()

	in := &EnrollmentRecord{
		NS: filled(testNonceSize, 1),
		NC: filled(testNonceSize, 2),
		T0: filled(133, 3),
		T1: filled(133, 4),
	}

	data, err := in.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	var out EnrollmentRecord
	if err := out.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "round trip", in, &out)
}

func TestVerifyPasswordRequest_Binary(t *testing.T) {
	t.Parallel()

	in := &VerifyPasswordRequest{NS: filled(testNonceSize, 1), C0: filled(testPointSize, 2)}

	data, err := in.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	var out VerifyPasswordRequest
	if err := out.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "round trip", in, &out)

	short, err := der.Encode([]byte("ns"), in.C0)
	if err != nil {
		t.Fatal(err)
	}

	var fe *der.FormatError
	if err := out.UnmarshalBinary(short); !errors.As(err, &fe) {
		t.Errorf("short nonce: %v", err)
	}
}

func TestVerifyPasswordResponse_Binary(t *testing.T) {
	t.Parallel()

	for name, in := range map[string]*VerifyPasswordResponse{
		"success": {Success: true, C1: filled(testPointSize, 1), Proof: filled(testProofSize, 2)},
		"failure": {Success: false},
	} {
		data, err := in.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}

		var out VerifyPasswordResponse
		if err := out.UnmarshalBinary(data); err != nil {
			t.Fatal(err)
		}

		assert.Equal(t, name, in, &out)
	}

	failure, err := (&VerifyPasswordResponse{}).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "failure encoding", []byte{0x30, 0x03, 0x04, 0x01, 0x00}, failure)

	for _, tc := range []struct {
		name   string
		parts  [][]byte
		offset int
	}{
		{"empty", [][]byte{}, 2},
		{"bad flag", [][]byte{{2}}, 2},
		{"long flag", [][]byte{{0, 0}}, 2},
		{"failure with extras", [][]byte{{0}, []byte("c1"), []byte("proof")}, 5},
		{"success with short c1", [][]byte{{1}, []byte("c1"), filled(testProofSize, 2)}, 5},
	} {
		data, err := der.Encode(tc.parts...)
		if err != nil {
			t.Fatal(err)
		}

		var fe *der.FormatError
		if err := new(VerifyPasswordResponse).UnmarshalBinary(data); !errors.As(err, &fe) {
			t.Errorf("%s: expected FormatError, got %v", tc.name, err)

			continue
		}

		assert.Equal(t, tc.name+" offset", tc.offset, fe.Offset)
	}
}

func filled(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}
