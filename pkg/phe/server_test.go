package phe

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/codahale/gubbins/assert"
	"github.com/codahale/phe/pkg/phe/internal"
	"github.com/codahale/phe/pkg/phe/internal/der"
	"github.com/rs/zerolog"
)

func TestServer_GetEnrollment(t *testing.T) {
	t.Parallel()

	server, _ := setup(t, P256())

	a, err := server.GetEnrollment()
	if err != nil {
		t.Fatal(err)
	}

	b, err := server.GetEnrollment()
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "nonce length", internal.NonceSize, len(a.NS))
	assert.Equal(t, "point length", P256().g.PointSize(), len(a.C0))

	if bytes.Equal(a.NS, b.NS) || bytes.Equal(a.C0, b.C0) {
		t.Error("enrollments repeat")
	}
}

func TestServer_VerifyPassword_Malformed(t *testing.T) {
	t.Parallel()

	server, client := setup(t, P256())
	rec, _ := enroll(t, server, client, "password")

	req, err := client.CreateVerifyPasswordRequest([]byte("password"), rec)
	if err != nil {
		t.Fatal(err)
	}

	var fe *der.FormatError
	if _, err := server.VerifyPassword(&VerifyPasswordRequest{NS: req.NS[1:], C0: req.C0}); !errors.As(err, &fe) {
		t.Errorf("short nonce: %v", err)
	}

	if _, err := server.VerifyPassword(&VerifyPasswordRequest{NS: req.NS, C0: flip(req.C0)}); !errors.Is(err, ErrInvalidPoint) {
		t.Errorf("off-curve c0: %v", err)
	}

	// A valid point which is not x·hs0 is a failed verification, not an error.
	resp, err := server.VerifyPassword(&VerifyPasswordRequest{NS: req.NS, C0: rec.T0})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Success {
		t.Error("unstripped record accepted")
	}
}

func TestServer_Logging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	server, client := setup(t, P256(), WithLogger(log))
	rec, _ := enroll(t, server, client, "hunter2")

	req, err := client.CreateVerifyPasswordRequest([]byte("wrong"), rec)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := server.VerifyPassword(req)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.CheckResponseAndDecrypt([]byte("wrong"), rec, resp); !errors.Is(err, ErrInvalidPassword) {
		t.Fatal(err)
	}

	out := buf.String()

	for _, msg := range []string{"enrollment issued", "account enrolled", "password mismatch", "password rejected"} {
		if !strings.Contains(out, msg) {
			t.Errorf("missing %q event in %s", msg, out)
		}
	}

	if !strings.Contains(out, `"suite":"P-256"`) {
		t.Errorf("missing suite field in %s", out)
	}

	if strings.Contains(out, "hunter2") {
		t.Error("password logged")
	}
}
