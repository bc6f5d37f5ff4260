package transcript

import (
	"bytes"
	"testing"

	"github.com/codahale/gubbins/assert"
	"github.com/codahale/phe/pkg/phe/internal/curve"
)

func TestDeterministic(t *testing.T) {
	t.Parallel()

	a := New("phe.test")
	a.Append("message", []byte("hello"))

	b := New("phe.test")
	b.Append("message", []byte("hello"))

	assert.Equal(t, "challenge", a.PRF("challenge", 32), b.PRF("challenge", 32))
}

func TestDomainSeparation(t *testing.T) {
	t.Parallel()

	base := func() *Transcript {
		tr := New("phe.test")
		tr.Append("message", []byte("hello"))

		return tr
	}

	want := base().PRF("challenge", 32)

	for name, tr := range map[string]*Transcript{
		"name": func() *Transcript {
			tr := New("phe.other")
			tr.Append("message", []byte("hello"))

			return tr
		}(),
		"label": func() *Transcript {
			tr := New("phe.test")
			tr.Append("massage", []byte("hello"))

			return tr
		}(),
		"message": func() *Transcript {
			tr := New("phe.test")
			tr.Append("message", []byte("hellO"))

			return tr
		}(),
		"split": func() *Transcript {
			tr := New("phe.test")
			tr.Append("message", []byte("hel"))
			tr.Append("message", []byte("lo"))

			return tr
		}(),
	} {
		if bytes.Equal(want, tr.PRF("challenge", 32)) {
			t.Errorf("%s: transcripts collide", name)
		}
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	a := New("phe.test")
	a.Append("message", []byte("hello"))

	b := a.Clone()
	b.KEY([]byte("secret"))

	c := a.Clone()

	if bytes.Equal(b.PRF("nonce", 32), c.PRF("nonce", 32)) {
		t.Error("keyed clone matches unkeyed clone")
	}

	d := New("phe.test")
	d.Append("message", []byte("hello"))

	assert.Equal(t, "parent unaffected", d.PRF("challenge", 32), a.PRF("challenge", 32))
}

func TestKEY_CopiesSecret(t *testing.T) {
	t.Parallel()

	secret := []byte("this is a secret")

	tr := New("phe.test")
	tr.KEY(secret)
	_ = tr.PRF("nonce", 32)

	assert.Equal(t, "secret", []byte("this is a secret"), secret)
}

func TestKEYRand(t *testing.T) {
	t.Parallel()

	a := New("phe.test")
	if err := a.KEYRand(bytes.NewReader(bytes.Repeat([]byte{1}, 64)), 64); err != nil {
		t.Fatal(err)
	}

	b := New("phe.test")
	b.KEY(bytes.Repeat([]byte{1}, 64))

	assert.Equal(t, "keyed output", b.PRF("nonce", 32), a.PRF("nonce", 32))

	if err := New("phe.test").KEYRand(bytes.NewReader(nil), 64); err == nil {
		t.Error("short random source accepted")
	}
}

func TestPRFScalar(t *testing.T) {
	t.Parallel()

	for _, g := range []*curve.Curve{curve.P256(), curve.P521()} {
		s := New("phe.test").PRFScalar("challenge", g)

		if s.IsZero() {
			t.Errorf("%s: zero challenge", g)
		}

		assert.Equal(t, g.String()+" scalar size", g.ScalarSize(), len(s.Bytes()))
	}
}
