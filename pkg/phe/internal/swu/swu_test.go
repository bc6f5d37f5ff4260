package swu

import (
	"crypto/rand"
	"crypto/sha512"
	"math/big"
	"testing"

	"github.com/codahale/gubbins/assert"
	"github.com/codahale/phe/pkg/phe/internal/curve"
)

func TestDataToPoint_KnownAnswer(t *testing.T) {
	t.Parallel()

	data := []byte{
		0x02, 0x6c, 0x68, 0xba, 0x79, 0x9b, 0x95, 0x8d,
		0xa1, 0xdd, 0xec, 0x47, 0xcf, 0x77, 0xb6, 0x1a,
		0x68, 0xe3, 0x27, 0xbb, 0x16, 0xdd, 0x04, 0x6f,
		0x90, 0xfe, 0x2d, 0x7e, 0x46, 0xc7, 0x86, 0x1b,
		0xf9, 0x7a, 0xdb, 0xda, 0x15, 0xef, 0x5c, 0x13,
		0x63, 0xe7, 0x0d, 0x7c, 0xfa, 0x78, 0x24, 0xca,
		0xb9, 0x29, 0x74, 0x96, 0x09, 0x47, 0x15, 0x4d,
		0x34, 0xc4, 0x38, 0xe3, 0xeb, 0xcf, 0xfc, 0xbc,
	}

	p := mustMapper(t, curve.P256()).DataToPoint(data)

	assert.Equal(t, "x",
		"41644486759784367771047752285976210905566569374059610763941558650382638987514", p.X().String())
	assert.Equal(t, "y",
		"47123545766650584118634862924645280635136629360149764686957339607865971771956", p.Y().String())
}

func TestDataToPoint_Chained(t *testing.T) {
	t.Parallel()

	g := curve.P256()
	m := mustMapper(t, g)

	seed := sha512.Sum512([]byte{
		0x80, 0x39, 0x05, 0x35, 0x49, 0x44, 0x70, 0xbe,
		0x0b, 0x29, 0x65, 0x01, 0x58, 0x6b, 0xfc, 0xd9,
		0xe1, 0x31, 0xc3, 0x9e, 0x2d, 0xec, 0xc7, 0x53,
		0xd4, 0xf2, 0x5f, 0xdd, 0xd2, 0x28, 0x1e, 0xe3,
	})
	h := seed[:]

	n := 15000
	if testing.Short() {
		n = 500
	}

	for i := 0; i <= n; i++ {
		if p := m.DataToPoint(h); !g.IsOnCurve(p) {
			t.Fatalf("iteration %d: %v is not on the curve", i, p)
		}

		next := sha512.Sum512(h)
		h = next[:]
	}
}

func TestDataToPoint_Random(t *testing.T) {
	t.Parallel()

	for _, g := range []*curve.Curve{curve.P256(), curve.P384(), curve.P521()} {
		m := mustMapper(t, g)
		buf := make([]byte, 32)

		for i := 0; i < 200; i++ {
			if _, err := rand.Read(buf); err != nil {
				t.Fatal(err)
			}

			if p := m.DataToPoint(buf); !g.IsOnCurve(p) {
				t.Fatalf("%s: %v is not on the curve", g, p)
			}
		}
	}
}

func TestDataToPoint_Deterministic(t *testing.T) {
	t.Parallel()

	m := mustMapper(t, curve.P256())

	a := m.DataToPoint([]byte("username"))
	b := m.DataToPoint([]byte("username"))
	c := m.DataToPoint([]byte("usernamf"))

	assert.Equal(t, "same input", a.Bytes(), b.Bytes())

	if a.Equal(c) {
		t.Error("different inputs map to the same point")
	}
}

func TestMapToPoint_Degenerate(t *testing.T) {
	t.Parallel()

	g := curve.P256()
	m := mustMapper(t, g)

	want := m.MapToPoint([]byte{2})

	assert.Equal(t, "x",
		"114536485943000598870135015071451368576421060530053282563177802851594253046924", want.X().String())
	assert.Equal(t, "y",
		"8528750908479476016950017012513879620587030234301861818819190097092176741979", want.Y().String())

	pm1 := new(big.Int).Sub(g.Params().P, big.NewInt(1))

	for name, digest := range map[string][]byte{
		"empty": nil,
		"zero":  {0x00},
		"one":   {0x01},
		"p":     g.Params().P.Bytes(),
		"p-1":   pm1.Bytes(),
		"p+1":   new(big.Int).Add(g.Params().P, big.NewInt(1)).Bytes(),
	} {
		p := m.MapToPoint(digest)
		if !g.IsOnCurve(p) {
			t.Errorf("%s: %v is not on the curve", name, p)
		}

		assert.Equal(t, name, want.Bytes(), p.Bytes())
	}
}

func TestMapToPoint_Reduced(t *testing.T) {
	t.Parallel()

	g := curve.P256()
	m := mustMapper(t, g)

	t3 := new(big.Int).Add(g.Params().P, big.NewInt(3))

	assert.Equal(t, "t+p",
		"(24061621513578125471907680398065715235819402403046564514898669934228499905182, "+
			"20675599249043904493608900776544495264099433774014000770537269515509870997617)",
		m.MapToPoint(t3.Bytes()).String())
	assert.Equal(t, "t", m.MapToPoint([]byte{3}).Bytes(), m.MapToPoint(t3.Bytes()).Bytes())
}

func TestNew_InvalidParams(t *testing.T) {
	t.Parallel()

	base := curve.P256().Params()

	for name, mutate := range map[string]func(p *curve.Params){
		"composite modulus": func(p *curve.Params) { p.P = new(big.Int).Mul(base.P, big.NewInt(3)) },
		"modulus 1 mod 4":   func(p *curve.Params) { p.P = big.NewInt(13) },
		"zero A":            func(p *curve.Params) { p.A = new(big.Int) },
		"zero B":            func(p *curve.Params) { p.B = new(big.Int).Set(base.P) },
	} {
		params := *base
		mutate(&params)

		if _, err := New(&paramsGroup{Curve: curve.P256(), params: &params}); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

type paramsGroup struct {
	*curve.Curve
	params *curve.Params
}

func (g *paramsGroup) Params() *curve.Params {
	return g.params
}

func mustMapper(t *testing.T, g curve.Group) *Mapper {
	t.Helper()

	m, err := New(g)
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func BenchmarkDataToPoint(b *testing.B) {
	m, err := New(curve.P256())
	if err != nil {
		b.Fatal(err)
	}

	data := []byte("a username")

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = m.DataToPoint(data)
	}
}
