package domain_test

import (
	"testing"

	"github.com/motorserv/srf-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSRFNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    domain.SRFNumber
		wantErr bool
	}{
		{name: "warranty", input: "R00001/1", want: domain.SRFNumber{Kind: domain.KindWarranty, Base: 1, Sub: 1}},
		{name: "out of warranty", input: "S00420/8", want: domain.SRFNumber{Kind: domain.KindOutOfWarranty, Base: 420, Sub: 8}},
		{name: "lower case prefix", input: "r00012/2", want: domain.SRFNumber{Kind: domain.KindWarranty, Base: 12, Sub: 2}},
		{name: "surrounding spaces", input: "  R00012/2 ", want: domain.SRFNumber{Kind: domain.KindWarranty, Base: 12, Sub: 2}},
		{name: "sub-number zero", input: "R00001/0", wantErr: true},
		{name: "sub-number nine", input: "R00001/9", wantErr: true},
		{name: "short base", input: "R0001/1", wantErr: true},
		{name: "missing sub", input: "R00001", wantErr: true},
		{name: "base zero", input: "R00000/1", wantErr: true},
		{name: "unknown prefix", input: "X00001/1", wantErr: true},
		{name: "challan prefix", input: "V00001/1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "letters in base", input: "R00A01/1", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.ParseSRFNumber(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrMalformedIdentifier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSRFNumber_String(t *testing.T) {
	n, err := domain.NewSRFNumber(domain.KindOutOfWarranty, 42, 3)
	require.NoError(t, err)

	assert.Equal(t, "S00042/3", n.String())
	assert.Equal(t, "S00042", n.BaseCode())
}

func TestParseSRFNumberOfKind_RejectsOtherPrefix(t *testing.T) {
	_, err := domain.ParseSRFNumberOfKind("S00001/1", domain.KindWarranty)
	assert.ErrorIs(t, err, domain.ErrMalformedIdentifier)

	n, err := domain.ParseSRFNumberOfKind("R00001/1", domain.KindWarranty)
	require.NoError(t, err)
	assert.Equal(t, 1, n.Base)
}

func TestNormalizeSRFNumber(t *testing.T) {
	tests := []struct {
		input string
		kind  domain.SRFKind
		want  string
	}{
		{"42/3", domain.KindWarranty, "R00042/3"},
		{"42", domain.KindWarranty, "R00042/1"},
		{"R00042/3", domain.KindWarranty, "R00042/3"},
		{"s7/2", domain.KindOutOfWarranty, "S00007/2"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := domain.NormalizeSRFNumber(tc.kind, tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := domain.NormalizeSRFNumber(domain.KindWarranty, "42/9")
	assert.ErrorIs(t, err, domain.ErrMalformedIdentifier)
	_, err = domain.NormalizeSRFNumber(domain.KindWarranty, "abc")
	assert.ErrorIs(t, err, domain.ErrMalformedIdentifier)
}

func TestIsNewRequest(t *testing.T) {
	sub, ok := domain.IsNewRequest("NEW/3")
	assert.True(t, ok)
	assert.Equal(t, 3, sub)

	sub, ok = domain.IsNewRequest("new")
	assert.True(t, ok)
	assert.Equal(t, 1, sub)

	_, ok = domain.IsNewRequest("R00001/1")
	assert.False(t, ok)
}

func TestNextBase(t *testing.T) {
	t.Run("empty table starts at one", func(t *testing.T) {
		assert.Equal(t, 1, domain.NextBase(nil, domain.PrefixWarranty))
	})

	t.Run("max plus one across sub-numbers", func(t *testing.T) {
		ids := []string{"R00001/1", "R00011/2", "R00011/1", "R00003/8"}
		assert.Equal(t, 12, domain.NextBase(ids, domain.PrefixWarranty))
	})

	t.Run("ignores other prefixes and junk", func(t *testing.T) {
		ids := []string{"S00099/1", "R00004/1", "RXXXXX/1", "R00050"}
		assert.Equal(t, 5, domain.NextBase(ids, domain.PrefixWarranty))
	})

	t.Run("never reuses a base", func(t *testing.T) {
		ids := []string{"R00001/1"}
		for i := 0; i < 5; i++ {
			next := domain.NextBase(ids, domain.PrefixWarranty)
			n, err := domain.NewSRFNumber(domain.KindWarranty, next, 1)
			require.NoError(t, err)
			for _, existing := range ids {
				assert.NotEqual(t, existing, n.String())
			}
			ids = append(ids, n.String())
		}
		assert.Equal(t, "R00006/1", ids[len(ids)-1])
	})
}

func TestChallanCodes(t *testing.T) {
	assert.Equal(t, "V00011", domain.FormatChallanCode(11))

	seq, ok := domain.ChallanSequence("V00010")
	assert.True(t, ok)
	assert.Equal(t, 10, seq)

	_, ok = domain.ChallanSequence("V")
	assert.False(t, ok)

	for _, in := range []string{"12", "v12", "V00012"} {
		got, err := domain.NormalizeChallanCode(in)
		require.NoError(t, err)
		assert.Equal(t, "V00012", got)
	}
	_, err := domain.NormalizeChallanCode("V0")
	assert.ErrorIs(t, err, domain.ErrMalformedIdentifier)
}

func TestSRFKind(t *testing.T) {
	assert.Equal(t, "R", domain.KindWarranty.Prefix())
	assert.Equal(t, "warranty", domain.KindWarranty.TableName())
	assert.Equal(t, "out_of_warranty", domain.KindOutOfWarranty.TableName())
	assert.False(t, domain.SRFKind(0).Valid())

	kind, ok := domain.KindFromPrefix("s")
	assert.True(t, ok)
	assert.Equal(t, domain.KindOutOfWarranty, kind)
}
