package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dsakyc/pkg/domain-errors"
)

func TestParseAadhaar(t *testing.T) {
	t.Run("accepts checksum-valid numbers with separators", func(t *testing.T) {
		for _, in := range []string{"234123412346", "2341 2341 2346", "4987-6543-2102", " 999988887779 "} {
			_, err := ParseAadhaar(in)
			assert.NoError(t, err, in)
		}
	})

	t.Run("rejects malformed numbers", func(t *testing.T) {
		for _, in := range []string{"", "12345", "23412341234X", "134123412346", "234123412347", "0234123412346"} {
			_, err := ParseAadhaar(in)
			require.Error(t, err, in)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), in)
		}
	})

	t.Run("masks all but the last four digits", func(t *testing.T) {
		a, err := ParseAadhaar("2341 2341 2346")
		require.NoError(t, err)
		assert.Equal(t, "XXXX-XXXX-2346", a.Masked())
		assert.Equal(t, "XXXX XXXX 1234", MaskWithShareCode("1234"))
	})
}

func TestParsePAN(t *testing.T) {
	p, err := ParsePAN(" abcpe1234f ")
	require.NoError(t, err)
	assert.Equal(t, PAN("ABCPE1234F"), p)
	assert.Equal(t, byte('P'), p.HolderType())
	assert.Equal(t, "****234F", p.Redacted())

	for _, in := range []string{"", "ABCDE12345", "ABCD1234F", "12345ABCDE"} {
		_, err := ParsePAN(in)
		assert.Error(t, err, in)
	}
}

func TestParseIFSCAndAccount(t *testing.T) {
	i, err := ParseIFSC("hdfc0001234")
	require.NoError(t, err)
	assert.Equal(t, IFSC("HDFC0001234"), i)

	_, err = ParseIFSC("HDFC1001234")
	assert.Error(t, err)

	a, err := ParseAccountNumber("001234567890")
	require.NoError(t, err)
	assert.Equal(t, "****7890", a.Redacted())

	_, err = ParseAccountNumber("12AB")
	assert.Error(t, err)
}
