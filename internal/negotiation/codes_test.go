package negotiation

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode_Alphabet(t *testing.T) {
	require.Len(t, CodeAlphabet, 32)
	for _, c := range "0O1I" {
		assert.NotContains(t, CodeAlphabet, string(c))
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		code := GenerateCode(rng)
		require.Len(t, code, CodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, c), "unexpected symbol %q", c)
		}
	}
}

func TestGenerateCode_Deterministic(t *testing.T) {
	a := GenerateCodes(rand.New(rand.NewPCG(7, 7)))
	b := GenerateCodes(rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a, b)

	seq := GenerateCode(&seqRand{})
	assert.Equal(t, "ABCDEF", seq)
}

func TestGenerateCodes_Independent(t *testing.T) {
	codes := GenerateCodes(&seqRand{})

	assert.Equal(t, "ABCDEF", codes.BuyerCode)
	assert.Equal(t, "GHJKLM", codes.SellerCode)
	assert.Equal(t, "NPQRST", codes.RMCode)
}
