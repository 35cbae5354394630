package negotiation

import (
	"math/rand/v2"
	"strings"

	"github.com/senyabanana/unlisted-market/internal/models"
)

// CodeAlphabet не содержит символов 0, O, 1 и I, которые легко спутать при диктовке.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength - длина кода подтверждения.
const CodeLength = 6

// RandSource - источник случайности для кодов. *rand.Rand удовлетворяет интерфейсу.
type RandSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultRandSource использует глобальный генератор math/rand/v2, безопасный для конкурентного доступа.
func DefaultRandSource() RandSource {
	return globalSource{}
}

// GenerateCode возвращает код подтверждения. Это не секрет, а короткая метка для звонка RM.
func GenerateCode(rng RandSource) string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(CodeAlphabet[rng.IntN(len(CodeAlphabet))])
	}
	return b.String()
}

// GenerateCodes выдает три независимых кода: покупателю, продавцу и RM.
func GenerateCodes(rng RandSource) models.DealCodes {
	return models.DealCodes{
		BuyerCode:  GenerateCode(rng),
		SellerCode: GenerateCode(rng),
		RMCode:     GenerateCode(rng),
	}
}
