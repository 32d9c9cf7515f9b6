package billing

import (
	"crypto/subtle"
	"fmt"

	"github.com/magabrotheeeer/meal-ordering/internal/models"
)

// SecretVerifier сравнивает заголовок подписи с общим секретом.
// Пустой секрет отключает проверку.
type SecretVerifier struct {
	secret string
}

// NewSecretVerifier создаёт проверку по секрету.
func NewSecretVerifier(secret string) *SecretVerifier {
	return &SecretVerifier{secret: secret}
}

// Verify проверяет подпись.
func (v *SecretVerifier) Verify(_ []byte, signature string) error {
	if v == nil || v.secret == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(signature), []byte(v.secret)) != 1 {
		return fmt.Errorf("billing.Verify: %w", models.ErrSignatureInvalid)
	}
	return nil
}
