package generator

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"hash/fnv"

	hashids "github.com/speps/go-hashids/v2"
)

const minCodeLength = 6

// ShortCodeGenerator стратегия генерации короткого кода по URL.
// Чистая функция: доступ к хранилищу и проверка коллизий — забота сервиса.
type ShortCodeGenerator interface {
	Generate(originalURL string) (string, error)
}

// HashBasedGenerator детерминированная стратегия: hashids поверх хэша URL.
// Один и тот же URL с одной солью всегда даёт один и тот же код.
type HashBasedGenerator struct {
	hashID *hashids.HashID
}

func NewHashBasedGenerator(salt string) (*HashBasedGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minCodeLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to init hashids: %w", err)
	}

	return &HashBasedGenerator{hashID: h}, nil
}

func (g *HashBasedGenerator) Generate(originalURL string) (string, error) {
	hasher := fnv.New64a()
	hasher.Write([]byte(originalURL))

	// Ограничиваем до 8 десятичных знаков, чтобы код оставался коротким
	code, err := g.hashID.EncodeInt64([]int64{int64(hasher.Sum64() % 100_000_000)})
	if err != nil {
		return "", fmt.Errorf("failed to encode short code: %w", err)
	}

	return code, nil
}

// RandomGenerator случайная URL-safe стратегия, 6 байт энтропии
type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) Generate(string) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
