package generator_test

import (
	"fmt"
	"testing"

	"github.com/Hack-Ray/slink/internal/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHashBasedGenerator_Deterministic проверяет детерминированность:
// один URL и одна соль всегда дают один код
func TestHashBasedGenerator_Deterministic(t *testing.T) {
	gen, err := generator.NewHashBasedGenerator("salt-1")
	require.NoError(t, err)

	first, err := gen.Generate("https://example.com/page")
	require.NoError(t, err)

	second, err := gen.Generate("https://example.com/page")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, len(first), 6)
}

// TestHashBasedGenerator_SaltChangesCode проверяет, что соль влияет на код
func TestHashBasedGenerator_SaltChangesCode(t *testing.T) {
	genA, err := generator.NewHashBasedGenerator("salt-a")
	require.NoError(t, err)
	genB, err := generator.NewHashBasedGenerator("salt-b")
	require.NoError(t, err)

	codeA, err := genA.Generate("https://example.com")
	require.NoError(t, err)
	codeB, err := genB.Generate("https://example.com")
	require.NoError(t, err)

	assert.NotEqual(t, codeA, codeB)
}

// TestHashBasedGenerator_DifferentURLs проверяет разнообразие кодов
func TestHashBasedGenerator_DifferentURLs(t *testing.T) {
	gen, err := generator.NewHashBasedGenerator("salt-1")
	require.NoError(t, err)

	codes := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := gen.Generate(fmt.Sprintf("https://example.com/page/%d", i))
		require.NoError(t, err)
		codes[code] = true
	}

	// Хэш не инъективен, но на сотне URL коллизии практически исключены
	assert.Len(t, codes, 100)
}

// TestRandomGenerator_Unique проверяет уникальность и длину случайных кодов
func TestRandomGenerator_Unique(t *testing.T) {
	gen := generator.NewRandomGenerator()

	codes := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := gen.Generate("https://example.com")
		require.NoError(t, err)
		assert.Len(t, code, 8) // 6 байт в base64 без паддинга
		assert.NotContains(t, codes, code)
		codes[code] = true
	}
}
