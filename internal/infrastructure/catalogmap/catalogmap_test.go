package catalogmap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seed = `
products:
  - schema: relational
    id: ring-1
    name: Solitaire Ring
    price: "249.99"
    stock: 5
  - schema: document
    _id: neck-1
    name: Pearl Necklace
    price: 89.5
    stock: 3
    inStock: true
  - schema: document
    _id: brace-1
    name: Charm Bracelet
    price: 45
    stock: 7
    inStock: false
  - schema: document
    _id: ear-1
    price: 19.99
`

func TestParse_BothSchemas(t *testing.T) {
	entries, err := Parse([]byte(seed))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "ring-1", entries[0].Product.ID)
	assert.Equal(t, "249.99", entries[0].Product.Price.StringFixed(2))
	assert.Equal(t, 5, entries[0].Stock)

	assert.Equal(t, "89.50", entries[1].Product.Price.StringFixed(2))
	assert.Equal(t, 3, entries[1].Stock)

	assert.Equal(t, 0, entries[2].Stock, "inStock=false wins over stock")

	assert.Equal(t, "ear-1", entries[3].Product.Name)
	assert.Equal(t, "19.99", entries[3].Product.Price.String())
	assert.Equal(t, documentDefaultStock, entries[3].Stock)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown schema": "products:\n  - schema: graph\n    id: x\n",
		"bad price":      "products:\n  - schema: relational\n    id: x\n    price: abc\n",
		"missing id":     "products:\n  - schema: document\n    price: 1\n",
		"negative stock": "products:\n  - schema: relational\n    id: x\n    price: \"1\"\n    stock: -1\n",
		"duplicate id":   "products:\n  - schema: relational\n    id: x\n    price: \"1\"\n  - schema: document\n    _id: x\n    price: 1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApply_KeepsExistingStock(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalog()
	ledger := memory.NewLedger()
	require.NoError(t, ledger.Restock(ctx, "ring-1", 1))

	entries, err := Parse([]byte(seed))
	require.NoError(t, err)
	res, err := Apply(ctx, entries, cat, ledger)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Products)
	assert.Equal(t, 3, res.StockInitialized)

	n, _ := ledger.Available(ctx, "ring-1")
	assert.Equal(t, 1, n)
	n, _ = ledger.Available(ctx, "brace-1")
	assert.Equal(t, 0, n)

	p, err := cat.Product(ctx, "neck-1")
	require.NoError(t, err)
	assert.Equal(t, "Pearl Necklace", p.Name)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	entries, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
