package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRecord(t *testing.T) {
	t.Run("nested envelope", func(t *testing.T) {
		raw := `{
			"NFe": {"infNFe": {
				"ide": {"nNF": "123", "serie": "1", "dhEmi": "2024-03-10T10:00:00-03:00", "mod": "55", "cUF": 35},
				"emit": {"CNPJ": "12345678000195", "xNome": "ACME LTDA"},
				"dest": {"CPF": "12345678909", "xNome": "Fulano"},
				"total": {"ICMSTot": {"vNF": 1234.50}}
			}},
			"protNFe": {"infProt": {"chNFe": "43241212345678000195650010000045671876543210"}}
		}`
		rec := MapRecord([]byte(raw), testKey)

		require.NotNil(t, rec.Number)
		assert.Equal(t, "123", *rec.Number)
		assert.Equal(t, "1", *rec.Series)
		assert.Equal(t, "2024-03-10T10:00:00-03:00", *rec.EmittedAt)
		assert.Equal(t, "12345678000195", *rec.IssuerTaxID)
		assert.Equal(t, "ACME LTDA", *rec.IssuerName)
		assert.Equal(t, "12345678909", *rec.RecipientTaxID)
		assert.Equal(t, "Fulano", *rec.RecipientName)
		assert.Equal(t, "1234.50", *rec.TotalValue, "numbers keep their JSON literal")
		assert.Equal(t, "55", *rec.Model)
		assert.Equal(t, "35", *rec.UF)
		assert.Equal(t, "43241212345678000195650010000045671876543210", *rec.Key, "payload key wins over fallback")
	})

	t.Run("nfeProc envelope", func(t *testing.T) {
		rec := MapRecord([]byte(`{"nfeProc": {"NFe": {"infNFe": {"ide": {"nNF": "77"}}}}}`), testKey)
		require.NotNil(t, rec.Number)
		assert.Equal(t, "77", *rec.Number)
	})

	t.Run("flat payload", func(t *testing.T) {
		raw := `{
			"numero": "456", "serie": "2", "dataEmissao": "2024-03-10",
			"emitente": {"cnpj": "11222333000181", "razaoSocial": "Loja"},
			"destinatario": {"CNPJ": "99888777000100", "razaoSocial": "Cliente"},
			"valorTotal": "99.90", "modelo": "65", "uf": "SP", "chave": "flat-key"
		}`
		rec := MapRecord([]byte(raw), testKey)

		assert.Equal(t, "456", *rec.Number)
		assert.Equal(t, "2", *rec.Series)
		assert.Equal(t, "2024-03-10", *rec.EmittedAt)
		assert.Equal(t, "11222333000181", *rec.IssuerTaxID)
		assert.Equal(t, "Loja", *rec.IssuerName)
		assert.Equal(t, "99888777000100", *rec.RecipientTaxID)
		assert.Equal(t, "Cliente", *rec.RecipientName)
		assert.Equal(t, "99.90", *rec.TotalValue)
		assert.Equal(t, "65", *rec.Model)
		assert.Equal(t, "SP", *rec.UF)
		assert.Equal(t, "flat-key", *rec.Key, "values are copied, not validated")
	})

	t.Run("nested wins over flat", func(t *testing.T) {
		rec := MapRecord([]byte(`{"numero": "456", "NFe": {"infNFe": {"ide": {"nNF": "123"}}}}`), testKey)
		assert.Equal(t, "123", *rec.Number)
	})

	t.Run("per-field fallback to flat", func(t *testing.T) {
		rec := MapRecord([]byte(`{"valorTotal": "10.00", "NFe": {"infNFe": {"ide": {"nNF": "123"}}}}`), testKey)
		assert.Equal(t, "123", *rec.Number)
		assert.Equal(t, "10.00", *rec.TotalValue)
	})

	t.Run("neither shape", func(t *testing.T) {
		rec := MapRecord([]byte(`{"status": "ok"}`), testKey)
		assert.Nil(t, rec.Number)
		assert.Nil(t, rec.IssuerName)
		require.NotNil(t, rec.Key)
		assert.Equal(t, string(testKey), *rec.Key)
	})

	t.Run("null, empty and containers are absent", func(t *testing.T) {
		rec := MapRecord([]byte(`{"numero": null, "serie": "", "modelo": {"x": 1}, "uf": [1], "valorTotal": true}`), testKey)
		assert.Nil(t, rec.Number)
		assert.Nil(t, rec.Series)
		assert.Nil(t, rec.Model)
		assert.Nil(t, rec.UF)
		assert.Equal(t, "true", *rec.TotalValue)
	})

	t.Run("not JSON", func(t *testing.T) {
		rec := MapRecord([]byte(`<html>bad gateway</html>`), testKey)
		assert.Equal(t, string(testKey), *rec.Key)
		assert.Nil(t, rec.Number)
	})

	t.Run("no fallback", func(t *testing.T) {
		rec := MapRecord([]byte(`[]`), "")
		assert.Nil(t, rec.Key)
	})
}

func TestMap_FloatValues(t *testing.T) {
	rec := Map(map[string]any{"valorTotal": 12.5}, testKey)
	assert.Equal(t, "12.5", *rec.TotalValue)
}
