package registry

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Shimizu-Technology/nfe-key-api/internal/accesskey"
	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
)

// envelopes are the nested shapes the registry wraps an invoice in.
var envelopes = []string{"NFe.infNFe", "nfeProc.NFe.infNFe"}

// field lists where one record field may live. nested paths are relative to
// each envelope; flat paths are from the document root.
type field struct {
	nested []string
	flat   []string
	set    func(r *models.InvoiceRecord, v *string)
}

var fields = []field{
	{
		// The key sits in the protocol part, next to the envelope.
		flat: []string{"protNFe.infProt.chNFe", "nfeProc.protNFe.infProt.chNFe", "chNFe", "chave"},
		set:  func(r *models.InvoiceRecord, v *string) { r.Key = v },
	},
	{
		nested: []string{"ide.nNF"},
		flat:   []string{"ide.nNF", "numero"},
		set:    func(r *models.InvoiceRecord, v *string) { r.Number = v },
	},
	{
		nested: []string{"ide.serie"},
		flat:   []string{"ide.serie", "serie"},
		set:    func(r *models.InvoiceRecord, v *string) { r.Series = v },
	},
	{
		nested: []string{"ide.dhEmi", "ide.dEmi"},
		flat:   []string{"ide.dhEmi", "ide.dEmi", "dataEmissao"},
		set:    func(r *models.InvoiceRecord, v *string) { r.EmittedAt = v },
	},
	{
		nested: []string{"emit.CNPJ", "emit.CPF"},
		flat:   []string{"emitente.CNPJ", "emitente.cnpj"},
		set:    func(r *models.InvoiceRecord, v *string) { r.IssuerTaxID = v },
	},
	{
		nested: []string{"emit.xNome"},
		flat:   []string{"emitente.xNome", "emitente.razaoSocial"},
		set:    func(r *models.InvoiceRecord, v *string) { r.IssuerName = v },
	},
	{
		nested: []string{"dest.CNPJ", "dest.CPF"},
		flat:   []string{"destinatario.CNPJ", "destinatario.cnpj"},
		set:    func(r *models.InvoiceRecord, v *string) { r.RecipientTaxID = v },
	},
	{
		nested: []string{"dest.xNome"},
		flat:   []string{"destinatario.xNome", "destinatario.razaoSocial"},
		set:    func(r *models.InvoiceRecord, v *string) { r.RecipientName = v },
	},
	{
		nested: []string{"total.ICMSTot.vNF"},
		flat:   []string{"total.vNF", "valorTotal"},
		set:    func(r *models.InvoiceRecord, v *string) { r.TotalValue = v },
	},
	{
		nested: []string{"ide.mod"},
		flat:   []string{"ide.mod", "modelo"},
		set:    func(r *models.InvoiceRecord, v *string) { r.Model = v },
	},
	{
		nested: []string{"ide.cUF"},
		flat:   []string{"ide.cUF", "uf"},
		set:    func(r *models.InvoiceRecord, v *string) { r.UF = v },
	},
}

// MapRecord decodes raw and maps it. Anything that is not a JSON object
// yields a record carrying only the fallback key.
func MapRecord(raw []byte, fallback accesskey.AccessKey) models.InvoiceRecord {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		payload = nil
	}
	return Map(payload, fallback)
}

// Map reshapes a registry payload into the canonical record. Values are
// copied as they are, never validated.
func Map(payload map[string]any, fallback accesskey.AccessKey) models.InvoiceRecord {
	var rec models.InvoiceRecord
	for _, f := range fields {
		if v, ok := resolve(payload, f); ok {
			f.set(&rec, &v)
		}
	}
	if rec.Key == nil && fallback != "" {
		k := fallback.String()
		rec.Key = &k
	}
	return rec
}

func resolve(payload map[string]any, f field) (string, bool) {
	for _, env := range envelopes {
		for _, p := range f.nested {
			if v, ok := scalar(lookup(payload, env+"."+p)); ok {
				return v, true
			}
		}
	}
	for _, p := range f.flat {
		if v, ok := scalar(lookup(payload, p)); ok {
			return v, true
		}
	}
	return "", false
}

// lookup walks a dotted path through nested objects.
func lookup(m map[string]any, path string) any {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[part]
	}
	return cur
}

// scalar renders a JSON leaf as text. Null, "" and containers are absent.
func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}
