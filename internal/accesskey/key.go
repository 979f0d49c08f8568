// Package accesskey validates and extracts the 44-digit NF-e / NFC-e access key
// ("chave de acesso").
//
// Every AccessKey value that leaves this package has passed Validate. Other
// packages never build an AccessKey from a raw string themselves; they go
// through Parse, FromText or FromURL.
package accesskey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Shimizu-Technology/nfe-key-api/internal/domain"
)

// Length is the number of digits in an access key.
const Length = 44

// AccessKey is a checksum-valid 44-digit access key.
type AccessKey string

// String returns the 44 digits.
func (k AccessKey) String() string {
	return string(k)
}

// validUF holds the IBGE codes of the 27 federative units.
var validUF = map[int]struct{}{
	11: {}, 12: {}, 13: {}, 14: {}, 15: {}, 16: {}, 17: {},
	21: {}, 22: {}, 23: {}, 24: {}, 25: {}, 26: {}, 27: {}, 28: {}, 29: {},
	31: {}, 32: {}, 33: {}, 35: {},
	41: {}, 42: {}, 43: {},
	50: {}, 51: {}, 52: {}, 53: {},
}

// Model codes accepted in positions 20-21.
const (
	ModelNFe  = "55"
	ModelNFCe = "65"
)

// OnlyDigits drops every character that is not an ASCII digit.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// CheckDigit computes the modulo-11 check digit of the first 43 digits of a key.
// Weights run 2..9 starting from the rightmost digit and wrap back to 2.
func CheckDigit(body string) (int, error) {
	if len(body) != Length-1 {
		return 0, fmt.Errorf("check digit body must have %d digits, got %d", Length-1, len(body))
	}
	sum, weight := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		c := body[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-digit %q at position %d", c, i)
		}
		sum += int(c-'0') * weight
		if weight == 9 {
			weight = 2
		} else {
			weight++
		}
	}
	rem := sum % 11
	if rem == 0 || rem == 1 {
		return 0, nil
	}
	return 11 - rem, nil
}

// Check is one rule of the key layout and whether the candidate passed it.
type Check struct {
	Rule   string `json:"rule"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Inspect evaluates every rule against s (non-digits stripped) and reports all
// of them, stopping early only when the length rule fails.
func Inspect(s string) []Check {
	k := OnlyDigits(s)
	checks := []Check{{
		Rule:   "length",
		Passed: len(k) == Length,
		Detail: fmt.Sprintf("%d digits", len(k)),
	}}
	if len(k) != Length {
		return checks
	}

	uf, _ := strconv.Atoi(k[0:2])
	_, ufOK := validUF[uf]
	checks = append(checks, Check{Rule: "uf", Passed: ufOK, Detail: k[0:2]})

	month, _ := strconv.Atoi(k[4:6])
	checks = append(checks, Check{Rule: "month", Passed: month >= 1 && month <= 12, Detail: k[4:6]})

	model := k[20:22]
	checks = append(checks, Check{Rule: "model", Passed: model == ModelNFe || model == ModelNFCe, Detail: model})

	dv, _ := CheckDigit(k[:Length-1])
	checks = append(checks, Check{
		Rule:   "check_digit",
		Passed: int(k[Length-1]-'0') == dv,
		Detail: fmt.Sprintf("expected %d, got %c", dv, k[Length-1]),
	})
	return checks
}

// Validate reports whether candidate, with non-digits removed, is a valid access key.
// It never fails on malformed input; it just returns false.
func Validate(candidate string) bool {
	for _, c := range Inspect(candidate) {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Parse validates s and returns it as an AccessKey. The error is a
// domain.KindValidation error naming the first rule that failed.
func Parse(s string) (AccessKey, error) {
	for _, c := range Inspect(s) {
		if !c.Passed {
			return "", domain.ValidationError(fmt.Sprintf("invalid access key: %s rule failed (%s)", c.Rule, c.Detail))
		}
	}
	return AccessKey(OnlyDigits(s)), nil
}

// Components is the positional breakdown of a key.
type Components struct {
	UF           string `json:"uf"`
	Year         string `json:"year"`
	Month        string `json:"month"`
	IssuerCNPJ   string `json:"issuer_cnpj"`
	Model        string `json:"model"`
	Series       string `json:"series"`
	Number       string `json:"number"`
	EmissionType string `json:"emission_type"`
	NumericCode  string `json:"numeric_code"`
	CheckDigit   string `json:"check_digit"`
}

// Components splits the key into its fields.
func (k AccessKey) Components() Components {
	s := string(k)
	return Components{
		UF:           s[0:2],
		Year:         s[2:4],
		Month:        s[4:6],
		IssuerCNPJ:   s[6:20],
		Model:        s[20:22],
		Series:       s[22:25],
		Number:       s[25:34],
		EmissionType: s[34:35],
		NumericCode:  s[35:43],
		CheckDigit:   s[43:44],
	}
}
