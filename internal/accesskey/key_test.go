// key_test.go: unit tests for the access key validator.
//
// The vectors below were built by hand with the modulo-11 rule and cover the
// three check digit branches: 11-remainder, remainder 0 and remainder 1.
package accesskey

import (
	"strings"
	"testing"

	"github.com/Shimizu-Technology/nfe-key-api/internal/domain"
)

const (
	// validNFe is a model 55 key from SP (remainder 2, check digit 9).
	validNFe = "35240312345678000195550010000001231123456789"
	// validNFCe is a model 65 key from RS (remainder 0, check digit 0).
	validNFCe = "43241212345678000195650010000045671876543210"
	// validRemainderOne has remainder 1, so its check digit is also 0.
	validRemainderOne = "35240312345678000195550010000001231123456720"
)

// replaceAt returns s with the byte at i replaced by c.
func replaceAt(s string, i int, c byte) string {
	b := []byte(s)
	b[i] = c
	return string(b)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid NF-e", validNFe, true},
		{"valid NFC-e", validNFCe, true},
		{"remainder one maps to zero", validRemainderOne, true},
		{"separators are stripped", "3524 0312 3456 7800 0195 5500 1000 0001 2311 2345 6789", true},
		{"dots and dashes", "35.2403.12345678000195-55-001-000000123-1-12345678-9", true},

		{"empty", "", false},
		{"43 digits", validNFe[:43], false},
		{"45 digits", validNFe + "0", false},
		{"letters only", strings.Repeat("a", 44), false},
		{"unknown UF 99", replaceAt(replaceAt(validNFe, 0, '9'), 1, '9'), false},
		{"UF 34 is not a state", replaceAt(validNFe, 1, '4'), false},
		{"month 00", replaceAt(replaceAt(validNFe, 4, '0'), 5, '0'), false},
		{"month 13", replaceAt(replaceAt(validNFe, 4, '1'), 5, '3'), false},
		{"model 57", replaceAt(validNFe, 21, '7'), false},
		{"wrong check digit", replaceAt(validNFe, 43, '8'), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.input); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCheckDigit(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want int
	}{
		{"eleven minus remainder", validNFe, 9},
		{"remainder zero", validNFCe, 0},
		{"remainder one", validRemainderOne, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckDigit(tt.key[:43])
			if err != nil {
				t.Fatalf("CheckDigit() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CheckDigit() = %d, want %d", got, tt.want)
			}
		})
	}

	t.Run("rejects wrong length", func(t *testing.T) {
		if _, err := CheckDigit("123"); err == nil {
			t.Error("CheckDigit(\"123\") expected error")
		}
	})

	t.Run("rejects non-digits", func(t *testing.T) {
		if _, err := CheckDigit("x" + validNFe[1:43]); err == nil {
			t.Error("CheckDigit() expected error for non-digit body")
		}
	})
}

// TestCheckDigit_SingleDigitFlips flips every body position and counts how
// often the expected check digit changes. Only a move between remainders 0
// and 1 can leave it unchanged.
func TestCheckDigit_SingleDigitFlips(t *testing.T) {
	for _, key := range []string{validNFe, validNFCe, validRemainderOne} {
		body := key[:43]
		base, _ := CheckDigit(body)
		changed := 0
		for i := 0; i < len(body); i++ {
			flipped := replaceAt(body, i, '0'+(body[i]-'0'+1)%10)
			dv, _ := CheckDigit(flipped)
			if dv != base {
				changed++
			}
		}
		if ratio := float64(changed) / float64(len(body)); ratio < 0.89 {
			t.Errorf("key %s: only %d/%d flips changed the check digit", key, changed, len(body))
		}
	}

	// Boundary: 4 -> 7 in position 0 of validNFCe moves the remainder from 0
	// to 1; both map to check digit 0.
	flipped := replaceAt(validNFCe[:43], 0, '7')
	dv, _ := CheckDigit(flipped)
	if dv != 0 {
		t.Errorf("CheckDigit(%s) = %d, want 0 (remainder 1)", flipped, dv)
	}
}

func TestParse(t *testing.T) {
	k, err := Parse(" 3524 0312 3456 7800 0195 5500 1000 0001 2311 2345 6789 ")
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if k.String() != validNFe {
		t.Errorf("Parse() = %q, want %q", k, validNFe)
	}

	_, err = Parse(replaceAt(validNFe, 43, '0'))
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("Parse() error kind = %v, want validation", domain.KindOf(err))
	}
	if !strings.Contains(err.Error(), "check_digit") {
		t.Errorf("Parse() error = %q, want it to name the check_digit rule", err)
	}
}

func TestInspect(t *testing.T) {
	checks := Inspect(replaceAt(validNFe, 21, '7'))
	if len(checks) != 5 {
		t.Fatalf("Inspect() returned %d checks, want 5", len(checks))
	}
	for _, c := range checks {
		wantPassed := c.Rule != "model" && c.Rule != "check_digit"
		if c.Passed != wantPassed {
			t.Errorf("rule %s passed = %v, want %v", c.Rule, c.Passed, wantPassed)
		}
	}

	short := Inspect("123")
	if len(short) != 1 || short[0].Passed {
		t.Errorf("Inspect(\"123\") = %+v, want a single failed length check", short)
	}
}

func TestComponents(t *testing.T) {
	k, err := Parse(validNFe)
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	c := k.Components()
	want := Components{
		UF:           "35",
		Year:         "24",
		Month:        "03",
		IssuerCNPJ:   "12345678000195",
		Model:        "55",
		Series:       "001",
		Number:       "000000123",
		EmissionType: "1",
		NumericCode:  "12345678",
		CheckDigit:   "9",
	}
	if c != want {
		t.Errorf("Components() = %+v, want %+v", c, want)
	}
}
