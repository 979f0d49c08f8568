package accesskey

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// reWhitespace collapses runs of whitespace before any matching.
	reWhitespace = regexp.MustCompile(`\s+`)

	// reLabel locates the "chave de acesso" label printed on DANFE documents.
	reLabel = regexp.MustCompile(`(?i)chave\s*de\s*acesso`)

	// reDigitSpan matches digit groups joined by the separators DANFEs print
	// between blocks of the key (spaces, dots, dashes, slashes).
	reDigitSpan = regexp.MustCompile(`\d(?:[ .\-/]*\d)*`)
	reGroup     = regexp.MustCompile(`\d+`)

	reParamChNFe = regexp.MustCompile(`(?i)[?&]chNFe=([0-9]{44})(?:[^0-9]|$)`)
	reParamP     = regexp.MustCompile(`(?i)[?&]p=([0-9]{44})(?:[^0-9]|$)`)
	reRun        = regexp.MustCompile(`[0-9]+`)
)

// FromText looks for a valid access key in free text (PDF text layer, OCR
// output, a decoded QR payload). Only keys that pass Validate are returned.
//
// A candidate is a run of whole digit groups holding exactly 44 digits: it
// starts where a number starts and ends where a number ends, so digits are
// never borrowed from the middle of a neighbouring number. A key right after
// a "chave de acesso" label wins over an earlier unlabeled one; otherwise the
// leftmost candidate that validates is returned.
func FromText(text string) (AccessKey, bool) {
	if text == "" {
		return "", false
	}
	norm := reWhitespace.ReplaceAllString(text, " ")

	for _, loc := range reLabel.FindAllStringIndex(norm, -1) {
		span := reDigitSpan.FindString(norm[loc[1]:])
		if k, ok := fromGroups(reGroup.FindAllString(span, -1), true); ok {
			return k, true
		}
	}

	for _, span := range reDigitSpan.FindAllString(norm, -1) {
		if k, ok := fromGroups(reGroup.FindAllString(span, -1), false); ok {
			return k, true
		}
	}
	return "", false
}

// fromGroups tries consecutive groups that add up to exactly 44 digits,
// leftmost start first. With firstOnly set only runs starting at the first
// group are tried.
func fromGroups(groups []string, firstOnly bool) (AccessKey, bool) {
	for i := range groups {
		if firstOnly && i > 0 {
			break
		}
		n := 0
		for j := i; j < len(groups) && n < Length; j++ {
			n += len(groups[j])
			if n != Length {
				continue
			}
			if d := strings.Join(groups[i:j+1], ""); Validate(d) {
				return AccessKey(d), true
			}
		}
	}
	return "", false
}

// FromURL extracts a key from a URL-shaped string such as the lookup URL
// encoded in an NFC-e QR code. The chNFe query parameter is preferred, then
// the p parameter used by NFC-e QR codes, then any run of exactly 44 digits.
func FromURL(raw string) (AccessKey, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.PathUnescape(raw)
	if err != nil {
		u = raw
	}

	for _, re := range []*regexp.Regexp{reParamChNFe, reParamP} {
		if m := re.FindStringSubmatch(u); m != nil && Validate(m[1]) {
			return AccessKey(m[1]), true
		}
	}
	for _, run := range reRun.FindAllString(u, -1) {
		if len(run) == Length && Validate(run) {
			return AccessKey(run), true
		}
	}
	return "", false
}

// FromPayload handles a decoded 2-D barcode payload, which may be a lookup
// URL or bare digits.
func FromPayload(payload string) (AccessKey, bool) {
	if k, ok := FromURL(payload); ok {
		return k, true
	}
	return FromText(payload)
}
