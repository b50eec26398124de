package identity

import "strings"

// NormalizePhone reduces a caller-entered phone string to its canonical form:
// digits only, with a leading "+" when the input carried an international
// prefix ("+" or "00"). Users are stored and looked up exclusively by this
// form, so the same physical phone resolves identically no matter how it was
// typed.
func NormalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)

	international := strings.HasPrefix(trimmed, "+")
	if strings.HasPrefix(trimmed, "00") {
		international = true
		trimmed = trimmed[2:]
	}

	var b strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if digits == "" {
		return ""
	}
	if international {
		return "+" + digits
	}
	return digits
}
