package domain

import (
	"regexp"
	"strings"
)

// postalCodeRe matches a contiguous 5-digit run inside a free-text address,
// e.g. "12 Rue X, 75015 Paris" -> "75015". FindString returns the leftmost match.
var postalCodeRe = regexp.MustCompile(`[0-9]{5}`)

// DeriveDepartments returns a copy of the table with the Department field
// populated on every row. Each row is independent.
func DeriveDepartments(t Table) Table {
	out := make(Table, len(t))
	for i, s := range t {
		s.Department = DeriveDepartment(s.InseeCode, s.Address)
		out[i] = s
	}
	return out
}

// DeriveDepartment computes a best-effort department code for one row, in
// strict priority order: the INSEE commune code when non-empty, then a postal
// code found in the address, then the empty string. It never errors;
// malformed inputs degrade to "".
func DeriveDepartment(inseeCode, address string) string {
	if code := strings.TrimSpace(inseeCode); code != "" {
		return departmentFromCode(code)
	}
	if postal := postalCodeRe.FindString(address); postal != "" {
		return departmentFromCode(postal)
	}
	return ""
}

// departmentFromCode extracts the department prefix from an INSEE commune or
// postal code: two characters normally, three for the overseas "97x" codes,
// and the Corsican "2A"/"2B" prefixes verbatim. Codes shorter than the
// required length yield "".
func departmentFromCode(code string) string {
	switch {
	case strings.HasPrefix(code, "97"):
		if len(code) < 3 {
			return ""
		}
		return code[:3]
	case strings.HasPrefix(code, "2A"), strings.HasPrefix(code, "2B"):
		return code[:2]
	default:
		if len(code) < 2 {
			return ""
		}
		return code[:2]
	}
}
