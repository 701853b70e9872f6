package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical column names of the normalized schema.
const (
	ColID        = "id_station"
	ColOperator  = "operator"
	ColPowerKW   = "power_kw"
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
	ColInsee     = "insee_code"
	ColAddress   = "address"
)

// UnknownOperator replaces empty operator cells, matching the label the
// upstream dashboard uses for the same purpose.
const UnknownOperator = "Opérateur inconnu"

// fieldMapping lists, in priority order, the raw header names that may carry
// a canonical field across IRVE schema revisions. The canonical name itself
// is always accepted first, which makes normalization idempotent.
type fieldMapping struct {
	canonical string
	aliases   []string
}

var canonicalSchema = []fieldMapping{
	{ColID, []string{"id_station_itinerance", "id_pdc_itinerance", "id_station_local", "id_pdc"}},
	{ColOperator, []string{"nom_operateur", "operateur", "nom_enseigne", "nom_amenageur"}},
	{ColPowerKW, []string{"puissance_nominale", "puissance_max", "puissance"}},
	{ColLatitude, []string{"consolidated_latitude", "ylatitude", "lat"}},
	{ColLongitude, []string{"consolidated_longitude", "xlongitude", "lon", "lng"}},
	{ColInsee, []string{"code_insee_commune", "consolidated_code_insee", "code_insee", "code_commune"}},
	{ColAddress, []string{"adresse_station", "adresse", "ad_station"}},
}

// stripAccents removes combining marks after NFD decomposition, so "Opérateur"
// and "operateur" compare equal during header matching.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldHeader lowercases, strips accents, and trims a raw header name for
// alias comparison.
func foldHeader(s string) string {
	folded, _, _ := transform.String(stripAccents, strings.ToLower(strings.TrimSpace(s)))
	return folded
}

// Normalize maps a raw table onto the canonical schema and parses typed
// fields. For each canonical field the first raw column matching the
// canonical name or one of its aliases (case- and accent-insensitive) is
// used; canonical fields with no match stay absent. Raw columns claimed by
// no canonical field are carried through untouched in Station.Extra.
//
// Only a structurally unreadable input (zero columns) is an error; missing
// optional fields are not.
func Normalize(raw RawTable) (Table, error) {
	if len(raw.Columns) == 0 {
		return nil, fmt.Errorf("normalize: table has no columns: %w", ErrSchema)
	}

	folded := make([]string, len(raw.Columns))
	for i, c := range raw.Columns {
		folded[i] = foldHeader(c)
	}

	// canonical field -> raw column index, first match wins
	mapping := make(map[string]int, len(canonicalSchema))
	claimed := make([]bool, len(raw.Columns))
	for _, fm := range canonicalSchema {
		if idx, ok := findColumn(folded, claimed, fm); ok {
			mapping[fm.canonical] = idx
			claimed[idx] = true
		}
	}

	table := make(Table, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		table = append(table, normalizeRow(raw.Columns, claimed, mapping, row))
	}
	return table, nil
}

func findColumn(folded []string, claimed []bool, fm fieldMapping) (int, bool) {
	candidates := append([]string{fm.canonical}, fm.aliases...)
	for _, cand := range candidates {
		for i, h := range folded {
			if !claimed[i] && h == foldHeader(cand) {
				return i, true
			}
		}
	}
	return 0, false
}

func normalizeRow(columns []string, claimed []bool, mapping map[string]int, row []string) Station {
	s := Station{
		ID:        cell(row, mapping, ColID),
		Operator:  cell(row, mapping, ColOperator),
		PowerKW:   parseFloatCell(cell(row, mapping, ColPowerKW)),
		Latitude:  parseFloatCell(cell(row, mapping, ColLatitude)),
		Longitude: parseFloatCell(cell(row, mapping, ColLongitude)),
		InseeCode: cell(row, mapping, ColInsee),
		Address:   cell(row, mapping, ColAddress),
	}
	if s.Operator == "" {
		s.Operator = UnknownOperator
	}

	for i, name := range columns {
		if claimed[i] || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			if s.Extra == nil {
				s.Extra = make(map[string]string)
			}
			s.Extra[name] = v
		}
	}
	return s
}

func cell(row []string, mapping map[string]int, canonical string) string {
	idx, ok := mapping[canonical]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseFloatCell parses a numeric cell, accepting the comma decimal separator
// that occasionally appears in the French source data. Returns nil when the
// cell is empty or unparseable.
func parseFloatCell(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}
