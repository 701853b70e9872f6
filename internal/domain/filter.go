package domain

import (
	"math"
	"sort"
)

// ApplyFilter returns the subsequence of rows matching the selection, in
// input order. An empty department set disables department filtering. The
// power bounds are inclusive; rows whose power is unknown are excluded only
// when the bounds are narrower than the observed power range of the input
// table (a filter spanning the full range filters nothing out).
func ApplyFilter(t Table, sel FilterSelection) Table {
	deptSet := make(map[string]struct{}, len(sel.Departments))
	for _, d := range sel.Departments {
		deptSet[d] = struct{}{}
	}

	powerActive := powerFilterActive(t, sel)

	out := make(Table, 0, len(t))
	for _, s := range t {
		if len(deptSet) > 0 {
			// A row without a derived department never matches a department
			// filter, even when "" sneaks into the selection.
			if s.Department == "" {
				continue
			}
			if _, ok := deptSet[s.Department]; !ok {
				continue
			}
		}
		if s.PowerKW == nil {
			if powerActive {
				continue
			}
		} else if *s.PowerKW < sel.PowerMin || *s.PowerKW > sel.PowerMax {
			continue
		}
		out = append(out, s)
	}
	return out
}

// powerFilterActive reports whether the selection's power bounds are narrower
// than the observed power range of the table.
func powerFilterActive(t Table, sel FilterSelection) bool {
	obsMin, obsMax, any := observedPowerRange(t)
	if !any {
		return false
	}
	return sel.PowerMin > obsMin || sel.PowerMax < obsMax
}

func observedPowerRange(t Table) (minKW, maxKW float64, any bool) {
	minKW, maxKW = math.Inf(1), math.Inf(-1)
	for _, s := range t {
		if s.PowerKW == nil {
			continue
		}
		any = true
		minKW = math.Min(minKW, *s.PowerKW)
		maxKW = math.Max(maxKW, *s.PowerKW)
	}
	return minKW, maxKW, any
}

// Aggregate computes the display summaries for a (typically filtered) table:
// row count, mean power over rows with a known power, operator counts in
// descending order with ties broken by first appearance, and the sorted set
// of distinct non-empty department codes.
func Aggregate(t Table) Aggregates {
	agg := Aggregates{Count: len(t)}

	var powerSum float64
	var powerN int
	firstSeen := make(map[string]int)
	counts := make(map[string]int)
	deptSet := make(map[string]struct{})

	for i, s := range t {
		if s.PowerKW != nil {
			powerSum += *s.PowerKW
			powerN++
		}
		if _, ok := firstSeen[s.Operator]; !ok {
			firstSeen[s.Operator] = i
		}
		counts[s.Operator]++
		if s.Department != "" {
			deptSet[s.Department] = struct{}{}
		}
	}

	if powerN > 0 {
		agg.MeanPowerKW = powerSum / float64(powerN)
	}

	agg.Operators = make([]OperatorCount, 0, len(counts))
	for op, n := range counts {
		agg.Operators = append(agg.Operators, OperatorCount{Operator: op, Count: n})
	}
	sort.SliceStable(agg.Operators, func(i, j int) bool {
		a, b := agg.Operators[i], agg.Operators[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return firstSeen[a.Operator] < firstSeen[b.Operator]
	})

	agg.Departments = make([]string, 0, len(deptSet))
	for d := range deptSet {
		agg.Departments = append(agg.Departments, d)
	}
	sort.Strings(agg.Departments)

	return agg
}
