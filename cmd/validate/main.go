// Command validate runs the normalization and derivation stages against a
// local IRVE CSV and reports coverage statistics: which canonical columns
// were mapped, how many rows got a department and through which path, and
// the top operators. Useful for checking a fresh dataset drop before
// pointing the service at it.
//
// Usage:
//
//	go run ./cmd/validate -csv data/mock/irve_sample.csv [-rows 20000]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/evmonitor/irve-dashboard/internal/adapter/datagouv"
	"github.com/evmonitor/irve-dashboard/internal/domain"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "validate:", err)
		os.Exit(1)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "path to an IRVE CSV file")
	rowLimit := flag.Int("rows", 20000, "maximum rows to read")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -csv")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	raw, err := datagouv.ParseCSV(f, *rowLimit)
	if err != nil {
		return err
	}
	fmt.Printf("parsed %d rows, %d columns\n\n", len(raw.Rows), len(raw.Columns))

	table, err := domain.Normalize(raw)
	if err != nil {
		return err
	}
	reportColumns(table)

	derived := domain.DeriveDepartments(table)
	reportDerivation(derived)
	reportOperators(derived)
	return nil
}

func reportColumns(table domain.Table) {
	var withID, withPower, withCoords, withInsee, withAddress int
	for _, s := range table {
		if s.ID != "" {
			withID++
		}
		if s.PowerKW != nil {
			withPower++
		}
		if s.Latitude != nil && s.Longitude != nil {
			withCoords++
		}
		if s.InseeCode != "" {
			withInsee++
		}
		if s.Address != "" {
			withAddress++
		}
	}

	n := len(table)
	fmt.Println("canonical field coverage:")
	fmt.Printf("  id:          %s\n", pct(withID, n))
	fmt.Printf("  power:       %s\n", pct(withPower, n))
	fmt.Printf("  coordinates: %s\n", pct(withCoords, n))
	fmt.Printf("  insee code:  %s\n", pct(withInsee, n))
	fmt.Printf("  address:     %s\n", pct(withAddress, n))
	fmt.Println()
}

func reportDerivation(table domain.Table) {
	var fromInsee, fromAddress, underived int
	for _, s := range table {
		switch {
		case s.Department == "":
			underived++
		case s.InseeCode != "":
			fromInsee++
		default:
			fromAddress++
		}
	}

	n := len(table)
	fmt.Println("department derivation:")
	fmt.Printf("  from insee code: %s\n", pct(fromInsee, n))
	fmt.Printf("  from address:    %s\n", pct(fromAddress, n))
	fmt.Printf("  underived:       %s\n", pct(underived, n))
	fmt.Println()
}

func reportOperators(table domain.Table) {
	agg := domain.Aggregate(table)

	fmt.Printf("distinct departments: %d\n", len(agg.Departments))
	fmt.Printf("mean power: %.1f kW\n\n", agg.MeanPowerKW)

	fmt.Println("top operators:")
	ops := agg.Operators
	if len(ops) > 10 {
		ops = ops[:10]
	}
	for _, op := range ops {
		fmt.Printf("  %6d  %s\n", op.Count, op.Operator)
	}
}

func pct(part, total int) string {
	if total == 0 {
		return "0 (0.0%)"
	}
	return fmt.Sprintf("%d (%.1f%%)", part, 100*float64(part)/float64(total))
}
