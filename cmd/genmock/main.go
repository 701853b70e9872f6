// Command genmock writes a deterministic mock IRVE CSV plus the JSON table
// the pipeline produces from it. It uses the actual domain package so the
// fixture tracks real normalization and derivation behavior.
//
// Usage:
//
//	go run ./cmd/genmock -csv-out data/mock/irve_sample.csv -json-out data/mock/irve_sample_derived.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/evmonitor/irve-dashboard/internal/domain"
)

// mockRows spans the derivation branches: metropolitan and overseas INSEE
// codes, Corsican prefixes, address-only rows, and underivable rows.
var mockRows = [][]string{
	{"FRTSLP001", "Tesla", "250", "48.8566", "2.3522", "75101", "1 Avenue des Champs, 75008 Paris"},
	{"FRIZIP010", "Izivia", "22", "45.7640", "4.8357", "69382", "Place Bellecour, Lyon"},
	{"FRFRSP101", "Freshmile", "50", "44.8378", "-0.5792", "", "12 Cours du Médoc, 33300 Bordeaux"},
	{"FRIONP055", "Ionity", "350", "41.9192", "8.7386", "2A004", "Aire d'Ajaccio"},
	{"FRIONP056", "Ionity", "350", "42.7028", "9.4503", "2B033", "Aire de Bastia"},
	{"FRELEP201", "EDF", "11", "16.2415", "-61.5331", "97120", "Route de la Rivière, Saint-Claude"},
	{"FRELEP202", "", "7,4", "14.6161", "-61.0588", "", "Fort-de-France 97200"},
	{"FRXXXP900", "Borne Locale", "", "", "", "", ""},
}

var mockColumns = []string{
	"id_station_itinerance",
	"nom_operateur",
	"puissance_nominale",
	"consolidated_latitude",
	"consolidated_longitude",
	"code_insee_commune",
	"adresse_station",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvOut := flag.String("csv-out", "", "output path for the mock IRVE CSV")
	jsonOut := flag.String("json-out", "", "output path for the derived table JSON")
	flag.Parse()

	if *csvOut == "" || *jsonOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -json-out")
	}

	if err := writeCSV(*csvOut); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	table, err := domain.Normalize(domain.RawTable{Columns: mockColumns, Rows: mockRows})
	if err != nil {
		return fmt.Errorf("normalize mock table: %w", err)
	}
	table = domain.DeriveDepartments(table)

	if err := writeJSON(*jsonOut, table); err != nil {
		return fmt.Errorf("write json: %w", err)
	}

	log.Printf("wrote %d rows to %s and %s", len(table), *csvOut, *jsonOut)
	return nil
}

func writeCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(mockColumns); err != nil {
		return err
	}
	for _, row := range mockRows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, table domain.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
