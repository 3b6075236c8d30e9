// Package municipality loads the static municipality reference table.
package municipality

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/brclima/painel-umidade/internal/common"
	"github.com/brclima/painel-umidade/internal/humidity"
)

var (
	codeAliases = []string{"cd_mun", "cd_ibge"}
	nameAliases = []string{"nm_mun"}
	ufAliases   = []string{"sigla_uf", "uf"}
)

// Load reads the municipality spreadsheet and returns normalized, deduplicated
// records. Errors here are configuration errors: the service cannot start
// without its reference table. limit > 0 truncates the result, which keeps
// staging runs cheap.
//
// Rows are dropped (not fatal) when the identifier has no digits or when
// latitude/longitude are missing or unparseable; duplicates keep the first
// occurrence.
func Load(path string, limit int) ([]humidity.Municipality, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("municipality table not found: %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open municipality table: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read municipality table: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("municipality table %s has no data rows", path)
	}

	cols, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var munis []humidity.Municipality

	for _, row := range rows[1:] {
		code := humidity.CanonicalCode(cell(row, cols.code))
		if code == "" || seen[code] {
			continue
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(cell(row, cols.lat)), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(cell(row, cols.lon)), 64)
		if latErr != nil || lonErr != nil {
			continue
		}

		seen[code] = true
		munis = append(munis, humidity.Municipality{
			Code: code,
			Name: strings.TrimSpace(cell(row, cols.name)),
			UF:   strings.TrimSpace(cell(row, cols.uf)),
			Lat:  lat,
			Lon:  lon,
		})
	}

	if limit > 0 && len(munis) > limit {
		munis = munis[:limit]
	}

	return munis, nil
}

type columnIndexes struct {
	code, name, uf, lat, lon int
}

// resolveColumns matches header names case-insensitively against known
// aliases. Latitude/longitude are matched by substring, so "Latitude" or
// "lat_sede" both work. Missing coordinate columns are fatal.
func resolveColumns(header []string) (columnIndexes, error) {
	cols := columnIndexes{code: -1, name: -1, uf: -1, lat: -1, lon: -1}

	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.code == -1 && contains(codeAliases, lower):
			cols.code = i
		case cols.name == -1 && contains(nameAliases, lower):
			cols.name = i
		case cols.uf == -1 && contains(ufAliases, lower):
			cols.uf = i
		case cols.lat == -1 && common.HasAny(lower, "lat"):
			cols.lat = i
		case cols.lon == -1 && common.HasAny(lower, "lon"):
			cols.lon = i
		}
	}

	if cols.lat == -1 || cols.lon == -1 {
		return cols, fmt.Errorf("municipality table has no latitude/longitude columns (header: %s)", strings.Join(header, ", "))
	}
	if cols.code == -1 {
		return cols, fmt.Errorf("municipality table has no identifier column (expected one of %s)", strings.Join(codeAliases, ", "))
	}

	return cols, nil
}

func contains(aliases []string, s string) bool {
	for _, a := range aliases {
		if a == s {
			return true
		}
	}
	return false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
