// Package ingest reads the historical temperature series from CSV and
// prepares it for analysis: parsing, validation, grouping by city, and
// per-city time ordering.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tempwatch/tempwatch/internal/types"
)

// timestampLayouts are tried in order when parsing the timestamp column.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// requiredColumns is the expected CSV schema. Column order is free; the
// header row decides the mapping.
var requiredColumns = []string{"city", "timestamp", "temperature", "season"}

// ReadSeries parses a CSV temperature series and returns observations
// grouped by city, each city's slice sorted by timestamp ascending.
// Rows with equal timestamps keep their input order. Any malformed row
// fails the whole read with its line number; a well-formed file with no
// data rows is rejected.
func ReadSeries(r io.Reader) (map[string][]types.Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	byCity := make(map[string][]types.Observation)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		obs, err := parseRow(record, columns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		byCity[obs.City] = append(byCity[obs.City], obs)
	}

	if len(byCity) == 0 {
		return nil, fmt.Errorf("no data rows in input")
	}

	for city := range byCity {
		obs := byCity[city]
		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].Timestamp.Before(obs[j].Timestamp)
		})
	}
	return byCity, nil
}

// LoadFile reads a series from a CSV file on disk.
func LoadFile(path string) (map[string][]types.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening series file: %w", err)
	}
	defer f.Close()

	series, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return series, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return columns, nil
}

func parseRow(record []string, columns map[string]int) (types.Observation, error) {
	get := func(name string) (string, error) {
		idx := columns[name]
		if idx >= len(record) {
			return "", fmt.Errorf("missing %s field", name)
		}
		return strings.TrimSpace(record[idx]), nil
	}

	city, err := get("city")
	if err != nil {
		return types.Observation{}, err
	}
	if city == "" {
		return types.Observation{}, fmt.Errorf("empty city")
	}

	rawTimestamp, err := get("timestamp")
	if err != nil {
		return types.Observation{}, err
	}
	timestamp, err := parseTimestamp(rawTimestamp)
	if err != nil {
		return types.Observation{}, err
	}

	rawTemp, err := get("temperature")
	if err != nil {
		return types.Observation{}, err
	}
	temperature, err := strconv.ParseFloat(rawTemp, 64)
	if err != nil {
		return types.Observation{}, fmt.Errorf("invalid temperature %q", rawTemp)
	}

	rawSeason, err := get("season")
	if err != nil {
		return types.Observation{}, err
	}
	season, err := types.ParseSeason(rawSeason)
	if err != nil {
		return types.Observation{}, err
	}

	return types.Observation{
		City:        city,
		Timestamp:   timestamp,
		Temperature: temperature,
		Season:      season,
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}
