package dataset

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	apperrors "covidcli/internal/errors"
)

// Field is a canonical observation field name
type Field string

const (
	FieldNewCases         Field = "new_cases"
	FieldCumulativeCases  Field = "cumulative_cases"
	FieldNewDeaths        Field = "new_deaths"
	FieldCumulativeDeaths Field = "cumulative_deaths"
	FieldPeopleVaccinated Field = "people_vaccinated"
	FieldPopulation       Field = "population"
)

// Granularity is a source's native reporting cadence
type Granularity string

const (
	GranularityDaily  Granularity = "daily"
	GranularityWeekly Granularity = "weekly"
)

// Schema describes how a source's CSV maps onto canonical observation fields.
// It is resolved once against the CSV header during decoding; columns are
// never inferred from whatever happens to be present.
type Schema struct {
	Source        string
	DateColumn    string
	DateFormat    string
	CountryColumn string // empty for single-country files
	Columns       map[Field]string
	Granularity   Granularity
	Cumulative    bool // case/death counts are running totals
}

// resolved holds column indexes after matching a Schema against a header row
type resolved struct {
	date    int
	country int
	fields  map[Field]int
}

func (s Schema) resolve(header []string) (resolved, bool) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	dateIdx, ok := index[s.DateColumn]
	if !ok {
		return resolved{}, false
	}

	r := resolved{date: dateIdx, country: -1, fields: make(map[Field]int)}
	if s.CountryColumn != "" {
		if i, ok := index[s.CountryColumn]; ok {
			r.country = i
		}
	}
	for field, column := range s.Columns {
		if i, ok := index[column]; ok {
			r.fields[field] = i
		}
	}
	return r, true
}

// Decode reads a source CSV and returns the observations for the given
// country spelling, sorted in file order. A header without the schema's date
// column degrades to an empty series rather than failing: the source simply
// stops contributing downstream. Rows with unparseable dates are skipped;
// unparseable numeric cells become absent values.
func (s Schema) Decode(r io.Reader, country string) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewParsingError("read CSV header", err).WithContext("source", s.Source)
	}

	res, ok := s.resolve(header)
	if !ok {
		return nil, nil
	}

	dateFormat := s.DateFormat
	if dateFormat == "" {
		dateFormat = "2006-01-02"
	}

	var observations []Observation
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("read CSV row", err).WithContext("source", s.Source)
		}

		if res.country >= 0 {
			if res.country >= len(row) || strings.TrimSpace(row[res.country]) != country {
				continue
			}
		}

		if res.date >= len(row) {
			continue
		}
		date, err := time.Parse(dateFormat, strings.TrimSpace(row[res.date]))
		if err != nil {
			continue
		}

		obs := Observation{Date: date}
		for field, idx := range res.fields {
			if idx >= len(row) {
				continue
			}
			value, ok := parseCell(row[idx])
			if !ok {
				continue
			}
			switch field {
			case FieldNewCases:
				obs.NewCases = &value
			case FieldCumulativeCases:
				obs.CumulativeCases = &value
			case FieldNewDeaths:
				obs.NewDeaths = &value
			case FieldCumulativeDeaths:
				obs.CumulativeDeaths = &value
			case FieldPeopleVaccinated:
				obs.PeopleVaccinated = &value
			case FieldPopulation:
				obs.Population = &value
			}
		}
		observations = append(observations, obs)
	}

	return observations, nil
}

func parseCell(cell string) (float64, bool) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
