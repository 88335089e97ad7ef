package sources

import (
	"covidcli/internal/config"
	"covidcli/internal/dataset"
)

// Source names used in file paths, logs and comparison output
const (
	SourceOWID = "owid"
	SourceWHO  = "who"
	SourceNYT  = "nyt"
)

// Descriptor binds a source endpoint to its schema and on-disk location
type Descriptor struct {
	Name     string
	URL      string
	Filename string
	Schema   dataset.Schema
}

// CountryNames holds the per-source spelling of a country. The sources do not
// agree on naming, so the mapping is an explicit configuration concern.
type CountryNames struct {
	OWID string
	WHO  string
}

var countryAliases = map[string]CountryNames{
	"United States": {OWID: "United States", WHO: "United States of America"},
	"USA":           {OWID: "United States", WHO: "United States of America"},
}

// ResolveCountry maps a configured country name to its per-source spellings.
// Unknown countries use the same spelling everywhere.
func ResolveCountry(name string) CountryNames {
	if names, ok := countryAliases[name]; ok {
		return names
	}
	return CountryNames{OWID: name, WHO: name}
}

// Descriptors returns the three source descriptors for the configured
// endpoints: OWID daily snapshots, WHO weekly pre-aggregated counts, and the
// NYT daily cumulative national series.
func Descriptors(cfg config.SourcesConfig) []Descriptor {
	return []Descriptor{
		{
			Name:     SourceOWID,
			URL:      cfg.OWIDURL,
			Filename: "owid_covid_data.csv",
			Schema: dataset.Schema{
				Source:        SourceOWID,
				DateColumn:    "date",
				CountryColumn: "location",
				Columns: map[dataset.Field]string{
					dataset.FieldNewCases:         "new_cases",
					dataset.FieldNewDeaths:        "new_deaths",
					dataset.FieldPeopleVaccinated: "people_vaccinated",
					dataset.FieldPopulation:       "population",
				},
				Granularity: dataset.GranularityDaily,
			},
		},
		{
			Name:     SourceWHO,
			URL:      cfg.WHOURL,
			Filename: "who_covid_data.csv",
			Schema: dataset.Schema{
				Source:        SourceWHO,
				DateColumn:    "Date_reported",
				CountryColumn: "Country",
				Columns: map[dataset.Field]string{
					dataset.FieldNewCases:  "New_cases",
					dataset.FieldNewDeaths: "New_deaths",
				},
				Granularity: dataset.GranularityWeekly,
			},
		},
		{
			Name:     SourceNYT,
			URL:      cfg.NYTURL,
			Filename: "nyt_covid_data.csv",
			Schema: dataset.Schema{
				Source:     SourceNYT,
				DateColumn: "date",
				Columns: map[dataset.Field]string{
					dataset.FieldCumulativeCases:  "cases",
					dataset.FieldCumulativeDeaths: "deaths",
				},
				Granularity: dataset.GranularityDaily,
				Cumulative:  true,
			},
		},
	}
}

// ByName returns the descriptor with the given name
func ByName(descriptors []Descriptor, name string) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// CountryFor returns the country spelling this source's CSV uses. The NYT
// national file has no country column, so its filter is empty.
func (d Descriptor) CountryFor(names CountryNames) string {
	switch d.Name {
	case SourceOWID:
		return names.OWID
	case SourceWHO:
		return names.WHO
	default:
		return ""
	}
}
