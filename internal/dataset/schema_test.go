package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func owidTestSchema() Schema {
	return Schema{
		Source:        "owid",
		DateColumn:    "date",
		CountryColumn: "location",
		Columns: map[Field]string{
			FieldNewCases:         "new_cases",
			FieldPeopleVaccinated: "people_vaccinated",
			FieldPopulation:       "population",
		},
		Granularity: GranularityDaily,
	}
}

func TestSchema_Decode(t *testing.T) {
	csvData := strings.Join([]string{
		"location,date,new_cases,people_vaccinated,population",
		"United States,2021-01-01,100,5000,330000000",
		"United States,2021-01-02,,6000,330000000",
		"Germany,2021-01-01,50,1000,83000000",
		"United States,not-a-date,10,,",
	}, "\n")

	obs, err := owidTestSchema().Decode(strings.NewReader(csvData), "United States")
	require.NoError(t, err)
	require.Len(t, obs, 2, "other countries and bad dates are skipped")

	first := obs[0]
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), first.Date)
	require.NotNil(t, first.NewCases)
	assert.Equal(t, 100.0, *first.NewCases)
	require.NotNil(t, first.Population)
	assert.Equal(t, 330000000.0, *first.Population)

	second := obs[1]
	assert.Nil(t, second.NewCases, "empty cell is absent, not zero")
	require.NotNil(t, second.PeopleVaccinated)
	assert.Equal(t, 6000.0, *second.PeopleVaccinated)
}

func TestSchema_Decode_MissingDateColumn(t *testing.T) {
	// A source without its date column degrades to an empty series, not an error.
	csvData := "location,cases\nUnited States,100\n"

	obs, err := owidTestSchema().Decode(strings.NewReader(csvData), "United States")
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestSchema_Decode_EmptyInput(t *testing.T) {
	obs, err := owidTestSchema().Decode(strings.NewReader(""), "United States")
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestSchema_Decode_NoCountryColumn(t *testing.T) {
	schema := Schema{
		Source:     "nyt",
		DateColumn: "date",
		Columns: map[Field]string{
			FieldCumulativeCases:  "cases",
			FieldCumulativeDeaths: "deaths",
		},
		Granularity: GranularityDaily,
		Cumulative:  true,
	}
	csvData := "date,cases,deaths\n2020-03-01,30,1\n2020-03-02,53,2\n"

	obs, err := schema.Decode(strings.NewReader(csvData), "")
	require.NoError(t, err)
	require.Len(t, obs, 2)
	require.NotNil(t, obs[1].CumulativeCases)
	assert.Equal(t, 53.0, *obs[1].CumulativeCases)
}

func TestSchema_Decode_ThousandsSeparators(t *testing.T) {
	schema := Schema{
		Source:     "who",
		DateColumn: "Date_reported",
		Columns:    map[Field]string{FieldNewCases: "New_cases"},
	}
	csvData := "Date_reported,New_cases\n2021-02-07,\"12,345\"\n"

	obs, err := schema.Decode(strings.NewReader(csvData), "")
	require.NoError(t, err)
	require.Len(t, obs, 1)
	require.NotNil(t, obs[0].NewCases)
	assert.Equal(t, 12345.0, *obs[0].NewCases)
}
