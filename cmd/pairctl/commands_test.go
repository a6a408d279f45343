package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairLab/internal/domain/models"
)

func TestPairFlagsDates(t *testing.T) {
	var p pairFlags
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	p.set(fs)

	assert.Contains(t, fs.Lookup("start").Usage, "inclusive")
	assert.Contains(t, fs.Lookup("end").Usage, "inclusive")
	assert.NotContains(t, fs.Lookup("end").Usage, "exclusive")

	require.NoError(t, fs.Parse([]string{"-a", "aapl", "-b", "msft", "-end", "2024-03-01"}))
	start, end, err := p.dates()
	require.NoError(t, err)
	assert.Equal(t, models.MustParseDate("2016-01-04"), start)
	assert.Equal(t, models.MustParseDate("2024-03-01"), end)
}

func TestPairFlagsRequireBothSymbols(t *testing.T) {
	var p pairFlags
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	p.set(fs)
	require.NoError(t, fs.Parse([]string{"-a", "aapl"}))

	_, _, err := p.dates()
	assert.Error(t, err)

	require.NoError(t, fs.Parse([]string{"-b", "msft", "-start", "yesterday"}))
	_, _, err = p.dates()
	assert.ErrorContains(t, err, "-start")
}
