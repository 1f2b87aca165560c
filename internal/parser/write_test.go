package parser_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/covidstat-cli/internal/dataset"
	"github.com/KaramelBytes/covidstat-cli/internal/parser"
)

func TestWriteParsesBack(t *testing.T) {
	in, err := dataset.NewCollection(
		dataset.Record{Region: "GA", Date: dataset.Date(2020, time.March, 2), PositiveTests: 3, NegativeTests: 7, TotalTests: 12},
		dataset.Record{Region: "GA", Date: dataset.Date(2020, time.March, 1), PositiveTests: 1, NegativeTests: 9, Deaths: 1, Hospitalizations: 2, TotalTests: 10},
	)
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, parser.Write(&b, in))
	assert.True(t, strings.HasPrefix(b.String(), "region,date,"))
	assert.Contains(t, b.String(), "GA,2020-03-01,1,9,1,2,10\n")

	out, log := parse(t, b.String())
	assert.Zero(t, log.Len())
	assert.Equal(t, in.Records(), out.Records())
}

func TestWriteNil(t *testing.T) {
	var b strings.Builder
	assert.ErrorIs(t, parser.Write(&b, nil), dataset.ErrInvalidArgument)
}
