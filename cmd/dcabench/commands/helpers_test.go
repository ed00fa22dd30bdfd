package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams("lookback_period=126,dip_threshold_1=0.15,ma_type=EMA")
	require.NoError(t, err)

	assert.Equal(t, 126, params["lookback_period"])
	assert.Equal(t, 0.15, params["dip_threshold_1"])
	assert.Equal(t, "EMA", params["ma_type"])
}

func TestParseParamsEmpty(t *testing.T) {
	params, err := parseParams("")
	require.NoError(t, err)
	assert.Nil(t, params)
}

func TestParseParamsMalformed(t *testing.T) {
	_, err := parseParams("lookback_period")
	assert.Error(t, err)
}

func TestParseValueList(t *testing.T) {
	values, err := parseValueList("0.05, 0.1, 200, SMA")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{0.05, 0.1, 200, "SMA"}, values)

	_, err = parseValueList("")
	assert.Error(t, err)
}

func TestParseDateFlag(t *testing.T) {
	d, err := parseDateFlag("2020-04-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = parseDateFlag("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDateFlag("04/01/2020")
	assert.Error(t, err)
}

func TestBuildStrategy(t *testing.T) {
	s, err := buildStrategy("dip", "dip_threshold_1=0.12")
	require.NoError(t, err)
	assert.Equal(t, 0.12, s.Params()["dip_threshold_1"])

	_, err = buildStrategy("nope", "")
	assert.Error(t, err)
}
