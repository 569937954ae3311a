package cli

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func contextWithFlags(t *testing.T, arguments ...string) *cli.Context {
	t.Helper()

	command := RegisterRunCLI()

	set := flag.NewFlagSet("run", flag.ContinueOnError)
	for _, commandFlag := range command.Flags {
		require.NoError(t, commandFlag.Apply(set))
	}
	require.NoError(t, set.Parse(arguments))

	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestRunRequestFromFlags(t *testing.T) {
	c := contextWithFlags(t,
		"--agency", "test",
		"--begin", "2024-03-01",
		"--end", "2024-03-08",
		"--special-days", "saturday,sunday",
	)

	request, err := runRequestFromFlags(c)
	require.NoError(t, err)

	assert.Equal(t, "test", request.AgencyID)
	assert.Equal(t, "2024-03-01", request.BeginTime.Format(dateLayout))
	assert.Equal(t, "2024-03-08", request.EndTime.Format(dateLayout))
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday}, request.SpecialDaysOfWeek)
}

func TestRunRequestFromFlagsDefaults(t *testing.T) {
	request, err := runRequestFromFlags(contextWithFlags(t))
	require.NoError(t, err)

	assert.True(t, request.EndTime.AddDate(0, 0, -7).Equal(request.BeginTime))
	assert.Zero(t, request.EndTime.Hour())
	assert.Empty(t, request.SpecialDaysOfWeek)
}

func TestRunRequestFromFlagsErrors(t *testing.T) {
	_, err := runRequestFromFlags(contextWithFlags(t, "--begin", "2024-03-08", "--end", "2024-03-01"))
	assert.Error(t, err)

	_, err = runRequestFromFlags(contextWithFlags(t, "--special-days", "funday"))
	assert.Error(t, err)
}
