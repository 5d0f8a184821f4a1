package history

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash/flightprice/internal/features"
)

const sampleCSV = `,airline,flight,source_city,departure_time,stops,arrival_time,destination_city,class,duration,days_left,price
0,SpiceJet,SG-8709,Delhi,Evening,zero,Night,Mumbai,Economy,2.17,1,5953
1,SpiceJet,SG-8157,Delhi,Early_Morning,zero,Morning,Mumbai,Economy,2.33,1,5953
2,AirAsia,I5-764,Delhi,Early_Morning,zero,Early_Morning,Mumbai,Economy,2.17,1,5956
3,Vistara,UK-995,Delhi,Morning,zero,Afternoon,Mumbai,Economy,2.25,1,5955
4,Vistara,UK-963,Delhi,Morning,one,Evening,Mumbai,Economy,12.25,1,5955
5,Air_India,AI-887,Bangalore,Night,one,Early_Morning,Kolkata,Business,8.5,20,42000
`

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestImportCSV(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	n, err := s.ImportCSV(ctx, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestImportCSVTrimsHeader(t *testing.T) {
	s := openStore(t)
	data := " source_city , destination_city ,stops, duration \nDelhi,Mumbai,zero,2\n"
	n, err := s.ImportCSV(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportCSVErrors(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.ImportCSV(ctx, strings.NewReader("airline,source_city\nIndigo,Delhi\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")

	_, err = s.ImportCSV(ctx, strings.NewReader("source_city,destination_city,stops,duration\nDelhi,Mumbai,zero,fast\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = s.ImportCSV(ctx, strings.NewReader(""))
	assert.Error(t, err)
}

func TestImportCSVIsAtomic(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var b strings.Builder
	b.WriteString("source_city,destination_city,stops,duration\n")
	for i := 1; i <= 1500; i++ {
		duration := "2.25"
		if i == 1201 {
			duration = "bad"
		}
		fmt.Fprintf(&b, "Delhi,Mumbai,zero,%s\n", duration)
	}

	n, err := s.ImportCSV(ctx, strings.NewReader(b.String()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv line 1202")
	assert.Zero(t, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "a failed import must not leave partial rows")

	n, err = s.ImportCSV(ctx, strings.NewReader(strings.Replace(b.String(), "bad", "2.25", 1)))
	require.NoError(t, err)
	assert.Equal(t, 1500, n)
}

func TestSuggestDuration(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.ImportCSV(ctx, strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// zero-stop Delhi->Mumbai: 2.17, 2.17, 2.25, 2.33 -> median 2.21h -> 132.6 -> 132
	sug, err := s.SuggestDuration(ctx, features.Delhi, features.Mumbai, 0)
	require.NoError(t, err)
	assert.Equal(t, 132, sug.DurationMins)
	assert.Equal(t, 4, sug.Samples)
	assert.False(t, sug.Fallback)

	sug, err = s.SuggestDuration(ctx, features.Delhi, features.Mumbai, 1)
	require.NoError(t, err)
	assert.Equal(t, 735, sug.DurationMins)

	sug, err = s.SuggestDuration(ctx, features.Mumbai, features.Delhi, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultDurationMins, sug.DurationMins)
	assert.True(t, sug.Fallback)
}

func TestSuggestDurationGroupsMultiStop(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, []Record{
		{SourceCity: "Chennai", DestinationCity: "Kolkata", Stops: "two_or_more", Duration: 10},
	}))

	for _, stops := range []int{2, 3, 5} {
		sug, err := s.SuggestDuration(ctx, features.Chennai, features.Kolkata, stops)
		require.NoError(t, err)
		assert.Equal(t, 600, sug.DurationMins, "stops=%d", stops)
	}
}

func TestStopLabel(t *testing.T) {
	assert.Equal(t, "zero", StopLabel(0))
	assert.Equal(t, "one", StopLabel(1))
	assert.Equal(t, "two_or_more", StopLabel(2))
	assert.Equal(t, "two_or_more", StopLabel(5))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
}

func TestOpenFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.ImportCSV(ctx, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}
