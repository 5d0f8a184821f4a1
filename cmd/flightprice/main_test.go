package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash/flightprice/internal/encoding"
	"github.com/yash/flightprice/internal/model"
	"github.com/yash/flightprice/internal/pricing"
	"github.com/yash/flightprice/pkg/models"
)

// execute runs the root command in an isolated directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeLinearModel(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(model.File{
		Kind:         model.KindLinear,
		Columns:      encoding.DefaultSchema().Columns(),
		Intercept:    3000,
		Coefficients: map[string]float64{"class_Business": 40000, "stops": 500},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "linear.json")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)

	var resp models.SchemaResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 47, resp.Count)
	assert.Equal(t, "stops", resp.Columns[0])
}

func TestQuoteCommand(t *testing.T) {
	modelPath := writeLinearModel(t)
	out, err := execute(t, "quote",
		"--model", modelPath,
		"--source", "Delhi", "--destination", "Mumbai",
		"--airline", "Vistara", "--class", "Business", "--stops", "1",
		"--departure", "Morning", "--arrival", "Afternoon",
		"--days-left", "2", "--duration", "150")
	require.NoError(t, err, out)

	var resp models.QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 43500.0, resp.Price)
	assert.Len(t, resp.Tips, 3)
	assert.Equal(t, "Last_Minute", resp.Features.BookingType)
}

func TestSuggestCommandFallsBack(t *testing.T) {
	out, err := execute(t, "suggest",
		"--history-dsn", ":memory:",
		"--source", "Chennai", "--destination", "Kolkata")
	require.NoError(t, err, out)

	var resp models.DurationSuggestion
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 130, resp.DurationMins)
	assert.True(t, resp.Fallback)
}

func TestSuggestCommandRejectsSameCity(t *testing.T) {
	_, err := execute(t, "suggest",
		"--history-dsn", ":memory:",
		"--source", "Delhi", "--destination", "Delhi")
	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
}

func TestQuoteCommandRequiresModel(t *testing.T) {
	_, err := execute(t, "quote",
		"--model", "",
		"--source", "Delhi", "--destination", "Mumbai",
		"--airline", "Indigo", "--departure", "Morning", "--arrival", "Night",
		"--duration", "120")
	assert.Error(t, err)
}
