package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yash/flightprice/internal/encoding"
	"github.com/yash/flightprice/internal/features"
	"github.com/yash/flightprice/internal/history"
	"github.com/yash/flightprice/internal/pricing"
	"github.com/yash/flightprice/pkg/models"
)

// ---------------------------------------------------------------------------
// quote
// ---------------------------------------------------------------------------

var quoteReq models.QuoteRequest
var quoteShowVector bool

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Estimate the price of a single flight",
	Long: `Derives features for the itinerary, runs the model once and prints the
price, the derived features and saving tips as JSON.

When --duration is omitted the typical duration for the route is taken from
the history store.

Example:
  flightprice quote --model tree.json --source Delhi --destination Mumbai \
    --airline Indigo --departure Evening --arrival Night --days-left 30`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func init() {
	f := quoteCmd.Flags()
	f.StringVar(&quoteReq.Source, "source", "", "source city")
	f.StringVar(&quoteReq.Destination, "destination", "", "destination city")
	f.StringVar(&quoteReq.Airline, "airline", "", "airline")
	f.IntVar(&quoteReq.Stops, "stops", 0, "number of stops")
	f.StringVar(&quoteReq.Departure, "departure", "", "departure time bucket")
	f.StringVar(&quoteReq.Arrival, "arrival", "", "arrival time bucket")
	f.StringVar(&quoteReq.Class, "class", "Economy", "travel class")
	f.IntVar(&quoteReq.DaysLeft, "days-left", 0, "days until departure")
	f.IntVar(&quoteReq.DurationMins, "duration", 0, "flight duration in minutes (default: historical median)")
	f.BoolVar(&quoteShowVector, "vector", false, "include the encoded vector")

	f.String("model", "", "model file (JSON export)")
	f.String("tables", "", "lookup tables YAML (default: built-in)")
	f.Int("min-duration", 30, "reject flights at or below this many minutes")
	f.String("history-dsn", "flightprice.db", "history store sqlite DSN")

	for _, name := range []string{"source", "destination", "airline", "departure", "arrival"} {
		_ = quoteCmd.MarkFlagRequired(name)
	}
}

func runQuote(cmd *cobra.Command, args []string) error {
	est, err := buildEstimator()
	if err != nil {
		return err
	}

	req := quoteReq
	if !cmd.Flags().Changed("duration") {
		raw, err := pricing.ParseRequest(req, est.Deriver().Tables())
		if err != nil {
			return err
		}
		sug, err := suggest(cmd, raw.Source, raw.Destination, raw.Stops)
		if err != nil {
			return err
		}
		req.DurationMins = sug.DurationMins
	}

	raw, err := pricing.ParseRequest(req, est.Deriver().Tables())
	if err != nil {
		return err
	}
	q, err := est.Quote(cmd.Context(), raw)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), pricing.Response(uuid.NewString(), q, quoteShowVector))
}

// ---------------------------------------------------------------------------
// schema
// ---------------------------------------------------------------------------

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the model input columns in vector order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cols := encoding.DefaultSchema().Columns()
		if cfg.ModelPath != "" {
			est, err := buildEstimator()
			if err != nil {
				return err
			}
			cols = est.Schema().Columns()
		}
		return printJSON(cmd.OutOrStdout(), models.SchemaResponse{Columns: cols, Count: len(cols)})
	},
}

func init() {
	schemaCmd.Flags().String("model", "", "model file whose columns to print (default: built-in layout)")
}

// ---------------------------------------------------------------------------
// suggest
// ---------------------------------------------------------------------------

var (
	suggestSource string
	suggestDest   string
	suggestStops  int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest a typical duration for a route",
	Long: `Prints the median historical duration, in minutes, for flights between two
cities with the given number of stops. Routes without history fall back to a
default duration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := features.ParseCity(suggestSource)
		if err != nil {
			return err
		}
		dst, err := features.ParseCity(suggestDest)
		if err != nil {
			return err
		}
		if src == dst {
			return fmt.Errorf("%w: source and destination are both %s", pricing.ErrInvalidInput, src)
		}
		if suggestStops < 0 || suggestStops > features.MaxStops {
			return fmt.Errorf("%w: stops must be between 0 and %d", pricing.ErrInvalidInput, features.MaxStops)
		}

		sug, err := suggest(cmd, src, dst, suggestStops)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), models.DurationSuggestion{
			Source:       src.String(),
			Destination:  dst.String(),
			Stops:        suggestStops,
			DurationMins: sug.DurationMins,
			Samples:      sug.Samples,
			Fallback:     sug.Fallback,
		})
	},
}

func init() {
	f := suggestCmd.Flags()
	f.StringVar(&suggestSource, "source", "", "source city")
	f.StringVar(&suggestDest, "destination", "", "destination city")
	f.IntVar(&suggestStops, "stops", 0, "number of stops")
	f.String("history-dsn", "flightprice.db", "history store sqlite DSN")
	f.String("history-csv", "", "dataset imported into an empty history store")
	_ = suggestCmd.MarkFlagRequired("source")
	_ = suggestCmd.MarkFlagRequired("destination")
}

func suggest(cmd *cobra.Command, src, dst features.City, stops int) (history.Suggestion, error) {
	store, err := openHistory(cmd)
	if err != nil {
		return history.Suggestion{}, err
	}
	defer store.Close()
	return store.SuggestDuration(cmd.Context(), src, dst, stops)
}

// ---------------------------------------------------------------------------
// import-history
// ---------------------------------------------------------------------------

var importHistoryCmd = &cobra.Command{
	Use:   "import-history <dataset.csv>",
	Short: "Load a flight dataset into the history store",
	Long: `Appends every row of a CSV dataset (Clean_Dataset.csv layout) to the
history store used for duration suggestions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cmd.Context(), cfg.HistoryDSN)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := importFile(cmd, store, args[0])
		if err != nil {
			return err
		}
		total, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d records (%d total)\n", n, total)
		return nil
	},
}

func init() {
	importHistoryCmd.Flags().String("history-dsn", "flightprice.db", "history store sqlite DSN")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
