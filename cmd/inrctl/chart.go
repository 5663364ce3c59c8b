package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"warfarin-bot/internal/chart"
	"warfarin-bot/internal/dose"
	"warfarin-bot/internal/records"
)

var (
	chartDB     string
	chartUser   string
	chartDates  []string
	chartValues []string
	chartOut    string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render an INR history chart to a PNG file",
	RunE: func(cmd *cobra.Command, args []string) error {
		dates, values, err := chartSeries(cmd)
		if err != nil {
			return err
		}
		img, err := chart.Renderer{}.Render(dates, values)
		if err != nil {
			return err
		}
		if err := os.WriteFile(chartOut, img, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d points)\n", chartOut, len(values))
		return nil
	},
}

func chartSeries(cmd *cobra.Command) ([]string, []float64, error) {
	if chartDB != "" {
		if chartUser == "" {
			return nil, nil, errors.New("--user is required with --db")
		}
		st, err := records.NewSQLite(chartDB)
		if err != nil {
			return nil, nil, err
		}
		defer func() { _ = st.Close() }()
		history, err := st.FetchHistory(cmd.Context(), chartUser)
		if err != nil {
			return nil, nil, err
		}
		dates := make([]string, len(history))
		values := make([]float64, len(history))
		for i, p := range history {
			dates[i], values[i] = p.Date, p.INR
		}
		return dates, values, nil
	}

	if len(chartDates) != len(chartValues) {
		return nil, nil, fmt.Errorf("%d dates for %d values", len(chartDates), len(chartValues))
	}
	values := make([]float64, len(chartValues))
	for i, v := range chartValues {
		f, err := dose.ParseNumber(v)
		if err != nil {
			return nil, nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		values[i] = f
	}
	dates := make([]string, len(chartDates))
	for i, d := range chartDates {
		dates[i] = strings.TrimSpace(d)
	}
	return dates, values, nil
}

func init() {
	chartCmd.Flags().StringVar(&chartDB, "db", "", "SQLite record store to read history from")
	chartCmd.Flags().StringVar(&chartUser, "user", "", "patient user ID (with --db)")
	chartCmd.Flags().StringSliceVar(&chartDates, "dates", nil, "comma-separated x labels")
	chartCmd.Flags().StringSliceVar(&chartValues, "values", nil, "comma-separated INR values")
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "inr_chart.png", "output PNG path")
	rootCmd.AddCommand(chartCmd)
}
