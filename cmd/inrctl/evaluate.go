package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"warfarin-bot/internal/dose"
)

var (
	evalINR         string
	evalDose        string
	evalBleeding    bool
	evalSupplement  string
	evalInteraction string
	evalYAML        bool
)

type evaluationOutput struct {
	Band         string   `yaml:"band"`
	Action       string   `yaml:"action"`
	NewDoseLow   *float64 `yaml:"new_dose_low,omitempty"`
	NewDoseHigh  *float64 `yaml:"new_dose_high,omitempty"`
	FollowUpDays int      `yaml:"follow_up_days,omitempty"`
	FollowUpDate string   `yaml:"follow_up_date,omitempty"`
	Text         string   `yaml:"text"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compute a dose titration recommendation",
	RunE: func(cmd *cobra.Command, args []string) error {
		inr, err := dose.ParseNumber(evalINR)
		if err != nil {
			return fmt.Errorf("--inr: %w", err)
		}
		weekly, err := dose.ParsePositive(evalDose)
		if err != nil {
			return fmt.Errorf("--dose: %w", err)
		}
		catalogs, err := dose.LoadCatalogs(catalogPath)
		if err != nil {
			return err
		}
		rec := dose.NewEvaluator(catalogs, time.Now).Evaluate(dose.Input{
			INR:         inr,
			WeeklyDose:  weekly,
			Bleeding:    evalBleeding,
			Supplement:  evalSupplement,
			Interaction: evalInteraction,
		})
		if !evalYAML {
			fmt.Fprintln(cmd.OutOrStdout(), rec.Text())
			return nil
		}
		out := evaluationOutput{Band: string(rec.Band), Action: rec.Action, Text: rec.Text()}
		if rec.NewDose != nil {
			out.NewDoseLow, out.NewDoseHigh = &rec.NewDose.Low, &rec.NewDose.High
		}
		if !rec.Critical() {
			out.FollowUpDays = rec.FollowUpDays
			out.FollowUpDate = rec.FollowUpDate.Format("2006-01-02")
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(out)
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evalINR, "inr", "", "measured INR")
	evaluateCmd.Flags().StringVar(&evalDose, "dose", "", "current total weekly dose in mg")
	evaluateCmd.Flags().BoolVar(&evalBleeding, "bleeding", false, "patient reports bleeding")
	evaluateCmd.Flags().StringVar(&evalSupplement, "supplement", "", "herbs or supplements taken, free text")
	evaluateCmd.Flags().StringVar(&evalInteraction, "interaction", "", "other drugs taken, free text")
	evaluateCmd.Flags().BoolVar(&evalYAML, "yaml", false, "print a structured YAML result")
	_ = evaluateCmd.MarkFlagRequired("inr")
	_ = evaluateCmd.MarkFlagRequired("dose")
	rootCmd.AddCommand(evaluateCmd)
}
