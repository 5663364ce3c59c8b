package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"warfarin-bot/internal/config"
	"warfarin-bot/internal/line"
	"warfarin-bot/internal/records"
	"warfarin-bot/internal/reminder"
	"warfarin-bot/internal/telegram"
)

var (
	remindDB     string
	remindDryRun bool
)

type printNotifier struct{ w io.Writer }

func (p printNotifier) Push(_ context.Context, userID, text string) error {
	_, err := fmt.Fprintf(p.w, "--- %s\n%s\n", userID, text)
	return err
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run today's medication reminder sweep once",
	Long: `Reads the roster (SQLite with --db, otherwise the Google Sheet from
SPREADSHEET_ID) and pushes today's dose to every patient. Telegram IDs
go through the Telegram bot, everything else through LINE. --dry-run
prints the messages instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Parse()
		if err != nil && !remindDryRun {
			return err
		}
		if cfg == nil {
			cfg = &config.Config{Timezone: "Asia/Bangkok", SheetName: "Sheet1", GoogleCredentialsFile: "credentials.json", HTTPTimeout: 10 * time.Second}
		}

		var roster records.Roster
		if remindDB != "" {
			st, err := records.NewSQLite(remindDB)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			roster = st
		} else {
			if cfg.SpreadsheetID == "" {
				return fmt.Errorf("set --db or SPREADSHEET_ID")
			}
			sr, err := records.NewSheetsRoster(cmd.Context(), cfg.GoogleCredentialsFile, cfg.SpreadsheetID, cfg.SheetName)
			if err != nil {
				return err
			}
			roster = sr
		}

		notifier, err := pickNotifier(cmd, cfg)
		if err != nil {
			return err
		}
		res, err := reminder.NewSweeper(roster, notifier, cfg.Location()).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent=%d skipped=%d failed=%d\n", res.Sent, res.Skipped, res.Failed)
		return nil
	},
}

func pickNotifier(cmd *cobra.Command, cfg *config.Config) (reminder.Notifier, error) {
	if remindDryRun {
		return printNotifier{w: cmd.OutOrStdout()}, nil
	}
	var router reminder.Router
	if cfg.TelegramEnabled() {
		bot, err := telegram.New(cfg.TelegramBotToken, nil, 0, nil)
		if err != nil {
			return nil, err
		}
		router = append(router, reminder.Route{Name: telegram.Channel, Match: telegram.IsUserID, Notifier: bot})
	}
	if cfg.LineEnabled() {
		router = append(router, reminder.Route{Name: line.Channel, Notifier: line.NewClient(cfg.LineChannelAccessToken, cfg.HTTPTimeout)})
	}
	if len(router) == 0 {
		return nil, fmt.Errorf("no chat gateway is configured")
	}
	return router, nil
}

func init() {
	remindCmd.Flags().StringVar(&remindDB, "db", "", "use the SQLite record store as the roster")
	remindCmd.Flags().BoolVar(&remindDryRun, "dry-run", false, "print reminders instead of sending them")
	rootCmd.AddCommand(remindCmd)
}
