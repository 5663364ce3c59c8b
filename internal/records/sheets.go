package records

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsRoster reads reminder recipients straight from the patient
// spreadsheet. The first row holds headers: userID, firstName, lastName and
// one column per short Thai weekday name.
type SheetsRoster struct {
	values  valuesGetter
	sheetID string
	rng     string
}

type valuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
}

type sheetsValues struct{ svc *sheets.Service }

func (v sheetsValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// NewSheetsRoster authenticates with a service account key file.
func NewSheetsRoster(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*SheetsRoster, error) {
	key, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsRoster{values: sheetsValues{svc: svc}, sheetID: spreadsheetID, rng: sheetName}, nil
}

// Roster reads every data row of the sheet.
func (r *SheetsRoster) Roster(ctx context.Context) ([]RosterEntry, error) {
	rows, err := r.values.Get(ctx, r.sheetID, r.rng)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	return parseRosterRows(rows)
}

func parseRosterRows(rows [][]any) ([]RosterEntry, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.TrimSpace(fmt.Sprint(h))] = i
	}
	if _, ok := col["userID"]; !ok {
		return nil, fmt.Errorf("sheet has no userID column")
	}
	cell := func(row []any, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) || row[i] == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}

	out := make([]RosterEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		e := RosterEntry{
			UserID:    cell(row, "userID"),
			FirstName: cell(row, "firstName"),
			LastName:  cell(row, "lastName"),
		}
		if e.UserID == "" {
			continue
		}
		for i, day := range DayLabels {
			e.Schedule[i] = cell(row, day)
		}
		out = append(out, e)
	}
	return out, nil
}
