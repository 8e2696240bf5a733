package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Header is the first CSV record.
var Header = []string{"nickname", "coins", "items", "score", "correct_slots", "bids", "sales", "activity"}

// WriteCSV writes rep as UTF-8 CSV with a leading byte order mark so
// spreadsheet tools pick the right encoding.
func WriteCSV(w io.Writer, rep Report) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, row := range rep.Rows {
		record := []string{
			row.Nickname,
			strconv.Itoa(row.Coins),
			strconv.Itoa(row.ItemCount),
			strconv.Itoa(row.Score),
			strconv.Itoa(row.CorrectSlots),
			strconv.Itoa(row.Bids),
			strconv.Itoa(row.Sales),
			row.Activity(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write report row for %s: %w", row.Nickname, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename is the suggested download name for a room's report.
func Filename(code string) string {
	return "auction_results_" + code + ".csv"
}
