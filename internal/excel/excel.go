package excel

import (
	"fmt"
	"strconv"

	"github.com/derekprior/rrsched/internal/schedule"
	"github.com/xuri/excelize/v2"
)

const (
	ScheduleSheet = "Schedule"
	BalanceSheet  = "Balance"
)

var scheduleHeaders = []string{"Tournament", "Round", "Date", "Home", "Away", "Venue"}
var balanceHeaders = []string{"Tournament", "Participant", "Home", "Away"}

// Row is one fixture as it appears on the Schedule sheet.
type Row struct {
	Sheet      int // 1-based sheet row
	Tournament string
	Round      int
	Date       string
	Home       string
	Away       string
	Venue      string
}

// Generate creates an Excel workbook with the fixture list and the home/away
// balance of every successfully scheduled tournament.
func Generate(results []*schedule.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	if err := writeScheduleSheet(f, results); err != nil {
		return nil, fmt.Errorf("writing schedule sheet: %w", err)
	}

	if err := writeBalanceSheet(f, standingsFromResults(results)); err != nil {
		return nil, fmt.Errorf("writing balance sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type tournamentStanding struct {
	tournament string
	schedule.Standing
}

func standingsFromResults(results []*schedule.Result) []tournamentStanding {
	var out []tournamentStanding
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, s := range r.Standings {
			out = append(out, tournamentStanding{r.Tournament, s})
		}
	}
	return out
}

func writeScheduleSheet(f *excelize.File, results []*schedule.Result) error {
	sheet := ScheduleSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeaders(f, sheet, scheduleHeaders)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	byeStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial", Italic: true, Color: "#9C0006"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
	})

	row := 2
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, round := range r.Rounds {
			date := ""
			if !round.Date.IsZero() {
				date = round.Date.Format("01/02/2006")
			}
			for _, fx := range round.Fixtures {
				f.SetCellValue(sheet, cellRef(1, row), r.Tournament)
				f.SetCellValue(sheet, cellRef(2, row), round.Number)
				f.SetCellValue(sheet, cellRef(3, row), date)
				f.SetCellValue(sheet, cellRef(4, row), fx.Home)
				f.SetCellValue(sheet, cellRef(5, row), fx.Away)
				f.SetCellValue(sheet, cellRef(6, row), fx.Venue)

				style := cellStyle
				if fx.IsBye() {
					style = byeStyle
				}
				if style != 0 {
					f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(scheduleHeaders), row), style)
				}
				row++
			}
		}
	}

	// Set column widths (sized for Arial 16)
	widths := map[string]float64{"A": 24, "B": 10, "C": 18, "D": 24, "E": 24, "F": 32}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeBalanceSheet(f *excelize.File, standings []tournamentStanding) error {
	sheet := BalanceSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeaders(f, sheet, balanceHeaders)

	cellStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})

	for i, s := range standings {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), s.tournament)
		f.SetCellValue(sheet, cellRef(2, row), s.Participant)
		f.SetCellValue(sheet, cellRef(3, row), s.Home)
		f.SetCellValue(sheet, cellRef(4, row), s.Away)
		if cellStyle != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(balanceHeaders), row), cellStyle)
		}
	}

	widths := map[string]float64{"A": 24, "B": 24, "C": 10, "D": 10}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if headerStyle != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), headerStyle)
	}
}

// ReadSchedule parses the Schedule sheet back into rows. Rows without a
// tournament name or with a non-numeric round are skipped.
func ReadSchedule(f *excelize.File) ([]Row, error) {
	rows, err := f.GetRows(ScheduleSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ScheduleSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", ScheduleSheet)
	}

	var out []Row
	for i, row := range rows {
		if i == 0 {
			continue
		}
		cells := make([]string, len(scheduleHeaders))
		copy(cells, row)
		if cells[0] == "" {
			continue
		}
		round, err := strconv.Atoi(cells[1])
		if err != nil {
			continue
		}
		out = append(out, Row{
			Sheet:      i + 1,
			Tournament: cells[0],
			Round:      round,
			Date:       cells[2],
			Home:       cells[3],
			Away:       cells[4],
			Venue:      cells[5],
		})
	}
	return out, nil
}

// UpdateBalanceSheet rebuilds the Balance sheet from the Schedule sheet so it
// reflects manual edits to the fixtures.
func UpdateBalanceSheet(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := ReadSchedule(f)
	if err != nil {
		return err
	}

	type key struct{ tournament, participant string }
	counts := make(map[key]*tournamentStanding)
	var standings []*tournamentStanding
	touch := func(tournament, participant string) *tournamentStanding {
		k := key{tournament, participant}
		s, ok := counts[k]
		if !ok {
			s = &tournamentStanding{tournament: tournament, Standing: schedule.Standing{Participant: participant}}
			counts[k] = s
			standings = append(standings, s)
		}
		return s
	}

	for _, r := range rows {
		if r.Home != "" && r.Home != schedule.ByeLabel {
			touch(r.Tournament, r.Home).Home++
		}
		if r.Away != "" && r.Away != schedule.ByeLabel {
			touch(r.Tournament, r.Away).Away++
		}
	}

	out := make([]tournamentStanding, len(standings))
	for i, s := range standings {
		out[i] = *s
	}

	if err := f.DeleteSheet(BalanceSheet); err != nil {
		return fmt.Errorf("removing %s: %w", BalanceSheet, err)
	}
	if err := writeBalanceSheet(f, out); err != nil {
		return fmt.Errorf("writing balance sheet: %w", err)
	}

	return f.Save()
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
