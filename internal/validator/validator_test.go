package validator

import (
	"strings"
	"testing"
	"time"

	"github.com/derekprior/rrsched/internal/config"
	"github.com/derekprior/rrsched/internal/excel"
	"github.com/derekprior/rrsched/internal/schedule"
)

func testConfig() *config.Config {
	return &config.Config{
		Tournaments: []config.Tournament{
			{Name: "Open", Participants: []string{"Ajax", "Benfica", "Celtic", "Dynamo"}},
		},
	}
}

func writeWorkbook(t *testing.T, results []*schedule.Result, edits map[string]string) string {
	t.Helper()
	f, err := excel.Generate(results)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	for cell, val := range edits {
		f.SetCellValue(excel.ScheduleSheet, cell, val)
	}
	path := t.TempDir() + "/schedule.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	return path
}

func generated(t *testing.T, cfg *config.Config) []*schedule.Result {
	t.Helper()
	var results []*schedule.Result
	for _, tour := range cfg.Tournaments {
		r, err := schedule.Build(tour.Name, tour.Participants, nil)
		if err != nil {
			t.Fatalf("Build(%s) error: %v", tour.Name, err)
		}
		results = append(results, r)
	}
	return results
}

func fixture(home, away string) schedule.Fixture {
	return schedule.Fixture{Home: home, Away: away, Venue: home + "'s venue"}
}

func messages(violations []Violation, kind string) []string {
	var out []string
	for _, v := range violations {
		if v.Type == kind {
			out = append(out, v.Message)
		}
	}
	return out
}

func contains(msgs []string, want string) bool {
	for _, m := range msgs {
		if strings.Contains(m, want) {
			return true
		}
	}
	return false
}

func TestValidateGeneratedSchedule(t *testing.T) {
	cfg := &config.Config{
		Tournaments: []config.Tournament{
			{Name: "Open", Participants: []string{"Ajax", "Benfica", "Celtic", "Dynamo"}},
			{Name: "Reserves", Participants: []string{"Eagles", "Falcons", "Hawks", "Kites", "Owls", "Ravens", "Swifts", "Terns"}},
		},
	}
	path := writeWorkbook(t, generated(t, cfg), nil)

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	for _, v := range violations {
		t.Errorf("unexpected %s: %s", v.Type, v.Message)
	}
}

func TestValidateTamperedSchedule(t *testing.T) {
	cfg := testConfig()
	// Row 7 is round 3, Dynamo vs Ajax. Turn it into a Benfica vs Ajax rematch.
	path := writeWorkbook(t, generated(t, cfg), map[string]string{"D7": "Benfica"})

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	errs := messages(violations, "error")

	for _, want := range []string{
		"Benfica plays more than once in round 3",
		"Ajax vs Benfica is played 2 times",
		"Ajax vs Dynamo is never played",
	} {
		if !contains(errs, want) {
			t.Errorf("missing error %q in %v", want, errs)
		}
	}
}

func TestValidateUnknownNames(t *testing.T) {
	cfg := testConfig()
	path := writeWorkbook(t, generated(t, cfg), map[string]string{
		"A2": "Cup",
		"E3": "Everton",
	})

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	errs := messages(violations, "error")
	if !contains(errs, `unknown tournament "Cup"`) {
		t.Errorf("missing unknown tournament error in %v", errs)
	}
	if !contains(errs, `unknown participant "Everton" in round 1`) {
		t.Errorf("missing unknown participant error in %v", errs)
	}
}

func TestValidateMissingTournament(t *testing.T) {
	cfg := testConfig()
	path := writeWorkbook(t, generated(t, cfg), nil)
	cfg.Tournaments = append(cfg.Tournaments, config.Tournament{
		Name: "Triangular", Participants: []string{"Eagles", "Falcons", "Hawks"},
	})

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if !contains(messages(violations, "error"), "Triangular has no fixtures") {
		t.Errorf("missing no-fixtures error in %v", violations)
	}
}

func TestValidateRoundCount(t *testing.T) {
	cfg := testConfig()
	result := &schedule.Result{
		Tournament: "Open",
		Rounds: []schedule.Round{
			{Number: 1, Fixtures: []schedule.Fixture{fixture("Ajax", "Benfica"), fixture("Celtic", "Dynamo")}},
			{Number: 2, Fixtures: []schedule.Fixture{fixture("Ajax", "Celtic"), fixture("Benfica", "Dynamo")}},
		},
	}
	path := writeWorkbook(t, []*schedule.Result{result}, nil)

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if !contains(messages(violations, "error"), "Open has 2 rounds, want 3") {
		t.Errorf("missing round count error in %v", violations)
	}
}

func TestValidateHomeAwayBalance(t *testing.T) {
	cfg := testConfig()
	// Ajax hosts every round; by round 3 it already leads by two.
	result := &schedule.Result{
		Tournament: "Open",
		Rounds: []schedule.Round{
			{Number: 1, Fixtures: []schedule.Fixture{fixture("Ajax", "Benfica"), fixture("Celtic", "Dynamo")}},
			{Number: 2, Fixtures: []schedule.Fixture{fixture("Ajax", "Celtic"), fixture("Dynamo", "Benfica")}},
			{Number: 3, Fixtures: []schedule.Fixture{fixture("Ajax", "Dynamo"), fixture("Benfica", "Celtic")}},
		},
	}
	path := writeWorkbook(t, []*schedule.Result{result}, nil)

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if errs := messages(violations, "error"); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
	warnings := messages(violations, "warning")
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", warnings)
	}
	if !strings.Contains(warnings[0], "Ajax hosts in round 3 with 2 home and 0 away") {
		t.Errorf("warning = %q", warnings[0])
	}
}

func TestValidateRoundDates(t *testing.T) {
	cfg := testConfig()
	// Round 3 is dated before round 2.
	result, err := schedule.Build("Open", []string{"Ajax", "Benfica", "Celtic", "Dynamo"}, []time.Time{
		time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	path := writeWorkbook(t, []*schedule.Result{result}, nil)

	violations, err := Validate(cfg, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	warnings := messages(violations, "warning")
	if len(warnings) != 1 || !strings.Contains(warnings[0], "round 3 (09/12) is dated before round 2 (09/19)") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestValidateMissingFile(t *testing.T) {
	if _, err := Validate(testConfig(), t.TempDir()+"/missing.xlsx"); err == nil {
		t.Error("expected error for missing file")
	}
}
