// Command waterfallctl is a local, non-daemon companion to waterfalld: it
// validates a world definition offline and can scaffold a sample
// world/system JSON pair for local development. Grounded on the
// teacher's cmd/seed (which seeds Postgres jobs for local dev) and on
// original_source/src/bin/wf/main.rs, a local CLI variant of the
// orchestrator that never starts a Runner.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/kinesin-ca/waterfall-go/config"
	"github.com/kinesin-ca/waterfall-go/internal/domain"
)

func main() {
	root := &cobra.Command{
		Use:   "waterfallctl",
		Short: "Offline helpers for waterfall-go world definitions",
	}
	root.AddCommand(newValidateCmd())
	root.AddCommand(newSeedCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newValidateCmd() *cobra.Command {
	var worldPath string
	var cronExpr string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate a world definition without starting a Runner",
		RunE: func(_ *cobra.Command, _ []string) error {
			var world domain.WorldDefinition
			if err := config.LoadJSON(worldPath, &world); err != nil {
				return err
			}
			tasks, err := world.TaskSet()
			if err != nil {
				return err
			}
			fmt.Printf("world ok: %d task(s)\n", tasks.Len())

			// A migrating operator's old system often names its schedules with
			// cron expressions; this is a convenience sanity check only — the
			// Schedule type itself is calendar x times-of-day, not cron syntax.
			if cronExpr != "" {
				return printCronPreview(cronExpr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&worldPath, "world", "world.json", "path to the world definition document")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "optional cron expression to preview alongside the world (migration aid only)")
	return cmd
}

func printCronPreview(expr string) error {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	fmt.Printf("cron %q would next fire at:\n", expr)
	t := time.Now()
	for i := 0; i < 5; i++ {
		t = schedule.Next(t)
		fmt.Printf("  %s\n", t.Format(time.RFC3339))
	}
	return nil
}

func newSeedCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a sample world.json and system.json into outDir",
		RunE: func(_ *cobra.Command, _ []string) error {
			return writeSeed(outDir)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write world.json/system.json into")
	return cmd
}

func writeSeed(outDir string) error {
	world := domain.WorldDefinition{
		Tasks: map[string]domain.TaskDefinition{
			"ingest": {
				Up:           json.RawMessage(`{"command":["/bin/true"]}`),
				CalendarName: "weekdays",
				Times:        []string{"06:00:00"},
				Timezone:     "UTC",
				ValidFrom:    domain.CivilDateTimeFromTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
				Provides:     []string{"ingest"},
			},
			"report": {
				Up:           json.RawMessage(`{"command":["/bin/true"]}`),
				CalendarName: "weekdays",
				Times:        []string{"07:00:00"},
				Timezone:     "UTC",
				ValidFrom:    domain.CivilDateTimeFromTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
				Requires:     json.RawMessage(`{"resource":"ingest","offset":0}`),
				Provides:     []string{"report"},
			},
		},
		Calendars: map[string]domain.Calendar{
			"weekdays": mustJSONCalendar(),
		},
		Variables:     domain.NewVarMap(),
		OutputOptions: domain.DefaultTaskOutputOptions(),
	}

	system := config.SystemConfig{
		Storage:  config.StorageConfig{Type: "memory"},
		Executor: config.ExecutorConfig{Type: "local", Workers: 4},
		Server:   config.ServerConfig{IP: "0.0.0.0", Port: 8080},
	}

	if err := writeJSON(outDir+"/world.json", world); err != nil {
		return err
	}
	if err := writeJSON(outDir+"/system.json", system); err != nil {
		return err
	}
	fmt.Printf("wrote %s/world.json and %s/system.json\n", outDir, outDir)
	return nil
}

func mustJSONCalendar() domain.Calendar {
	var cal domain.Calendar
	doc := []byte(`{"mask":["monday","tuesday","wednesday","thursday","friday"],"include":[],"exclude":[]}`)
	if err := json.Unmarshal(doc, &cal); err != nil {
		panic(err)
	}
	return cal
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
