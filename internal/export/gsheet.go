package export

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/eduportal/internal/app"
	"github.com/shrimpsizemoose/eduportal/internal/models"
	"github.com/shrimpsizemoose/eduportal/internal/scoring"
)

type Snapshotter interface {
	Snapshot(ctx context.Context) (*models.Document, error)
}

// ValuesWriter writes a block of cells starting at the given A1 range.
type ValuesWriter interface {
	Update(ctx context.Context, spreadsheetID, writeRange string, values [][]interface{}) error
}

type sheetsWriter struct {
	svc *sheets.Service
}

func (w *sheetsWriter) Update(ctx context.Context, spreadsheetID, writeRange string, values [][]interface{}) error {
	_, err := w.svc.Spreadsheets.Values.Update(spreadsheetID, writeRange,
		&sheets.ValueRange{Values: values}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

type GSheetExporter struct {
	config    *app.Config
	source    Snapshotter
	grader    *scoring.Grader
	writer    ValuesWriter
	scheduler *gocron.Scheduler
	now       func() time.Time
}

func NewGSheetExporter(service *app.Service) (*GSheetExporter, error) {
	ctx := context.Background()
	config := service.Config

	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(config.GSheet.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	exporter := newExporter(config, service, service.Grader, &sheetsWriter{svc: svc})
	exporter.now = service.Now

	for name, cfg := range config.GSheet.Sheets {
		_, err = exporter.scheduler.Cron(cfg.Schedule).Do(func() {
			if err := exporter.Export(context.Background(), &cfg); err != nil {
				logger.Error.Printf("Export of sheet %s failed: %v", name, err)
				return
			}
			logger.Info.Printf("Exported sheet %s", name)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule export of %s: %w", name, err)
		}
		logger.Info.Printf("Scheduled sheet %s with %q", name, cfg.Schedule)
	}

	exporter.scheduler.StartAsync()
	return exporter, nil
}

func newExporter(config *app.Config, source Snapshotter, grader *scoring.Grader, writer ValuesWriter) *GSheetExporter {
	return &GSheetExporter{
		config:    config,
		source:    source,
		grader:    grader,
		writer:    writer,
		scheduler: gocron.NewScheduler(time.UTC),
		now:       time.Now,
	}
}

func (e *GSheetExporter) Stop() {
	e.scheduler.Stop()
}

// Export writes the student rows and then the timestamp cell of one sheet.
func (e *GSheetExporter) Export(ctx context.Context, cfg *app.SheetConfig) error {
	doc, err := e.source.Snapshot(ctx)
	if err != nil {
		return err
	}

	rows := BuildRows(doc, e.grader, cfg.Courses)
	if len(rows) > 0 {
		writeRange := fmt.Sprintf("%s!A%d", cfg.SheetName, cfg.StartRow)
		if err := e.writer.Update(ctx, cfg.SpreadsheetID, writeRange, rows); err != nil {
			return fmt.Errorf("failed to write rows: %w", err)
		}
	}

	timestamp := fmt.Sprintf("UPD: %s", e.now().UTC().Format(e.config.Display.TimestampFormat))
	stampRange := fmt.Sprintf("%s!%s", cfg.SheetName, cfg.TimestampCell)
	if err := e.writer.Update(ctx, cfg.SpreadsheetID, stampRange, [][]interface{}{{timestamp}}); err != nil {
		return fmt.Errorf("failed to update timestamp: %w", err)
	}
	return nil
}

// BuildRows lays out one row per student ordered by name: name, grade level,
// GPA, then the student's average in each of the courses. Courses without a
// grade or enrollment leave an empty cell.
func BuildRows(doc *models.Document, grader *scoring.Grader, courses []int) [][]interface{} {
	students := make([]models.User, 0)
	for _, u := range doc.Users {
		if u.Type == models.RoleStudent {
			students = append(students, u)
		}
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].Name < students[j].Name })

	rows := make([][]interface{}, 0, len(students))
	for _, s := range students {
		row := []interface{}{s.Name, s.Grade, fmt.Sprintf("%.2f", grader.GPA(doc, s.ID))}
		for _, courseID := range courses {
			var cell interface{} = ""
			if avg, ok := scoring.CourseAverage(doc, s.ID, courseID); ok {
				cell = avg
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return rows
}
