package service

import (
	syncengine "github.com/jne-ops/opsboard-api/internal/sync"
	"github.com/jne-ops/opsboard-api/pkg/export"
)

// ExportService renders the job ledger and audit trail for download.
type ExportService struct {
	engine *syncengine.Engine
}

// NewExportService constructs the export service.
func NewExportService(engine *syncengine.Engine) *ExportService {
	return &ExportService{engine: engine}
}

// JobsCSV renders all jobs as CSV.
func (s *ExportService) JobsCSV() ([]byte, error) {
	return export.RenderCSV(s.jobDataset())
}

// JobsPDF renders all jobs as a tabular PDF.
func (s *ExportService) JobsPDF() ([]byte, error) {
	return export.RenderPDF(s.jobDataset())
}

// LogsCSV renders the audit trail as CSV.
func (s *ExportService) LogsCSV() ([]byte, error) {
	data := s.engine.Snapshot()
	ds := export.Dataset{
		Title:   "Audit Trail",
		Headers: []string{"Timestamp", "User", "Action", "Description", "Category"},
	}
	for _, l := range data.ValidationLogs {
		ds.Rows = append(ds.Rows, []string{l.Timestamp, l.User, l.Action, l.Description, l.Category})
	}
	return export.RenderCSV(ds)
}

func (s *ExportService) jobDataset() export.Dataset {
	data := s.engine.Snapshot()
	ds := export.Dataset{
		Title: "Job Ledger",
		Headers: []string{
			"ID", "Category", "Sub Category", "Date Input", "Branch/Dept",
			"Job", "Status", "Deadline", "Notes", "Created By",
		},
	}
	for _, j := range data.Jobs {
		ds.Rows = append(ds.Rows, []string{
			j.ID, j.Category, j.SubCategory, j.DateInput, j.BranchDept,
			j.JobType, string(j.Status), j.Deadline, j.Notes, j.CreatedBy,
		})
	}
	return ds
}
