package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/audit"
	"github.com/jne-ops/opsboard-api/internal/models"
	syncengine "github.com/jne-ops/opsboard-api/internal/sync"
	appErrors "github.com/jne-ops/opsboard-api/pkg/errors"
)

// JobPatch carries an inline edit: status or deadline, as made from the
// board table without opening the full form.
type JobPatch struct {
	Status   *models.JobStatus `json:"status,omitempty"`
	Deadline *string           `json:"deadline,omitempty"`
}

// BoardService orchestrates job mutations: every change stamps exactly one
// audit entry and hands the whole aggregate to the sync engine.
type BoardService struct {
	engine *syncengine.Engine
	audit  *audit.Appender
	logger *zap.Logger
	newID  func() string
}

// NewBoardService constructs the board workflow service.
func NewBoardService(engine *syncengine.Engine, appender *audit.Appender, logger *zap.Logger) *BoardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardService{engine: engine, audit: appender, logger: logger, newID: uuid.NewString}
}

// Jobs lists jobs, optionally filtered by category and subcategory.
func (s *BoardService) Jobs(category, subCategory string) []models.Job {
	data := s.engine.Snapshot()
	if category == "" && subCategory == "" {
		return data.Jobs
	}
	filtered := make([]models.Job, 0, len(data.Jobs))
	for _, j := range data.Jobs {
		if category != "" && !strings.EqualFold(j.Category, category) {
			continue
		}
		if subCategory != "" && !strings.EqualFold(j.SubCategory, subCategory) {
			continue
		}
		filtered = append(filtered, j)
	}
	return filtered
}

// Logs returns the audit trail, newest first.
func (s *BoardService) Logs() []models.ValidationLog {
	return s.engine.Snapshot().ValidationLogs
}

// AddJob validates and prepends a new job.
func (s *BoardService) AddJob(ctx context.Context, job models.Job, actorEmail string) (models.Job, error) {
	if err := validateJob(&job); err != nil {
		return models.Job{}, err
	}
	if job.ID == "" {
		job.ID = s.newID()
	}
	if job.CreatedBy == "" {
		job.CreatedBy = actorEmail
	}
	applyStatusRules(&job)

	data := s.engine.Snapshot()
	newJobs := append([]models.Job{job}, data.Jobs...)
	entry := s.audit.Entry(models.LogActionCreate,
		fmt.Sprintf("Menambahkan pekerjaan baru: %s di %s", job.JobType, job.BranchDept), job.Category)

	s.engine.Save(ctx, newJobs, data.Users, audit.Prepend(data.ValidationLogs, entry))
	return job, nil
}

// UpdateJob replaces a job via the full edit form.
func (s *BoardService) UpdateJob(ctx context.Context, id string, updated models.Job) (models.Job, error) {
	if err := validateJob(&updated); err != nil {
		return models.Job{}, err
	}
	return s.applyUpdate(ctx, id, func(old models.Job) models.Job {
		updated.ID = old.ID
		if updated.CreatedBy == "" {
			updated.CreatedBy = old.CreatedBy
		}
		return updated
	})
}

// PatchJob applies an inline status or deadline edit.
func (s *BoardService) PatchJob(ctx context.Context, id string, patch JobPatch) (models.Job, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return models.Job{}, appErrors.Clone(appErrors.ErrValidation, "unknown job status")
	}
	return s.applyUpdate(ctx, id, func(old models.Job) models.Job {
		if patch.Status != nil {
			old.Status = *patch.Status
		}
		if patch.Deadline != nil {
			old.Deadline = *patch.Deadline
		}
		return old
	})
}

func (s *BoardService) applyUpdate(ctx context.Context, id string, mutate func(models.Job) models.Job) (models.Job, error) {
	data := s.engine.Snapshot()

	idx := -1
	for i, j := range data.Jobs {
		if j.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Job{}, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}

	old := data.Jobs[idx]
	updated := mutate(old)
	applyStatusRules(&updated)
	data.Jobs[idx] = updated

	desc := updateDescription(old, updated)
	entry := s.audit.Entry(models.LogActionUpdate, desc, old.Category)

	s.engine.Save(ctx, data.Jobs, data.Users, audit.Prepend(data.ValidationLogs, entry))
	return updated, nil
}

// DeleteJob removes a job. The destructive-action confirmation lives in
// the UI; the API deletes on an explicit call.
func (s *BoardService) DeleteJob(ctx context.Context, id string) error {
	data := s.engine.Snapshot()

	idx := -1
	for i, j := range data.Jobs {
		if j.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}

	victim := data.Jobs[idx]
	newJobs := append(data.Jobs[:idx], data.Jobs[idx+1:]...)
	entry := s.audit.Entry(models.LogActionDelete,
		fmt.Sprintf("Menghapus pekerjaan: %s (%s)", victim.JobType, victim.BranchDept), victim.Category)

	s.engine.Save(ctx, newJobs, data.Users, audit.Prepend(data.ValidationLogs, entry))
	return nil
}

// BulkImport prepends a batch of jobs as a single audited mutation.
func (s *BoardService) BulkImport(ctx context.Context, jobs []models.Job, actorEmail string) (int, error) {
	if len(jobs) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "empty import batch")
	}
	for i := range jobs {
		if err := validateJob(&jobs[i]); err != nil {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("row %d: %s", i+1, err.Error()))
		}
		if jobs[i].ID == "" {
			jobs[i].ID = s.newID()
		}
		if jobs[i].CreatedBy == "" {
			jobs[i].CreatedBy = actorEmail
		}
		applyStatusRules(&jobs[i])
	}

	data := s.engine.Snapshot()
	newJobs := append(append([]models.Job(nil), jobs...), data.Jobs...)
	entry := s.audit.Entry(models.LogActionBulkImport,
		fmt.Sprintf("Import masal %d data pekerjaan", len(jobs)), jobs[0].Category)

	s.engine.Save(ctx, newJobs, data.Users, audit.Prepend(data.ValidationLogs, entry))
	return len(jobs), nil
}

func validateJob(job *models.Job) error {
	switch {
	case strings.TrimSpace(job.Category) == "":
		return appErrors.Clone(appErrors.ErrValidation, "category is required")
	case strings.TrimSpace(job.JobType) == "":
		return appErrors.Clone(appErrors.ErrValidation, "job type is required")
	case strings.TrimSpace(job.DateInput) == "":
		return appErrors.Clone(appErrors.ErrValidation, "input date is required")
	}
	if job.Status == "" {
		job.Status = models.StatusPending
	}
	if !job.Status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown job status")
	}
	return nil
}

// applyStatusRules enforces the one automatic transition: an approved
// Penyesuaian job is complete.
func applyStatusRules(job *models.Job) {
	if job.Category == models.CategoryPenyesuaian && job.IsApproved {
		job.Status = models.StatusCompleted
	}
}

// updateDescription words the audit entry after what actually changed,
// matching how the operations team reads the trail.
func updateDescription(old, updated models.Job) string {
	switch {
	case updated.Status != old.Status:
		return fmt.Sprintf("Mengubah status: %s (%s) dari %s menjadi %s",
			old.JobType, old.BranchDept, old.Status, updated.Status)
	case updated.Deadline != old.Deadline:
		return fmt.Sprintf("Mengubah dateline: %s (%s) menjadi %s",
			old.JobType, old.BranchDept, updated.Deadline)
	default:
		return fmt.Sprintf("Mengedit detail pekerjaan: %s (%s)", old.JobType, old.BranchDept)
	}
}
