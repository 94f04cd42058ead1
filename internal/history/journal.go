package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cutline/cutline/internal/export"
)

// Journal records export attempts in a Repository.
type Journal struct {
	repo Repository
	now  func() time.Time
}

func NewJournal(repo Repository) *Journal {
	return &Journal{repo: repo, now: time.Now}
}

// Begin inserts a processing row for snap and returns its id.
func (j *Journal) Begin(ctx context.Context, snap export.Snapshot) (string, error) {
	e := &Export{
		ID:           uuid.New().String(),
		SourceName:   snap.Source.Name,
		SourcePath:   snap.Source.Path,
		SegmentCount: len(snap.Segments),
		Muted:        snap.Muted,
		Status:       StatusProcessing,
		CreatedAt:    j.now(),
	}
	if err := j.repo.CreateExport(ctx, e); err != nil {
		return "", err
	}
	return e.ID, nil
}

// Finish stores the outcome of the export with the given id.
func (j *Journal) Finish(ctx context.Context, id string, res export.Result) error {
	status := StatusCompleted
	errMsg := ""
	if res.Status == export.StatusError {
		status = StatusError
		errMsg = res.Message
	}
	finished := res.FinishedAt
	if finished.IsZero() {
		finished = j.now()
	}
	return j.repo.FinishExport(ctx, id, status, res.OutputPath, errMsg, finished)
}
