package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job asks the pipeline to run one document. Reprocess clears the
// document's derived state first instead of skipping an already
// completed document.
type Job struct {
	DocumentID  uuid.UUID
	Reprocess   bool
	SubmittedAt time.Time
	TraceID     string
}

// NewJob stamps submission time and a trace id so queue wait time shows
// up in the worker logs.
func NewJob(documentID uuid.UUID, reprocess bool) Job {
	return Job{
		DocumentID:  documentID,
		Reprocess:   reprocess,
		SubmittedAt: time.Now().UTC(),
		TraceID:     uuid.NewString(),
	}
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
