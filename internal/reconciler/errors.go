package reconciler

import (
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ReasonUnexpected is the failure reason for errors the API server did not
// classify.
const ReasonUnexpected = "unexpected_error"

// JobCreateError is returned when the API server rejects a scan job. The
// triggering event is not retried.
type JobCreateError struct {
	Application string
	Namespace   string
	JobName     string
	Reason      string
	Err         error
}

func (e *JobCreateError) Error() string {
	return fmt.Sprintf("failed to create scan job %s for application %q (%s): %v",
		e.JobName, e.Application, e.Reason, e.Err)
}

func (e *JobCreateError) Unwrap() error {
	return e.Err
}

// FailureReason classifies a job submission error for the failed jobs
// metric: the API status reason when there is one, ReasonUnexpected otherwise.
func FailureReason(err error) string {
	var status apierrors.APIStatus
	if !errors.As(err, &status) {
		return ReasonUnexpected
	}
	if reason := apierrors.ReasonForError(err); reason != "" {
		return string(reason)
	}
	return ReasonUnexpected
}
