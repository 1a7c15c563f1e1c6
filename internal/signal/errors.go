package signal

import (
	"errors"
	"fmt"
)

// ErrNoTechniqueSelected is returned when a run is requested with zero
// research techniques enabled. No network call is made in that case.
var ErrNoTechniqueSelected = errors.New("no analysis technique selected")

// ErrPipelineBusy is returned when a run is requested while another run,
// a sync window, or a cooldown is active for the same user.
var ErrPipelineBusy = errors.New("signal pipeline is busy")

// ResearchError reports the failure of one enabled research call. It aborts
// the whole run.
type ResearchError struct {
	Technique Technique
	Step      int
	Err       error
}

func (e *ResearchError) Error() string {
	return fmt.Sprintf("AI Research (Step %d) Failed: %v", e.Step, e.Err)
}

func (e *ResearchError) Unwrap() error {
	return e.Err
}
