package provision

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
)

// Reason explains a provisioning decision.
type Reason int

const (
	// ReasonForced means provisioning was requested explicitly.
	ReasonForced Reason = iota
	// ReasonFirstRun means the base directory does not exist yet.
	ReasonFirstRun
	// ReasonExisting means the base directory exists and is reused as is.
	ReasonExisting
)

func (m Reason) String() string {
	switch m {
	case ReasonForced:
		return "forced"
	case ReasonFirstRun:
		return "first run"
	case ReasonExisting:
		return "existing"
	default:
		return fmt.Sprintf("Reason(%d)", int(m))
	}
}

// Decision is the once-per-run provisioning decision, applied to every
// router alike.
type Decision struct {
	Provision bool
	Reason    Reason
}

// Decide reports whether routers should be provisioned in this run.
//
// Provisioning happens when forced or when the base directory does not
// exist. Any other failure to inspect the base directory is returned.
func Decide(fs billy.Basic, force bool, baseDir string) (Decision, error) {
	if force {
		return Decision{Provision: true, Reason: ReasonForced}, nil
	}

	_, err := fs.Stat(baseDir)
	switch {
	case err == nil:
		return Decision{Provision: false, Reason: ReasonExisting}, nil
	case errors.Is(err, os.ErrNotExist):
		return Decision{Provision: true, Reason: ReasonFirstRun}, nil
	default:
		return Decision{}, fmt.Errorf("failed to inspect configuration directory %q: %w", baseDir, err)
	}
}
