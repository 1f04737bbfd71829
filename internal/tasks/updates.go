package tasks

import (
	"fmt"

	"github.com/desertthunder/linkguard/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Validate Phase = iota
	Upload
	Reconcile
	FetchDashboard
	FetchRevenue
	FetchBroken
)

func (p Phase) String() string {
	switch p {
	case Validate:
		return "validate"
	case Upload:
		return "upload"
	case Reconcile:
		return "reconcile"
	case FetchDashboard:
		return "fetch_dashboard"
	case FetchRevenue:
		return "fetch_revenue"
	case FetchBroken:
		return "fetch_broken"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func validateUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Validate,
		Step:    1,
		Total:   3,
		Message: fmt.Sprintf("Checking %s...", name),
	}
}

func uploadUpdate(name string, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upload,
		Step:    2,
		Total:   3,
		Message: fmt.Sprintf("Uploading %s (%d bytes)...", name, size),
	}
}

func reconcileUpdate(res *models.BulkUploadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    3,
		Total:   3,
		Message: fmt.Sprintf("Imported %d links (%d failed), refreshing...", res.Success, res.Failed),
		Data:    res,
	}
}

func endpointUpdate(phase Phase, step, total int, endpoint string, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, endpoint)
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, endpoint, err)
	}
	return ProgressUpdate{Phase: phase, Step: step, Total: total, Message: msg}
}
