package lifecycle

import (
	"fmt"

	pkgerrors "github.com/harpoonmedia/harpoon/pkg/errors"
	"github.com/harpoonmedia/harpoon/pkg/models"
)

// StateMachine is the pure transition table for the request lifecycle. It
// performs no I/O and never chooses a target state; it only rejects illegal
// edges. The orchestrator checks every edge here before persisting.
type StateMachine struct {
	edges map[models.RequestStatus][]models.RequestStatus
}

// NewStateMachine builds the lifecycle transition table.
//
// COMPLETED is terminal. FAILED, CANCELLED and EXPIRED are soft-terminal:
// they have no outgoing edges and are re-armed only through Reset, which is
// an administrative operation, not an edge.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		edges: map[models.RequestStatus][]models.RequestStatus{
			models.RequestStatusPending: {
				models.RequestStatusSearching,
				models.RequestStatusCancelled,
				models.RequestStatusExpired,
			},
			models.RequestStatusSearching: {
				models.RequestStatusPending,
				models.RequestStatusFound,
				models.RequestStatusFailed,
				models.RequestStatusCancelled,
			},
			models.RequestStatusFound: {
				models.RequestStatusDownloading,
				models.RequestStatusCancelled,
			},
			models.RequestStatusDownloading: {
				models.RequestStatusCompleted,
				models.RequestStatusFailed,
				models.RequestStatusCancelled,
			},
			models.RequestStatusCompleted: {},
			models.RequestStatusFailed:    {},
			models.RequestStatusCancelled: {},
			models.RequestStatusExpired:   {},
		},
	}
}

// CanTransition reports whether from→to is a legal edge.
func (m *StateMachine) CanTransition(from, to models.RequestStatus) bool {
	for _, allowed := range m.edges[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Apply sets the request's status to the target state after validating the
// edge. It mutates only the in-memory entity; persistence is the caller's
// responsibility.
func (m *StateMachine) Apply(request *models.Request, to models.RequestStatus) error {
	if !m.CanTransition(request.Status, to) {
		return pkgerrors.Conflict(fmt.Sprintf("illegal transition %s -> %s for request %s",
			request.Status, to, request.ID))
	}
	request.Status = to
	return nil
}

// CanCancel reports whether the request can still be cancelled.
func (m *StateMachine) CanCancel(status models.RequestStatus) bool {
	return m.CanTransition(status, models.RequestStatusCancelled)
}
