package service

import (
	"github.com/yaksok/yaksok-backend/internal/inventory/repository"
)

// Allocation is one batch's share of a consumption request
type Allocation struct {
	Batch *repository.Batch
	Take  int
}

// PlanAllocation walks batches in the order given (the caller supplies them
// oldest lot first) and assigns min(remaining, batch quantity) to each until
// the request is covered. It returns the plan, the total quantity available
// across the batches, and whether the request can be satisfied in full.
//
// The plan is computed before any mutation so an insufficient request aborts
// with zero effect.
func PlanAllocation(batches []*repository.Batch, requested int) ([]Allocation, int, bool) {
	available := 0
	for _, b := range batches {
		available += b.CurrentBatchEa
	}
	if available < requested {
		return nil, available, false
	}

	var plan []Allocation
	remaining := requested
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		take := b.CurrentBatchEa
		if take > remaining {
			take = remaining
		}
		if take == 0 {
			continue
		}
		plan = append(plan, Allocation{Batch: b, Take: take})
		remaining -= take
	}

	return plan, available, true
}
