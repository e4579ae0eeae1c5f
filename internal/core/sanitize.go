package core

import "procintel/internal/types"

// Sanitized is a snapshot split into validated collections.
type Sanitized struct {
	Active    []types.ProcessRecord
	Completed []types.ProcessRecord
	Biddings  []types.BiddingRecord
	Excluded  []types.DataQualityError
}

// Sanitize validates every process record. Invalid records are excluded and
// reported. Records in the active collection that carry an exit date move to
// completed; records in the completed collection without one are excluded.
// Input order is preserved.
func Sanitize(s types.Snapshot) Sanitized {
	var out Sanitized
	exclude := func(err error) {
		if dq, ok := err.(*types.DataQualityError); ok {
			out.Excluded = append(out.Excluded, *dq)
		}
	}

	var valid []types.ProcessRecord
	for _, r := range s.Processes {
		if err := r.Validate(); err != nil {
			exclude(err)
			continue
		}
		valid = append(valid, r)
	}
	active, moved := types.Partition(valid)
	out.Active = active
	for _, r := range s.Completed {
		if err := r.Validate(); err != nil {
			exclude(err)
			continue
		}
		if !r.IsCompleted() {
			exclude(&types.DataQualityError{RecordID: r.ID, SEI: r.SEI, Field: "exitDate", Reason: "completed record without exit date"})
			continue
		}
		out.Completed = append(out.Completed, r)
	}
	out.Completed = append(out.Completed, moved...)
	out.Biddings = append(out.Biddings, s.Biddings...)
	return out
}
