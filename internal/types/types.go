// Package types provides the record model shared by every procintel package.
// Records are produced upstream (import, manual entry) and handed to the engine
// as immutable snapshots; nothing in this package mutates them.
package types

import (
	"strings"
	"time"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// ProcessType is the workflow stage a process is filed under.
type ProcessType string

const (
	TypeCalculation     ProcessType = "1.CÁLCULO"
	TypeQuotation       ProcessType = "2.COTAÇÃO"
	TypeInternalPhase   ProcessType = "3.AGENTE - FASE INTERNA"
	TypeAuctioneer      ProcessType = "4.PREGOEIRO"
	TypeAuctioneerBid   ProcessType = "5.PREGOEIRO - LICITADO"
	TypeExternalTransit ProcessType = "6.TRAMITAÇÃO EXTERNA"
	TypeAuthorized      ProcessType = "7.AUTORIZADO"
	TypePNCP            ProcessType = "8.PNCP"
	TypeAuthorizedExtra ProcessType = "X.AUTORIZADO"
)

// ProcessTypes lists the enumerated process types in form order.
var ProcessTypes = []ProcessType{
	TypeCalculation,
	TypeQuotation,
	TypeInternalPhase,
	TypeAuctioneer,
	TypeAuctioneerBid,
	TypeExternalTransit,
	TypeAuthorized,
	TypePNCP,
	TypeAuthorizedExtra,
}

// Known reports whether t is one of the enumerated types.
// Imported sheets may carry other labels; those are kept and grouped as-is.
func (t ProcessType) Known() bool {
	for _, k := range ProcessTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Modality is the procurement modality of a process.
type Modality string

const (
	ModalityAddendum  Modality = "ADITIVO"
	ModalityWaiver    Modality = "DISP/INEX"
	ModalityTender    Modality = "LICITAR"
	ModalityOther     Modality = "OUT"
	ModalityPiggyback Modality = "CARONA"
	ModalityAdmin     Modality = "ADM"
)

// Modalities lists the enumerated modalities in form order.
var Modalities = []Modality{
	ModalityAddendum,
	ModalityWaiver,
	ModalityTender,
	ModalityOther,
	ModalityPiggyback,
	ModalityAdmin,
}

// Known reports whether m is one of the enumerated modalities.
func (m Modality) Known() bool {
	for _, k := range Modalities {
		if k == m {
			return true
		}
	}
	return false
}

// =============================================================================
// RECORDS
// =============================================================================

// ProcessRecord is a tracked administrative case.
type ProcessRecord struct {
	ID           string      `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	SEI          string      `json:"sei" yaml:"sei"`
	Responsible  string      `json:"responsible" yaml:"responsible"`
	Type         ProcessType `json:"type" yaml:"type"`
	Modality     Modality    `json:"modal,omitempty" yaml:"modal,omitempty"`
	ArrivalDate  time.Time   `json:"arrivalDate" yaml:"arrival_date"`
	ExitDate     *time.Time  `json:"exitDate,omitempty" yaml:"exit_date,omitempty"`
	Observations string      `json:"observations,omitempty" yaml:"observations,omitempty"`
	Authorizer   string      `json:"authorized,omitempty" yaml:"authorized,omitempty"`
}

// IsCompleted reports whether the record carries an exit timestamp.
func (p ProcessRecord) IsCompleted() bool {
	return p.ExitDate != nil
}

// Validate checks the fields the engine computes on.
func (p ProcessRecord) Validate() error {
	if p.ArrivalDate.IsZero() {
		return &DataQualityError{RecordID: p.ID, SEI: p.SEI, Field: "arrivalDate", Reason: "missing arrival date"}
	}
	if p.ExitDate != nil {
		if p.ExitDate.IsZero() {
			return &DataQualityError{RecordID: p.ID, SEI: p.SEI, Field: "exitDate", Reason: "empty exit date"}
		}
		if p.ExitDate.Before(p.ArrivalDate) {
			return &DataQualityError{RecordID: p.ID, SEI: p.SEI, Field: "exitDate", Reason: "exit date before arrival date"}
		}
	}
	return nil
}

// BiddingRecord is a procurement case tracked by authorization status.
type BiddingRecord struct {
	ID          string     `json:"id" yaml:"id"`
	Seq         string     `json:"seq" yaml:"seq"`
	Description string     `json:"description" yaml:"description"`
	SEI         string     `json:"sei" yaml:"sei"`
	Preparer    string     `json:"preparation" yaml:"preparation"`
	Reviewer    string     `json:"review,omitempty" yaml:"review,omitempty"`
	SystemOwner string     `json:"system,omitempty" yaml:"system,omitempty"`
	Status      string     `json:"status,omitempty" yaml:"status,omitempty"`
	Notes       string     `json:"notes,omitempty" yaml:"notes,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// IsAuthorized reports whether the status label contains "autorizado".
func (b BiddingRecord) IsAuthorized() bool {
	return strings.Contains(strings.ToLower(b.Status), "autorizado")
}

// Involves reports whether name appears as preparer, reviewer or system owner.
// Comparison is case-insensitive substring, matching how sheets label people
// ("DIEGO 01", "Diego").
func (b BiddingRecord) Involves(name string) bool {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, who := range []string{b.Preparer, b.Reviewer, b.SystemOwner} {
		if who != "" && strings.Contains(strings.ToUpper(who), n) {
			return true
		}
	}
	return false
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is the input handed to the engine for one query.
type Snapshot struct {
	Processes []ProcessRecord `json:"processes"`
	Biddings  []BiddingRecord `json:"biddings"`
	Completed []ProcessRecord `json:"completed"`
}

// Len returns the total number of records across the three collections.
func (s Snapshot) Len() int {
	return len(s.Processes) + len(s.Biddings) + len(s.Completed)
}

// Partition splits records into active and completed by exit timestamp,
// preserving input order.
func Partition(records []ProcessRecord) (active, completed []ProcessRecord) {
	for _, r := range records {
		if r.IsCompleted() {
			completed = append(completed, r)
		} else {
			active = append(active, r)
		}
	}
	return active, completed
}
