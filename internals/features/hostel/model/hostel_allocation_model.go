package model

import (
	"time"

	"github.com/google/uuid"

	helper "schoolerp_backend/internals/helpers"
)

type AllocationStatus string

const (
	AllocationPending   AllocationStatus = "pending"
	AllocationActive    AllocationStatus = "active"
	AllocationSuspended AllocationStatus = "suspended"
	AllocationVacated   AllocationStatus = "vacated"
)

// HoldingStatuses keep the bed and the student's single live slot.
var HoldingStatuses = []AllocationStatus{AllocationPending, AllocationActive, AllocationSuspended}

func (s AllocationStatus) Holding() bool {
	return s == AllocationPending || s == AllocationActive || s == AllocationSuspended
}

type HostelAllocationModel struct {
	HostelAllocationID          uuid.UUID        `gorm:"column:hostel_allocation_id;type:uuid;default:gen_random_uuid();primaryKey" json:"hostel_allocation_id"`
	HostelAllocationStudentID   uuid.UUID        `gorm:"column:hostel_allocation_student_id;type:uuid;not null" json:"hostel_allocation_student_id"`
	HostelAllocationBedID       uuid.UUID        `gorm:"column:hostel_allocation_bed_id;type:uuid;not null" json:"hostel_allocation_bed_id"`
	HostelAllocationRoomID      uuid.UUID        `gorm:"column:hostel_allocation_room_id;type:uuid;not null" json:"hostel_allocation_room_id"`
	HostelAllocationStatus      AllocationStatus `gorm:"column:hostel_allocation_status;size:10;not null;default:pending" json:"hostel_allocation_status"`
	HostelAllocationAnnualFee   int64            `gorm:"column:hostel_allocation_annual_fee;not null;default:0" json:"hostel_allocation_annual_fee"`
	HostelAllocationStartDate   time.Time        `gorm:"column:hostel_allocation_start_date;type:date;not null" json:"hostel_allocation_start_date"`
	HostelAllocationVacatedOn   *time.Time       `gorm:"column:hostel_allocation_vacated_on;type:date" json:"hostel_allocation_vacated_on,omitempty"`
	HostelAllocationAllocatedBy *uuid.UUID       `gorm:"column:hostel_allocation_allocated_by;type:uuid" json:"hostel_allocation_allocated_by,omitempty"`
	HostelAllocationEndedBy     *uuid.UUID       `gorm:"column:hostel_allocation_ended_by;type:uuid" json:"hostel_allocation_ended_by,omitempty"`
	HostelAllocationNotes       *string          `gorm:"column:hostel_allocation_notes" json:"hostel_allocation_notes,omitempty"`
	HostelAllocationCreatedAt   time.Time        `gorm:"column:hostel_allocation_created_at;autoCreateTime" json:"hostel_allocation_created_at"`
	HostelAllocationUpdatedAt   time.Time        `gorm:"column:hostel_allocation_updated_at;autoUpdateTime" json:"hostel_allocation_updated_at"`
}

func (HostelAllocationModel) TableName() string { return "hostel_allocations" }

/* ===============================
   Transitions
=================================*/

// CanActivate reports done=true when the allocation is already active.
func (a *HostelAllocationModel) CanActivate() (done bool, err error) {
	switch a.HostelAllocationStatus {
	case AllocationActive:
		return true, nil
	case AllocationPending:
		return false, nil
	default:
		return false, helper.StateErr("ALLOCATION_NOT_PENDING", "only a pending allocation can be activated").
			With("status", a.HostelAllocationStatus)
	}
}

func (a *HostelAllocationModel) CanSuspend() error {
	if a.HostelAllocationStatus != AllocationActive {
		return helper.StateErr("ALLOCATION_NOT_ACTIVE", "only an active allocation can be suspended").
			With("status", a.HostelAllocationStatus)
	}
	return nil
}

func (a *HostelAllocationModel) CanReinstate() error {
	if a.HostelAllocationStatus != AllocationSuspended {
		return helper.StateErr("ALLOCATION_NOT_SUSPENDED", "only a suspended allocation can be reinstated").
			With("status", a.HostelAllocationStatus)
	}
	return nil
}

func (a *HostelAllocationModel) CanEnd() error {
	if a.HostelAllocationStatus == AllocationVacated {
		return helper.StateErr("ALREADY_VACATED", "this allocation has already ended")
	}
	return nil
}
