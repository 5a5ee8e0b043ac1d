package dto

import (
	"time"

	"github.com/google/uuid"

	model "schoolerp_backend/internals/features/hostel/model"
)

type BookRequest struct {
	RoomID string `json:"room_id" validate:"required,uuid"`
}

type AssignRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	BedID     string `json:"bed_id" validate:"required,uuid"`
	Notes     string `json:"notes" validate:"omitempty,max=500"`
}

type EndRequest struct {
	VacatedOn string `json:"vacated_on" validate:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes" validate:"omitempty,max=500"`
}

type GenerateBedsRequest struct {
	Count int `json:"count" validate:"required,min=1,max=12"`
}

type ListAllocationsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending active suspended vacated"`
	RoomID string `query:"room_id" validate:"omitempty,uuid"`
}

type RoomView struct {
	model.HostelRoomModel
	BlockName   string `json:"block_name" gorm:"column:hostel_block_name"`
	BlockGender string `json:"block_gender" gorm:"column:hostel_block_gender"`
	FreeBeds    int    `json:"free_beds" gorm:"column:free_beds"`
}

type InvoiceRef struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Amount        int64     `json:"amount"`
	DueDate       time.Time `json:"due_date"`
	Status        string    `json:"status"`
}

type AllocationView struct {
	model.HostelAllocationModel
	BlockName  string      `json:"block_name" gorm:"column:hostel_block_name"`
	RoomNumber string      `json:"room_number" gorm:"column:hostel_room_number"`
	RoomType   string      `json:"room_type" gorm:"column:hostel_room_type"`
	BedNumber  string      `json:"bed_number" gorm:"column:hostel_bed_number"`
	Invoice    *InvoiceRef `json:"invoice,omitempty" gorm:"-"`
}

type BookResponse struct {
	Allocation model.HostelAllocationModel `json:"allocation"`
	Invoice    InvoiceRef                  `json:"invoice"`
	BlockName  string                      `json:"block_name"`
	RoomNumber string                      `json:"room_number"`
	BedNumber  string                      `json:"bed_number"`
}
