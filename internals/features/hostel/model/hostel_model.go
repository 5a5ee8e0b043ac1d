// file: internals/features/hostel/model/hostel_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoomSingle = "single"
	RoomDouble = "double"
	RoomTriple = "triple"
	RoomQuad   = "quad"
)

// RoomCapacity is the bed count each room type is built for.
var RoomCapacity = map[string]int{RoomSingle: 1, RoomDouble: 2, RoomTriple: 3, RoomQuad: 4}

const (
	BedOK               = "ok"
	BedUnderMaintenance = "under_maintenance"
)

type HostelBlockModel struct {
	HostelBlockID        uuid.UUID  `gorm:"column:hostel_block_id;type:uuid;default:gen_random_uuid();primaryKey" json:"hostel_block_id"`
	HostelBlockSchoolID  uuid.UUID  `gorm:"column:hostel_block_school_id;type:uuid;not null" json:"hostel_block_school_id"`
	HostelBlockName      string     `gorm:"column:hostel_block_name;size:100;not null" json:"hostel_block_name"`
	HostelBlockGender    string     `gorm:"column:hostel_block_gender;size:10;not null;default:mixed" json:"hostel_block_gender"`
	HostelBlockWardenID  *uuid.UUID `gorm:"column:hostel_block_warden_id;type:uuid" json:"hostel_block_warden_id,omitempty"`
	HostelBlockIsActive  bool       `gorm:"column:hostel_block_is_active;not null;default:true" json:"hostel_block_is_active"`
	HostelBlockCreatedAt time.Time  `gorm:"column:hostel_block_created_at;autoCreateTime" json:"hostel_block_created_at"`
	HostelBlockUpdatedAt time.Time  `gorm:"column:hostel_block_updated_at;autoUpdateTime" json:"hostel_block_updated_at"`
}

func (HostelBlockModel) TableName() string { return "hostel_blocks" }

type HostelRoomModel struct {
	HostelRoomID          uuid.UUID      `gorm:"column:hostel_room_id;type:uuid;default:gen_random_uuid();primaryKey" json:"hostel_room_id"`
	HostelRoomBlockID     uuid.UUID      `gorm:"column:hostel_room_block_id;type:uuid;not null" json:"hostel_room_block_id"`
	HostelRoomNumber      string         `gorm:"column:hostel_room_number;size:20;not null" json:"hostel_room_number"`
	HostelRoomFloor       int            `gorm:"column:hostel_room_floor;not null;default:0" json:"hostel_room_floor"`
	HostelRoomType        string         `gorm:"column:hostel_room_type;size:10;not null" json:"hostel_room_type"`
	HostelRoomCapacity    int            `gorm:"column:hostel_room_capacity;not null" json:"hostel_room_capacity"`
	HostelRoomOccupancy   int            `gorm:"column:hostel_room_occupancy;not null;default:0" json:"hostel_room_occupancy"`
	HostelRoomAnnualFee   int64          `gorm:"column:hostel_room_annual_fee;not null;default:0" json:"hostel_room_annual_fee"`
	HostelRoomAmenities   datatypes.JSON `gorm:"column:hostel_room_amenities;type:jsonb;not null;default:'[]'" json:"hostel_room_amenities"`
	HostelRoomIsAvailable bool           `gorm:"column:hostel_room_is_available;not null;default:true" json:"hostel_room_is_available"`
	HostelRoomCreatedAt   time.Time      `gorm:"column:hostel_room_created_at;autoCreateTime" json:"hostel_room_created_at"`
	HostelRoomUpdatedAt   time.Time      `gorm:"column:hostel_room_updated_at;autoUpdateTime" json:"hostel_room_updated_at"`
}

func (HostelRoomModel) TableName() string { return "hostel_rooms" }

type HostelBedModel struct {
	HostelBedID                uuid.UUID `gorm:"column:hostel_bed_id;type:uuid;default:gen_random_uuid();primaryKey" json:"hostel_bed_id"`
	HostelBedRoomID            uuid.UUID `gorm:"column:hostel_bed_room_id;type:uuid;not null" json:"hostel_bed_room_id"`
	HostelBedNumber            string    `gorm:"column:hostel_bed_number;size:10;not null" json:"hostel_bed_number"`
	HostelBedIsAvailable       bool      `gorm:"column:hostel_bed_is_available;not null;default:true" json:"hostel_bed_is_available"`
	HostelBedMaintenanceStatus string    `gorm:"column:hostel_bed_maintenance_status;size:20;not null;default:ok" json:"hostel_bed_maintenance_status"`
	HostelBedCreatedAt         time.Time `gorm:"column:hostel_bed_created_at;autoCreateTime" json:"hostel_bed_created_at"`
	HostelBedUpdatedAt         time.Time `gorm:"column:hostel_bed_updated_at;autoUpdateTime" json:"hostel_bed_updated_at"`
}

func (HostelBedModel) TableName() string { return "hostel_beds" }

// Bookable ignores allocations; the caller checks those under the room lock.
func (b *HostelBedModel) Bookable() bool {
	return b.HostelBedIsAvailable && b.HostelBedMaintenanceStatus != BedUnderMaintenance
}
