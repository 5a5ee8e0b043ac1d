package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ClassRange string

const (
	RangeNursery ClassRange = "nursery"
	RangeLKG     ClassRange = "lkg"
	RangeUKG     ClassRange = "ukg"
	Range1To8    ClassRange = "1-8"
	Range9To10   ClassRange = "9-10"
	Range11To12  ClassRange = "11-12"
)

const (
	FeeCategoryGeneral  = "general"
	FeeCategoryReserved = "sc_st_obc_sbc"
)

type FeeStructureModel struct {
	FeeStructureID uuid.UUID  `gorm:"column:fee_structure_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"fee_structure_id"`
	FeeClassRange  ClassRange `gorm:"column:fee_class_range;type:varchar(10);not null" json:"class_range"`
	FeeCategory    string     `gorm:"column:fee_category;type:varchar(20);not null" json:"category"`
	FeeAnnualMin   int64      `gorm:"column:fee_annual_min;not null" json:"annual_fee_min"`
	FeeAnnualMax   int64      `gorm:"column:fee_annual_max;not null" json:"annual_fee_max"`
	FeeDescription *string    `gorm:"column:fee_description" json:"description,omitempty"`
	FeeIsActive    bool       `gorm:"column:fee_is_active;not null;default:true" json:"is_active"`

	FeeCreatedAt time.Time `gorm:"column:fee_created_at;autoCreateTime" json:"created_at"`
	FeeUpdatedAt time.Time `gorm:"column:fee_updated_at;autoUpdateTime" json:"updated_at"`
}

func (FeeStructureModel) TableName() string { return "admission_fee_structures" }

func (f FeeStructureModel) DisplayName() string {
	if f.FeeAnnualMax != f.FeeAnnualMin {
		return fmt.Sprintf("%s - %s: %d - %d", f.FeeClassRange, f.FeeCategory, f.FeeAnnualMin, f.FeeAnnualMax)
	}
	return fmt.Sprintf("%s - %s: %d", f.FeeClassRange, f.FeeCategory, f.FeeAnnualMin)
}
