// file: internals/features/hostel/service/hostel_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	invoiceModel "schoolerp_backend/internals/features/finance/invoices/model"
	invoiceService "schoolerp_backend/internals/features/finance/invoices/service"
	dto "schoolerp_backend/internals/features/hostel/dto"
	model "schoolerp_backend/internals/features/hostel/model"
	"schoolerp_backend/internals/features/notifications/email"
	helper "schoolerp_backend/internals/helpers"
	"schoolerp_backend/internals/helpers/dbtime"
	"schoolerp_backend/internals/observability"
)

const invoiceDueDays = 30

var errAllocationExists = helper.Conflict("ALLOCATION_EXISTS", "the student already has a pending or active hostel allocation")

type Service struct {
	DB   *gorm.DB
	Mail email.Sender
}

func New(db *gorm.DB, mail email.Sender) *Service {
	return &Service{DB: db, Mail: mail}
}

// RegisterInvoiceHooks activates the allocation once its hostel invoice is paid.
func (s *Service) RegisterInvoiceHooks(inv *invoiceService.Service) {
	inv.OnPaid(invoiceModel.FeeTypeHostel, func(ctx context.Context, tx *gorm.DB, m *invoiceModel.FeeInvoiceModel) error {
		return ActivateOnPayment(ctx, tx, m.FeeInvoiceID)
	})
}

/* ===============================
   Loading and locking
=================================*/

// student is the slice of the profile booking needs.
type student struct {
	StudentID       uuid.UUID `gorm:"column:student_id"`
	StudentSchoolID uuid.UUID `gorm:"column:student_school_id"`
	StudentFullName string    `gorm:"column:student_full_name"`
	UserEmail       string    `gorm:"column:user_email"`
}

func loadStudent(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*student, error) {
	var st student
	if err := tx.WithContext(ctx).
		Table("student_profiles AS s").
		Select("s.student_id, s.student_school_id, s.student_full_name, u.user_email").
		Joins("JOIN users u ON u.user_id = s.student_user_id").
		Where("s.student_id = ?", id).
		Take(&st).Error; err != nil {
		return nil, helper.NotFoundOr(err, "STUDENT_NOT_FOUND", "student profile not found")
	}
	return &st, nil
}

// lockRoom takes the room row lock that serialises every booking of the room.
func lockRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (*model.HostelRoomModel, *model.HostelBlockModel, error) {
	var room model.HostelRoomModel
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("hostel_room_id = ?", roomID).
		Take(&room).Error; err != nil {
		return nil, nil, helper.NotFoundOr(err, "ROOM_NOT_FOUND", "room not found")
	}
	var block model.HostelBlockModel
	if err := tx.WithContext(ctx).
		Where("hostel_block_id = ?", room.HostelRoomBlockID).
		Take(&block).Error; err != nil {
		return nil, nil, err
	}
	return &room, &block, nil
}

func lockAllocation(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.HostelAllocationModel, error) {
	var a model.HostelAllocationModel
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("hostel_allocation_id = ?", id).
		Take(&a).Error; err != nil {
		return nil, helper.NotFoundOr(err, "ALLOCATION_NOT_FOUND", "allocation not found")
	}
	return &a, nil
}

const bedFreeSQL = `b.hostel_bed_is_available
	AND b.hostel_bed_maintenance_status <> 'under_maintenance'
	AND NOT EXISTS (
		SELECT 1 FROM hostel_allocations a
		WHERE a.hostel_allocation_bed_id = b.hostel_bed_id
		  AND a.hostel_allocation_status IN ('pending','active','suspended'))`

func hasHoldingAllocation(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).
		Model(&model.HostelAllocationModel{}).
		Where("hostel_allocation_student_id = ? AND hostel_allocation_status IN ?", studentID, model.HoldingStatuses).
		Count(&n).Error
	return n > 0, err
}

/* ===============================
   Booking
=================================*/

type reservation struct {
	student *student
	room    *model.HostelRoomModel
	block   *model.HostelBlockModel
	bed     *model.HostelBedModel
	actor   *uuid.UUID
	notes   string
}

// reserve creates the pending allocation and its invoice. The caller holds the
// room lock and has checked the student's holding allocations.
func reserve(ctx context.Context, tx *gorm.DB, r reservation) (*dto.BookResponse, error) {
	var holding int64
	if err := tx.WithContext(ctx).Model(&model.HostelAllocationModel{}).
		Where("hostel_allocation_room_id = ? AND hostel_allocation_status IN ?", r.room.HostelRoomID, model.HoldingStatuses).
		Count(&holding).Error; err != nil {
		return nil, err
	}
	// beds may outnumber capacity after a room type change
	if holding >= int64(r.room.HostelRoomCapacity) {
		return nil, helper.Conflict("NO_BEDS_AVAILABLE", "the room is full").
			With("capacity", r.room.HostelRoomCapacity)
	}

	today := dbtime.Today()
	a := model.HostelAllocationModel{
		HostelAllocationStudentID:   r.student.StudentID,
		HostelAllocationBedID:       r.bed.HostelBedID,
		HostelAllocationRoomID:      r.room.HostelRoomID,
		HostelAllocationStatus:      model.AllocationPending,
		HostelAllocationAnnualFee:   r.room.HostelRoomAnnualFee,
		HostelAllocationStartDate:   today,
		HostelAllocationAllocatedBy: r.actor,
	}
	if r.notes != "" {
		a.HostelAllocationNotes = &r.notes
	}
	if err := tx.WithContext(ctx).Create(&a).Error; err != nil {
		switch {
		case helper.IsUniqueViolation(err, "uq_hostel_alloc_student_holding"):
			return nil, errAllocationExists
		case helper.IsUniqueViolation(err, "uq_hostel_alloc_bed_holding"):
			return nil, helper.Conflict("NO_BEDS_AVAILABLE", "the bed was taken, try again")
		}
		return nil, err
	}

	inv, err := invoiceService.Create(ctx, tx, invoiceService.NewInvoice{
		SchoolID:      r.student.StudentSchoolID,
		StudentID:     &r.student.StudentID,
		AllocationID:  &a.HostelAllocationID,
		FeeType:       invoiceModel.FeeTypeHostel,
		Amount:        r.room.HostelRoomAnnualFee,
		DueDate:       today.AddDate(0, 0, invoiceDueDays),
		Description:   fmt.Sprintf("Hostel fee - %s room %s", r.block.HostelBlockName, r.room.HostelRoomNumber),
		CustomerName:  r.student.StudentFullName,
		CustomerEmail: r.student.UserEmail,
	})
	if err != nil {
		return nil, err
	}

	if err := RecomputeOccupancy(ctx, tx, r.room.HostelRoomID); err != nil {
		return nil, err
	}

	return &dto.BookResponse{
		Allocation: a,
		Invoice: dto.InvoiceRef{
			InvoiceID:     inv.FeeInvoiceID,
			InvoiceNumber: inv.FeeInvoiceNumber,
			Amount:        inv.FeeInvoiceAmount,
			DueDate:       inv.FeeInvoiceDueDate,
			Status:        string(inv.FeeInvoiceStatus),
		},
		BlockName:  r.block.HostelBlockName,
		RoomNumber: r.room.HostelRoomNumber,
		BedNumber:  r.bed.HostelBedNumber,
	}, nil
}

func (s *Service) notifyBooking(st *student, out *dto.BookResponse) {
	if s.Mail == nil || st.UserEmail == "" {
		return
	}
	s.Mail.SendMessages(email.HostelBooking(st.UserEmail, email.HostelBookingData{
		StudentName:   st.StudentFullName,
		BlockName:     out.BlockName,
		RoomNumber:    out.RoomNumber,
		BedNumber:     out.BedNumber,
		InvoiceNumber: out.Invoice.InvoiceNumber,
		Amount:        out.Invoice.Amount,
		DueDate:       out.Invoice.DueDate,
	}))
}

func observeBooking(err error) {
	observability.HostelBookings.WithLabelValues(observability.Result(err, helper.CodeOf(err))).Inc()
}

// Book reserves the first free bed of a room for the student.
func (s *Service) Book(ctx context.Context, studentID, roomID uuid.UUID, actor *uuid.UUID) (out *dto.BookResponse, err error) {
	defer func() { observeBooking(err) }()

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	room, block, err := lockRoom(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}
	st, err := loadStudent(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}
	// rooms of other schools are invisible to the student
	if block.HostelBlockSchoolID != st.StudentSchoolID || !block.HostelBlockIsActive {
		return nil, helper.NotFound("ROOM_NOT_FOUND", "room not found")
	}

	held, err := hasHoldingAllocation(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}
	if held {
		return nil, errAllocationExists
	}

	var beds []model.HostelBedModel
	if err := tx.Table("hostel_beds AS b").
		Select("b.*").
		Where("b.hostel_bed_room_id = ?", roomID).
		Where(bedFreeSQL).
		Order("b.hostel_bed_number").
		Limit(1).
		Find(&beds).Error; err != nil {
		return nil, err
	}
	if len(beds) == 0 {
		return nil, helper.Conflict("NO_BEDS_AVAILABLE", "no available beds in this room")
	}

	out, err = reserve(ctx, tx, reservation{student: st, room: room, block: block, bed: &beds[0], actor: actor})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	zap.L().Info("[HOSTEL] booked",
		zap.String("student_id", studentID.String()),
		zap.String("room_id", roomID.String()),
		zap.String("bed", out.BedNumber),
		zap.String("invoice_number", out.Invoice.InvoiceNumber))
	s.notifyBooking(st, out)
	return out, nil
}

// Assign is the staff path: a named bed for a named student.
func (s *Service) Assign(ctx context.Context, studentID, bedID uuid.UUID, actor *uuid.UUID, notes string) (out *dto.BookResponse, err error) {
	defer func() { observeBooking(err) }()

	var bed model.HostelBedModel
	if err := s.DB.WithContext(ctx).Where("hostel_bed_id = ?", bedID).Take(&bed).Error; err != nil {
		return nil, helper.NotFoundOr(err, "BED_NOT_FOUND", "bed not found")
	}

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	room, block, err := lockRoom(ctx, tx, bed.HostelBedRoomID)
	if err != nil {
		return nil, err
	}
	st, err := loadStudent(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}
	if block.HostelBlockSchoolID != st.StudentSchoolID {
		return nil, helper.StateErr("ROOM_OUTSIDE_SCHOOL", "the bed belongs to another school's hostel")
	}
	held, err := hasHoldingAllocation(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}
	if held {
		return nil, errAllocationExists
	}

	var free int64
	if err := tx.Table("hostel_beds AS b").
		Where("b.hostel_bed_id = ?", bedID).
		Where(bedFreeSQL).
		Count(&free).Error; err != nil {
		return nil, err
	}
	if free == 0 {
		return nil, helper.Conflict("BED_UNAVAILABLE", "the bed is taken or under maintenance")
	}

	out, err = reserve(ctx, tx, reservation{student: st, room: room, block: block, bed: &bed, actor: actor, notes: notes})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	zap.L().Info("[HOSTEL] assigned",
		zap.String("student_id", studentID.String()),
		zap.String("bed_id", bedID.String()))
	s.notifyBooking(st, out)
	return out, nil
}

/* ===============================
   Transitions
=================================*/

// ActivateOnPayment moves the allocation behind a paid hostel invoice from
// pending to active. Runs inside the payment transaction; repeat calls are no-ops.
func ActivateOnPayment(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) error {
	var inv invoiceModel.FeeInvoiceModel
	if err := tx.WithContext(ctx).Where("fee_invoice_id = ?", invoiceID).Take(&inv).Error; err != nil {
		return helper.NotFoundOr(err, "INVOICE_NOT_FOUND", "invoice not found")
	}
	if inv.FeeInvoiceAllocationID == nil || inv.FeeInvoiceFeeType != invoiceModel.FeeTypeHostel {
		return nil
	}
	if inv.FeeInvoiceStatus != invoiceModel.InvoicePaid {
		return helper.StateErr("INVOICE_NOT_PAID", "the hostel invoice is not paid")
	}
	a, err := lockAllocation(ctx, tx, *inv.FeeInvoiceAllocationID)
	if err != nil {
		return err
	}
	done, err := a.CanActivate()
	if err != nil || done {
		return err
	}
	if err := tx.WithContext(ctx).Model(a).
		Update("hostel_allocation_status", model.AllocationActive).Error; err != nil {
		return err
	}
	zap.L().Info("[HOSTEL] allocation activated",
		zap.String("allocation_id", a.HostelAllocationID.String()),
		zap.String("invoice_number", inv.FeeInvoiceNumber))
	return nil
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, guard func(*model.HostelAllocationModel) error, to model.AllocationStatus) (*model.HostelAllocationModel, error) {
	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	a, err := lockAllocation(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := guard(a); err != nil {
		return nil, err
	}
	if err := tx.Model(a).Update("hostel_allocation_status", to).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	a.HostelAllocationStatus = to
	return a, nil
}

// Suspend keeps the bed held; occupancy does not change.
func (s *Service) Suspend(ctx context.Context, id uuid.UUID) (*model.HostelAllocationModel, error) {
	return s.setStatus(ctx, id, (*model.HostelAllocationModel).CanSuspend, model.AllocationSuspended)
}

func (s *Service) Reinstate(ctx context.Context, id uuid.UUID) (*model.HostelAllocationModel, error) {
	return s.setStatus(ctx, id, (*model.HostelAllocationModel).CanReinstate, model.AllocationActive)
}

// End vacates the allocation, frees the bed and cancels its unpaid invoice.
func (s *Service) End(ctx context.Context, id uuid.UUID, actor *uuid.UUID, vacatedOn *time.Time, notes string) (*model.HostelAllocationModel, error) {
	var roomIDs []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&model.HostelAllocationModel{}).
		Where("hostel_allocation_id = ?", id).
		Pluck("hostel_allocation_room_id", &roomIDs).Error; err != nil {
		return nil, err
	}
	if len(roomIDs) == 0 {
		return nil, helper.NotFound("ALLOCATION_NOT_FOUND", "allocation not found")
	}
	roomID := roomIDs[0]

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	// room first, same order as booking
	if _, _, err := lockRoom(ctx, tx, roomID); err != nil {
		return nil, err
	}
	a, err := lockAllocation(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := a.CanEnd(); err != nil {
		return nil, err
	}

	day := dbtime.Today()
	if vacatedOn != nil {
		day = *vacatedOn
	}
	if day.Before(a.HostelAllocationStartDate) {
		return nil, helper.FieldError("vacated_on", "must not be before the allocation start date")
	}
	updates := map[string]any{
		"hostel_allocation_status":     model.AllocationVacated,
		"hostel_allocation_vacated_on": day,
		"hostel_allocation_ended_by":   actor,
	}
	if notes != "" {
		updates["hostel_allocation_notes"] = notes
	}
	if err := tx.Model(a).Updates(updates).Error; err != nil {
		return nil, err
	}
	cancelled, err := invoiceService.CancelForAllocation(ctx, tx, a.HostelAllocationID)
	if err != nil {
		return nil, err
	}
	if err := RecomputeOccupancy(ctx, tx, a.HostelAllocationRoomID); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	zap.L().Info("[HOSTEL] allocation ended",
		zap.String("allocation_id", id.String()),
		zap.Int64("invoices_cancelled", cancelled))

	a.HostelAllocationStatus = model.AllocationVacated
	a.HostelAllocationVacatedOn = &day
	a.HostelAllocationEndedBy = actor
	return a, nil
}

// RecomputeOccupancy sets occupancy to the number of holding allocations and
// availability to occupancy < capacity.
func RecomputeOccupancy(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) error {
	return tx.WithContext(ctx).Exec(`
		UPDATE hostel_rooms r
		   SET hostel_room_occupancy    = sub.n,
		       hostel_room_is_available = sub.n < r.hostel_room_capacity,
		       hostel_room_updated_at   = now()
		  FROM (SELECT count(*)::int AS n
		          FROM hostel_allocations
		         WHERE hostel_allocation_room_id = ?
		           AND hostel_allocation_status IN ?) sub
		 WHERE r.hostel_room_id = ?
	`, roomID, model.HoldingStatuses, roomID).Error
}

/* ===============================
   Beds
=================================*/

// GenerateBeds tops the room up to count beds numbered B01.. and sets the
// capacity to match. Existing beds are kept.
func (s *Service) GenerateBeds(ctx context.Context, roomID uuid.UUID, count int) (*model.HostelRoomModel, error) {
	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	room, _, err := lockRoom(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}
	var existing int64
	if err := tx.Model(&model.HostelBedModel{}).Where("hostel_bed_room_id = ?", roomID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if int64(count) < existing || count < room.HostelRoomOccupancy {
		return nil, helper.FieldError("count", "must not be below the current beds or occupancy")
	}

	beds := make([]model.HostelBedModel, 0, count)
	for i := 1; i <= count; i++ {
		beds = append(beds, model.HostelBedModel{
			HostelBedRoomID:            roomID,
			HostelBedNumber:            fmt.Sprintf("B%02d", i),
			HostelBedIsAvailable:       true,
			HostelBedMaintenanceStatus: model.BedOK,
		})
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hostel_bed_room_id"}, {Name: "hostel_bed_number"}},
		DoNothing: true,
	}).Create(&beds).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(room).Update("hostel_room_capacity", count).Error; err != nil {
		return nil, err
	}
	if err := RecomputeOccupancy(ctx, tx, roomID); err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	room.HostelRoomCapacity = count
	return room, nil
}

/* ===============================
   Reads
=================================*/

// ListRooms returns the school's rooms with their free bed counts.
func (s *Service) ListRooms(ctx context.Context, schoolID uuid.UUID, onlyAvailable bool) ([]dto.RoomView, error) {
	var rows []dto.RoomView
	err := s.DB.WithContext(ctx).
		Table("hostel_rooms AS r").
		Select(`r.*, bl.hostel_block_name, bl.hostel_block_gender,
			(SELECT count(*) FROM hostel_beds b WHERE b.hostel_bed_room_id = r.hostel_room_id AND `+bedFreeSQL+`) AS free_beds`).
		Joins("JOIN hostel_blocks bl ON bl.hostel_block_id = r.hostel_room_block_id").
		Where("bl.hostel_block_school_id = ? AND bl.hostel_block_is_active", schoolID).
		Order("bl.hostel_block_name, r.hostel_room_floor, r.hostel_room_number").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if !onlyAvailable {
		return rows, nil
	}
	out := rows[:0]
	for _, r := range rows {
		if r.HostelRoomIsAvailable && r.FreeBeds > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

func allocationQuery(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("hostel_allocations AS a").
		Select("a.*, bl.hostel_block_name, r.hostel_room_number, r.hostel_room_type, b.hostel_bed_number").
		Joins("JOIN hostel_rooms r ON r.hostel_room_id = a.hostel_allocation_room_id").
		Joins("JOIN hostel_blocks bl ON bl.hostel_block_id = r.hostel_room_block_id").
		Joins("JOIN hostel_beds b ON b.hostel_bed_id = a.hostel_allocation_bed_id")
}

// CurrentAllocation returns the student's latest allocation with its invoice.
func (s *Service) CurrentAllocation(ctx context.Context, studentID uuid.UUID) (*dto.AllocationView, error) {
	var v dto.AllocationView
	err := allocationQuery(ctx, s.DB).
		Where("a.hostel_allocation_student_id = ?", studentID).
		Order("(a.hostel_allocation_status <> 'vacated') DESC, a.hostel_allocation_created_at DESC").
		Take(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.NotFound("NO_ALLOCATION", "no hostel allocation")
	}
	if err != nil {
		return nil, err
	}

	var inv []invoiceModel.FeeInvoiceModel
	if err := s.DB.WithContext(ctx).
		Where("fee_invoice_allocation_id = ?", v.HostelAllocationID).
		Order("fee_invoice_created_at DESC").
		Limit(1).
		Find(&inv).Error; err != nil {
		return nil, err
	}
	if len(inv) > 0 {
		v.Invoice = &dto.InvoiceRef{
			InvoiceID:     inv[0].FeeInvoiceID,
			InvoiceNumber: inv[0].FeeInvoiceNumber,
			Amount:        inv[0].FeeInvoiceAmount,
			DueDate:       inv[0].FeeInvoiceDueDate,
			Status:        string(inv[0].FeeInvoiceStatus),
		}
	}
	return &v, nil
}

func (s *Service) ListAllocations(ctx context.Context, schoolID *uuid.UUID, q dto.ListAllocationsQuery, p helper.Paging) ([]dto.AllocationView, int64, error) {
	base := allocationQuery(ctx, s.DB)
	if schoolID != nil {
		base = base.Where("bl.hostel_block_school_id = ?", *schoolID)
	}
	if q.Status != "" {
		base = base.Where("a.hostel_allocation_status = ?", q.Status)
	}
	if q.RoomID != "" {
		base = base.Where("a.hostel_allocation_room_id = ?", q.RoomID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []dto.AllocationView
	err := base.
		Order("a.hostel_allocation_created_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Scan(&rows).Error
	return rows, total, err
}
