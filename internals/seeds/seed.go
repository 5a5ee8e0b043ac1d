package seeds

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	feeModel "schoolerp_backend/internals/features/admissions/fees/model"
	hostelModel "schoolerp_backend/internals/features/hostel/model"
	hostelService "schoolerp_backend/internals/features/hostel/service"
	schoolModel "schoolerp_backend/internals/features/schools/model"
	accountModel "schoolerp_backend/internals/features/users/accounts/model"
	accountService "schoolerp_backend/internals/features/users/accounts/service"
)

//go:embed data/seed.yaml
var defaultSeed []byte

type File struct {
	Schools []School `yaml:"schools"`
	Fees    []Fee    `yaml:"fees"`
	Users   []User   `yaml:"users"`
}

type School struct {
	Code     string  `yaml:"code"`
	Name     string  `yaml:"name"`
	Email    string  `yaml:"email"`
	Phone    string  `yaml:"phone"`
	District string  `yaml:"district"`
	Address  string  `yaml:"address"`
	Hostel   []Block `yaml:"hostel"`
}

type Block struct {
	Name   string `yaml:"block"`
	Gender string `yaml:"gender"`
	Rooms  []Room `yaml:"rooms"`
}

type Room struct {
	Number    string   `yaml:"number"`
	Floor     int      `yaml:"floor"`
	Type      string   `yaml:"type"`
	AnnualFee int64    `yaml:"annual_fee"`
	Amenities []string `yaml:"amenities"`
}

type Fee struct {
	ClassRange string `yaml:"class_range"`
	Category   string `yaml:"category"`
	Min        int64  `yaml:"min"`
	Max        int64  `yaml:"max"`
}

type User struct {
	Email      string `yaml:"email"`
	Name       string `yaml:"name"`
	FullName   string `yaml:"full_name"`
	Role       string `yaml:"role"`
	SchoolCode string `yaml:"school_code"`
	Password   string `yaml:"password"`
}

// Load reads the seed file at path, or the embedded demo data when path is empty.
func Load(path string) (*File, error) {
	raw := defaultSeed
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		raw = b
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, f.Validate()
}

func (f *File) Validate() error {
	for _, fee := range f.Fees {
		if fee.Max < fee.Min {
			return fmt.Errorf("fee %s/%s: max below min", fee.ClassRange, fee.Category)
		}
	}
	for _, s := range f.Schools {
		for _, b := range s.Hostel {
			for _, r := range b.Rooms {
				if _, ok := hostelModel.RoomCapacity[r.Type]; !ok {
					return fmt.Errorf("room %s: unknown type %q", r.Number, r.Type)
				}
			}
		}
	}
	return nil
}

// Run upserts the seed data. Existing rows are left alone except fee bounds.
func Run(ctx context.Context, db *gorm.DB, f *File) error {
	codes := map[string]*schoolModel.SchoolModel{}
	for _, s := range f.Schools {
		sc, err := upsertSchool(ctx, db, s)
		if err != nil {
			return err
		}
		codes[s.Code] = sc
		for _, b := range s.Hostel {
			if err := seedBlock(ctx, db, sc, b); err != nil {
				return err
			}
		}
	}
	for _, fee := range f.Fees {
		row := feeModel.FeeStructureModel{
			FeeClassRange: feeModel.ClassRange(fee.ClassRange),
			FeeCategory:   fee.Category,
			FeeAnnualMin:  fee.Min,
			FeeAnnualMax:  fee.Max,
			FeeIsActive:   true,
		}
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fee_class_range"}, {Name: "fee_category"}},
			DoUpdates: clause.AssignmentColumns([]string{"fee_annual_min", "fee_annual_max"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("seed fee %s/%s: %w", fee.ClassRange, fee.Category, err)
		}
	}
	for _, u := range f.Users {
		if err := seedUser(ctx, db, u, codes); err != nil {
			return err
		}
	}
	zap.L().Info("[SEED] done",
		zap.Int("schools", len(f.Schools)),
		zap.Int("fees", len(f.Fees)),
		zap.Int("users", len(f.Users)))
	return nil
}

func strPtr(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func upsertSchool(ctx context.Context, db *gorm.DB, s School) (*schoolModel.SchoolModel, error) {
	row := schoolModel.SchoolModel{
		SchoolName:     s.Name,
		SchoolCode:     s.Code,
		SchoolEmail:    strPtr(s.Email),
		SchoolPhone:    strPtr(s.Phone),
		SchoolAddress:  strPtr(s.Address),
		SchoolDistrict: strPtr(s.District),
		SchoolIsActive: true,
	}
	if err := db.WithContext(ctx).
		Where(schoolModel.SchoolModel{SchoolCode: s.Code}).
		FirstOrCreate(&row).Error; err != nil {
		return nil, fmt.Errorf("seed school %s: %w", s.Code, err)
	}
	return &row, nil
}

func seedBlock(ctx context.Context, db *gorm.DB, sc *schoolModel.SchoolModel, b Block) error {
	block := hostelModel.HostelBlockModel{
		HostelBlockSchoolID: sc.SchoolID,
		HostelBlockName:     b.Name,
		HostelBlockGender:   b.Gender,
		HostelBlockIsActive: true,
	}
	if err := db.WithContext(ctx).
		Where("hostel_block_school_id = ? AND hostel_block_name = ?", sc.SchoolID, b.Name).
		FirstOrCreate(&block).Error; err != nil {
		return fmt.Errorf("seed block %s: %w", b.Name, err)
	}

	hs := hostelService.New(db, nil)
	for _, r := range b.Rooms {
		amen, _ := json.Marshal(r.Amenities)
		if r.Amenities == nil {
			amen = []byte("[]")
		}
		capacity := hostelModel.RoomCapacity[r.Type]
		room := hostelModel.HostelRoomModel{
			HostelRoomBlockID:     block.HostelBlockID,
			HostelRoomNumber:      r.Number,
			HostelRoomFloor:       r.Floor,
			HostelRoomType:        r.Type,
			HostelRoomCapacity:    capacity,
			HostelRoomAnnualFee:   r.AnnualFee,
			HostelRoomAmenities:   datatypes.JSON(amen),
			HostelRoomIsAvailable: true,
		}
		if err := db.WithContext(ctx).
			Where("hostel_room_block_id = ? AND hostel_room_number = ?", block.HostelBlockID, r.Number).
			FirstOrCreate(&room).Error; err != nil {
			return fmt.Errorf("seed room %s: %w", r.Number, err)
		}
		if room.HostelRoomCapacity > capacity {
			capacity = room.HostelRoomCapacity
		}
		if _, err := hs.GenerateBeds(ctx, room.HostelRoomID, capacity); err != nil {
			return fmt.Errorf("seed beds %s: %w", r.Number, err)
		}
	}
	return nil
}

func seedUser(ctx context.Context, db *gorm.DB, u User, schools map[string]*schoolModel.SchoolModel) error {
	hash, err := accountService.HashPassword(u.Password)
	if err != nil {
		return err
	}
	row := accountModel.UserModel{
		UserName:               u.Name,
		UserEmail:              strings.ToLower(u.Email),
		UserPassword:           hash,
		UserFullName:           strPtr(u.FullName),
		UserRole:               u.Role,
		UserMustChangePassword: true,
		UserIsActive:           true,
	}
	if sc, ok := schools[u.SchoolCode]; ok {
		row.UserSchoolID = &sc.SchoolID
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_email"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return fmt.Errorf("seed user %s: %w", u.Email, res.Error)
	}
	if res.RowsAffected > 0 {
		zap.L().Warn("[SEED] user created with the seed password, change it after first login",
			zap.String("email", row.UserEmail), zap.String("role", row.UserRole))
	}
	return nil
}
