package entity

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Kind selects the student or staff variant of the per-profile logs.
type Kind string

const (
	KindStudent Kind = "student"
	KindStaff   Kind = "staff"
)

func (k Kind) Valid() bool {
	return k == KindStudent || k == KindStaff
}

// Owner identifies the student or staff profile a leave, feedback or
// notification belongs to.
type Owner struct {
	Kind      Kind
	ProfileID uint
}

// OwnerOf resolves the log owner of an account with its profile loaded.
func OwnerOf(a *Account) (Owner, bool) {
	switch {
	case a.Role == RoleStudent && a.Student != nil:
		return Owner{Kind: KindStudent, ProfileID: a.Student.ID}, true
	case a.Role == RoleStaff && a.Staff != nil:
		return Owner{Kind: KindStaff, ProfileID: a.Staff.ID}, true
	}
	return Owner{}, false
}

type AdministratorProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type StaffProfile struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AccountID      uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Account        *Account   `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"account,omitempty"`
	FirstName      string     `gorm:"size:50;not null" json:"first_name"`
	LastName       string     `gorm:"size:50;not null" json:"last_name"`
	Address        *string    `gorm:"type:text" json:"address,omitempty"`
	PhoneNumber    string     `gorm:"size:15" json:"phone_number"`
	DateOfBirth    *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Age            int        `gorm:"not null;default:0" json:"age"`
	Gender         Gender     `gorm:"size:20;not null" json:"gender"`
	DateOfJoining  *time.Time `gorm:"type:date" json:"date_of_joining,omitempty"`
	Qualifications *string    `gorm:"type:text" json:"qualifications,omitempty"`
	SubjectsTaught []Subject  `gorm:"many2many:staff_subjects;constraint:OnDelete:CASCADE" json:"subjects_taught,omitempty"`
	PhotoURL       *string    `gorm:"type:text" json:"photo_url,omitempty"`
	Bio            *string    `gorm:"type:text" json:"bio,omitempty"`
	IsActive       bool       `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// StudentProfile carries enrollment data. RollNumber is unique within the
// course and RegistrationNumber never changes once assigned.
type StudentProfile struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AccountID          uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Account            *Account       `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"account,omitempty"`
	FirstName          string         `gorm:"size:50;not null" json:"first_name"`
	MiddleName         *string        `gorm:"size:50" json:"middle_name,omitempty"`
	LastName           string         `gorm:"size:50;not null" json:"last_name"`
	ContactNumber      string         `gorm:"size:15" json:"contact_number"`
	Gender             Gender         `gorm:"size:20;not null" json:"gender"`
	Age                int            `gorm:"not null;default:0" json:"age"`
	PhotoURL           *string        `gorm:"type:text" json:"photo_url,omitempty"`
	Address            string         `gorm:"type:text;not null" json:"address"`
	FatherName         string         `gorm:"size:255;not null" json:"father_name"`
	StudentCNIC        *string        `gorm:"column:student_cnic;size:15;uniqueIndex" json:"student_cnic,omitempty"`
	FatherCNIC         *string        `gorm:"column:father_cnic;size:15" json:"father_cnic,omitempty"`
	DateOfBirth        *time.Time     `gorm:"type:date" json:"date_of_birth,omitempty"`
	RollNumber         int            `gorm:"not null;uniqueIndex:idx_student_course_roll_number,priority:2" json:"roll_number"`
	RegistrationNumber string         `gorm:"size:20;uniqueIndex;not null" json:"registration_number"`
	CourseID           uint           `gorm:"not null;index;uniqueIndex:idx_student_course_roll_number,priority:1" json:"course_id"`
	Course             *Course        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"course,omitempty"`
	SessionPeriodID    uint           `gorm:"not null;index" json:"session_period_id"`
	SessionPeriod      *SessionPeriod `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"session_period,omitempty"`
	IsActive           bool           `gorm:"not null" json:"is_active"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *StudentProfile) FullName() string {
	if p.MiddleName != nil && *p.MiddleName != "" {
		return p.FirstName + " " + *p.MiddleName + " " + p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// AgeAt is the student's age in whole years at now, zero when the date of
// birth is unknown.
func (p *StudentProfile) AgeAt(now time.Time) int {
	return YearsBetween(p.DateOfBirth, now)
}

func (p *StaffProfile) AgeAt(now time.Time) int {
	return YearsBetween(p.DateOfBirth, now)
}

// YearsBetween returns the number of full years from dob to now.
func YearsBetween(dob *time.Time, now time.Time) int {
	if dob == nil || dob.IsZero() {
		return 0
	}

	y1, m1, d1 := dob.Date()
	y2, m2, d2 := now.In(dob.Location()).Date()

	years := y2 - y1
	if m2 < m1 || (m2 == m1 && d2 < d1) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
