package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the database does not (sqlite has no
// gen_random_uuid default).
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// UserRole represents the role of an authenticated user
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether the role is one the backend issues
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Promotion represents a student cohort (e.g. "M2 Software 2026")
type Promotion struct {
	BaseModel
	Name         string            `gorm:"type:varchar(200);not null;index"`
	AcademicYear string            `gorm:"type:varchar(20);not null;index;column:academic_year"`
	Description  string            `gorm:"type:varchar(1000)"`
	CohortCode   string            `gorm:"type:varchar(50);column:cohort_code;index"`
	Archived     bool              `gorm:"not null;default:false;index"`
	CreatedBy    int64             `gorm:"not null;column:created_by"`
	Members      []PromotionMember `gorm:"foreignKey:PromotionID;constraint:OnDelete:CASCADE"`
}

// PromotionMember represents a student attached to a promotion roster.
// ExternalID carries the student number from the school's information system
// when the roster was imported rather than entered by hand.
type PromotionMember struct {
	BaseModel
	PromotionID uuid.UUID `gorm:"type:uuid;not null;column:promotion_id;uniqueIndex:idx_promotion_member_email"`
	Email       string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_promotion_member_email"`
	FirstName   string    `gorm:"type:varchar(100);not null;column:first_name"`
	LastName    string    `gorm:"type:varchar(100);not null;column:last_name"`
	ExternalID  string    `gorm:"type:varchar(50);column:external_id;index"`
}

// DefenseStatus represents the lifecycle state of a scheduled defense
type DefenseStatus string

const (
	DefenseStatusScheduled DefenseStatus = "scheduled"
	DefenseStatusCompleted DefenseStatus = "completed"
	DefenseStatusCancelled DefenseStatus = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states
func (s DefenseStatus) Valid() bool {
	switch s {
	case DefenseStatusScheduled, DefenseStatusCompleted, DefenseStatusCancelled:
		return true
	}
	return false
}

// Defense represents a scheduled oral defense for a project group.
// ProjectID and GroupID reference records owned by the upstream backend.
type Defense struct {
	BaseModel
	ProjectID   int64         `gorm:"not null;index;column:project_id"`
	GroupID     int64         `gorm:"not null;index;column:group_id"`
	Room        string        `gorm:"type:varchar(100);not null"`
	ScheduledAt time.Time     `gorm:"not null;index;column:scheduled_at"`
	DurationMin int           `gorm:"not null;default:30;column:duration_min"`
	PanelNotes  string        `gorm:"type:text;column:panel_notes"`
	Status      DefenseStatus `gorm:"type:varchar(20);not null;default:'scheduled';index"`
	CreatedBy   int64         `gorm:"not null;column:created_by"`
}

// NotificationKind classifies notifications for client-side rendering
type NotificationKind string

const (
	NotificationDefenseReminder NotificationKind = "defense_reminder"
	NotificationGradePublished  NotificationKind = "grade_published"
	NotificationGeneral         NotificationKind = "general"
)

// Notification represents a per-user message. DefenseID is set on defense
// reminders so the reminder job can tell which defenses it already covered.
type Notification struct {
	BaseModel
	UserID    int64            `gorm:"not null;index;column:user_id"`
	Kind      NotificationKind `gorm:"type:varchar(50);not null;default:'general'"`
	Title     string           `gorm:"type:varchar(200);not null"`
	Message   string           `gorm:"type:varchar(1000);not null"`
	Read      bool             `gorm:"not null;default:false;index"`
	DefenseID *uuid.UUID       `gorm:"type:uuid;index;column:defense_id"`
}

// Artifact represents a stored deliverable file. DeliverableID references
// the deliverable record owned by the upstream backend; the bytes live in
// gateway storage under StoragePath.
type Artifact struct {
	BaseModel
	DeliverableID int64  `gorm:"not null;index;column:deliverable_id"`
	UploadedBy    int64  `gorm:"not null;column:uploaded_by"`
	FileName      string `gorm:"type:varchar(255);not null;column:file_name"`
	ContentType   string `gorm:"type:varchar(100);not null;column:content_type"`
	SizeBytes     int64  `gorm:"not null;column:size_bytes"`
	StoragePath   string `gorm:"type:varchar(500);not null;column:storage_path"`
	Checksum      string `gorm:"type:varchar(64);column:checksum"`
}
