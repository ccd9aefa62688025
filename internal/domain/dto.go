package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses

// UserSummary is the authenticated user as the upstream backend reports it
type UserSummary struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// UnreadCountDTO carries the unread notification count
type UnreadCountDTO struct {
	Count int `json:"count"`
}

type PromotionDTO struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name"`
	AcademicYear string               `json:"academicYear"`
	Description  string               `json:"description,omitempty"`
	CohortCode   string               `json:"cohortCode,omitempty"`
	Archived     bool                 `json:"archived"`
	CreatedBy    int64                `json:"createdBy"`
	MemberCount  int                  `json:"memberCount"`
	Members      []PromotionMemberDTO `json:"members,omitempty"`
	CreatedAt    string               `json:"createdAt"` // ISO 8601
	UpdatedAt    string               `json:"updatedAt"` // ISO 8601
}

type PromotionMemberDTO struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	ExternalID string    `json:"externalId,omitempty"`
}

type DefenseDTO struct {
	ID          uuid.UUID     `json:"id"`
	ProjectID   int64         `json:"projectId"`
	GroupID     int64         `json:"groupId"`
	Room        string        `json:"room"`
	ScheduledAt string        `json:"scheduledAt"` // ISO 8601
	DurationMin int           `json:"durationMin"`
	PanelNotes  string        `json:"panelNotes,omitempty"`
	Status      DefenseStatus `json:"status"`
	CreatedBy   int64         `json:"createdBy"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
}

type NotificationDTO struct {
	ID        uuid.UUID        `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt string           `json:"createdAt"`
}

type ArtifactDTO struct {
	ID            uuid.UUID `json:"id"`
	DeliverableID int64     `json:"deliverableId"`
	UploadedBy    int64     `json:"uploadedBy"`
	FileName      string    `json:"fileName"`
	ContentType   string    `json:"contentType"`
	SizeBytes     int64     `json:"sizeBytes"`
	Checksum      string    `json:"checksum,omitempty"`
	CreatedAt     string    `json:"createdAt"`
}

// Request types

type CreatePromotionRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	AcademicYear string `json:"academicYear" validate:"required,max=20"`
	Description  string `json:"description" validate:"max=1000"`
	CohortCode   string `json:"cohortCode" validate:"max=50"`
}

type UpdatePromotionRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=200"`
	AcademicYear *string `json:"academicYear" validate:"omitempty,max=20"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	CohortCode   *string `json:"cohortCode" validate:"omitempty,max=50"`
	Archived     *bool   `json:"archived"`
}

type AddPromotionMemberRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

type CreateDefenseRequest struct {
	ProjectID   int64     `json:"projectId" validate:"required,gt=0"`
	GroupID     int64     `json:"groupId" validate:"required,gt=0"`
	Room        string    `json:"room" validate:"required,max=100"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
	DurationMin int       `json:"durationMin" validate:"omitempty,gte=10,lte=240"`
	PanelNotes  string    `json:"panelNotes" validate:"max=5000"`
}

type UpdateDefenseRequest struct {
	Room        *string        `json:"room" validate:"omitempty,max=100"`
	ScheduledAt *time.Time     `json:"scheduledAt"`
	DurationMin *int           `json:"durationMin" validate:"omitempty,gte=10,lte=240"`
	PanelNotes  *string        `json:"panelNotes" validate:"omitempty,max=5000"`
	Status      *DefenseStatus `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
}

// DefenseStatsDTO holds aggregated counts over scheduled defenses
type DefenseStatsDTO struct {
	Total     int64 `json:"total"`
	Scheduled int64 `json:"scheduled"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	Upcoming  int64 `json:"upcoming"`
}

// ImportRosterRequest names the SIS cohort to pull into a promotion roster
type ImportRosterRequest struct {
	CohortCode string `json:"cohortCode" validate:"required,max=50"`
}

// RosterImportResultDTO summarizes a promotion roster import
type RosterImportResultDTO struct {
	PromotionID uuid.UUID `json:"promotionId"`
	Imported    int       `json:"imported"`
	Skipped     int       `json:"skipped"`
}

// FormatTime renders a timestamp the way every DTO does
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
