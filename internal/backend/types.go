package backend

import (
	"time"

	"github.com/projecthub-edu/projecthub-api/internal/domain"
)

// Types mirroring the upstream backend's JSON payloads. Identifiers are the
// upstream's numeric ids, not gateway UUIDs.

// LoginResponse is the upstream's answer to a successful login or registration
type LoginResponse struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

// RegisterRequest creates a new account upstream. The field set mirrors the
// upstream contract: a single display name, not a first/last split.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher"`
}

// Project is an upstream project record
type Project struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	MinGroupSize int        `json:"minGroupSize"`
	MaxGroupSize int        `json:"maxGroupSize"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	CreatedBy    int64      `json:"createdBy"`
}

// GroupMember is a student inside an upstream group
type GroupMember struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Group is an upstream project group
type Group struct {
	ID        int64         `json:"id"`
	ProjectID int64         `json:"projectId"`
	Name      string        `json:"name"`
	Members   []GroupMember `json:"members"`
}

// ArtifactMetadata is the deliverable-file record forwarded upstream after
// the bytes land in gateway storage
type ArtifactMetadata struct {
	DeliverableID int64  `json:"deliverableId"`
	FileName      string `json:"fileName"`
	ContentType   string `json:"contentType"`
	SizeBytes     int64  `json:"sizeBytes"`
	Checksum      string `json:"checksum,omitempty"`
	UploadedBy    int64  `json:"uploadedBy"`
}
