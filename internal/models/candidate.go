package models

import (
	"time"

	"github.com/google/uuid"
)

type CandidateStatus string

const (
	StatusQueued     CandidateStatus = "queued"
	StatusProcessing CandidateStatus = "processing"
	StatusCompleted  CandidateStatus = "completed"
	StatusFailed     CandidateStatus = "failed"
)

// Candidate is the persisted record of one uploaded CV screened against one job.
type Candidate struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"job_id"`
	Filename         string          `gorm:"type:text" json:"filename"`
	OriginalFileName string          `gorm:"type:text" json:"original_filename"`
	MIMEType         string          `gorm:"type:text" json:"mime_type"`
	FilePath         string          `gorm:"type:text" json:"-"`
	Status           CandidateStatus `gorm:"not null;default:'queued';index" json:"status"`
	Name             string          `gorm:"type:text" json:"name"`
	Email            string          `gorm:"type:text" json:"email"`
	Phone            string          `gorm:"type:text" json:"phone"`
	Links            []string        `gorm:"type:jsonb;serializer:json" json:"links"`
	Skills           []string        `gorm:"type:jsonb;serializer:json" json:"skills"`
	ExtractionMethod string          `gorm:"type:text" json:"extraction_method,omitempty"`
	MatchScore       *float64        `gorm:"type:decimal(5,2)" json:"match_score,omitempty"`
	Decision         *Decision       `gorm:"type:text" json:"decision,omitempty"`
	MissingSkills    []string        `gorm:"type:jsonb;serializer:json" json:"missing_skills,omitempty"`
	Category         string          `gorm:"type:text" json:"category,omitempty"`
	CategoryScore    *float64        `gorm:"type:decimal(5,2)" json:"category_confidence,omitempty"`
	CategoryReason   string          `gorm:"type:text" json:"category_reasoning,omitempty"`
	ErrorMessage     *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Job Job `gorm:"foreignKey:JobID" json:"-"`
}

func (Candidate) TableName() string {
	return "candidates"
}
