package models

import (
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title           string    `gorm:"type:text;not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	MandatorySkills []string  `gorm:"type:jsonb;serializer:json" json:"mandatory_skills"`
	PreferredSkills []string  `gorm:"type:jsonb;serializer:json" json:"preferred_skills"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// Requirements returns the read-only scoring input for this job.
func (j *Job) Requirements() JobRequirements {
	return JobRequirements{
		MandatorySkills: j.MandatorySkills,
		PreferredSkills: j.PreferredSkills,
	}
}
