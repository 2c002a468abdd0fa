package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/cv-screener/internal/models"
)

type CandidateRepository interface {
	Create(candidate *models.Candidate) error
	FindByID(id uuid.UUID) (*models.Candidate, error)
	FindByJob(jobID uuid.UUID) ([]models.Candidate, error)
	FindByIDs(ids []uuid.UUID) ([]models.Candidate, error)
	UpdateStatus(id uuid.UUID, status models.CandidateStatus) error
	UpdateResult(id uuid.UUID, result *CandidateUpdateData) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Candidate, error)
}

type CandidateUpdateData struct {
	Name             string
	Email            string
	Phone            string
	Links            []string
	Skills           []string
	ExtractionMethod string
	MatchScore       float64
	Decision         models.Decision
	MissingSkills    []string
	// Category is left untouched when nil.
	Category         *models.CVCategory
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(candidate *models.Candidate) error {
	if err := r.db.Create(candidate).Error; err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

func (r *candidateRepository) FindByID(id uuid.UUID) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.Where("id = ?", id).First(&candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find candidate: %w", err)
	}
	return &candidate, nil
}

func (r *candidateRepository) FindByJob(jobID uuid.UUID) ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := r.db.
		Where("job_id = ?", jobID).
		Order("match_score DESC NULLS LAST, created_at ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	return candidates, nil
}

func (r *candidateRepository) FindByIDs(ids []uuid.UUID) ([]models.Candidate, error) {
	var candidates []models.Candidate
	if err := r.db.Where("id IN ?", ids).Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	return candidates, nil
}

func (r *candidateRepository) UpdateStatus(id uuid.UUID, status models.CandidateStatus) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == models.StatusQueued {
		updates["error_message"] = nil
	}
	return r.update(id, updates, "status")
}

func (r *candidateRepository) UpdateResult(id uuid.UUID, data *CandidateUpdateData) error {
	updates := map[string]interface{}{
		"status":            models.StatusCompleted,
		"name":              data.Name,
		"email":             data.Email,
		"phone":             data.Phone,
		"links":             jsonColumn(data.Links),
		"skills":            jsonColumn(data.Skills),
		"extraction_method": data.ExtractionMethod,
		"match_score":       data.MatchScore,
		"decision":          data.Decision,
		"missing_skills":    jsonColumn(data.MissingSkills),
		"error_message":     nil,
		"updated_at":        time.Now(),
	}
	if data.Category != nil {
		updates["category"] = data.Category.Category
		updates["category_score"] = data.Category.Confidence
		updates["category_reason"] = data.Category.Reasoning
	}
	return r.update(id, updates, "result")
}

func (r *candidateRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
		"updated_at":    time.Now(),
	}, "error")
}

func (r *candidateRepository) FindPendingJobs(limit int) ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find pending candidates: %w", err)
	}
	return candidates, nil
}

func (r *candidateRepository) update(id uuid.UUID, updates map[string]interface{}, what string) error {
	result := r.db.Model(&models.Candidate{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", what, result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}

	return nil
}
