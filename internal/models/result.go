package models

type CreateJobRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	MandatorySkills SkillList `json:"mandatory_skills"`
	PreferredSkills SkillList `json:"preferred_skills"`
}

type ScoreRequest struct {
	CandidateSkills SkillList `json:"candidate_skills"`
	MandatorySkills SkillList `json:"mandatory_skills"`
	PreferredSkills SkillList `json:"preferred_skills"`
}

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Status       string `json:"status"`
}

type ExtractResponse struct {
	Method    string             `json:"method"`
	Candidate ExtractedCandidate `json:"candidate"`
}

type ResultResponse struct {
	ID           string         `json:"id"`
	JobID        string         `json:"job_id"`
	Status       string         `json:"status"`
	Result       *ScreeningData `json:"result,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

type ScreeningData struct {
	Candidate        ExtractedCandidate `json:"candidate"`
	ExtractionMethod string             `json:"extraction_method"`
	Score            float64            `json:"score"`
	Decision         Decision           `json:"decision"`
	MissingSkills    []string           `json:"missing_skills"`
	Category         *CVCategory        `json:"category,omitempty"`
}

type CategorizeRequest struct {
	CVText string `json:"cv_text"`
}

type SimilarCandidate struct {
	CandidateID string  `json:"candidate_id"`
	Name        string  `json:"name,omitempty"`
	Score       float32 `json:"score"`
	Excerpt     string  `json:"excerpt"`
}
