package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/cv-screener/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildVisionExtractionPrompt is sent together with the document bytes.
func (pb *PromptBuilder) BuildVisionExtractionPrompt() string {
	return `You are reading a candidate's CV. The document may be scanned or contain no text layer, so read it visually.

Extract exactly these fields:
- name: the candidate's full name as printed at the top of the CV
- email: the candidate's email address
- phone: the candidate's phone number, exactly as written
- links: LinkedIn, GitHub, portfolio or other professional URLs
- skills: every technical skill (languages, frameworks, databases, cloud and DevOps tools) and soft skill mentioned, one skill per item, without descriptions

Rules:
- Use an empty string for any field that is not present. Never invent values.
- Do not include section headers, job titles or company names as skills.
- Return only the JSON object.`
}

// BuildCategorizationPrompt is the system instruction for CategorizeCV.
func (pb *PromptBuilder) BuildCategorizationPrompt() string {
	return fmt.Sprintf(`You are an expert CV categorization system. Analyze the CV and classify it into ONE of these %d job categories:
%s

Consider:
- Job titles and roles mentioned
- Skills and expertise
- Work experience domain
- Education background
- Industry keywords

Provide a confidence score (0-100) and brief reasoning for your classification.`, len(models.JobCategories), strings.Join(models.JobCategories, ", "))
}

// BuildJobQuery renders a job as the text embedded for similar-candidate search.
func (pb *PromptBuilder) BuildJobQuery(job *models.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job title: %s\n", job.Title)
	if desc := strings.TrimSpace(job.Description); desc != "" {
		fmt.Fprintf(&b, "Description: %s\n", desc)
	}
	if len(job.MandatorySkills) > 0 {
		fmt.Fprintf(&b, "Required skills: %s\n", strings.Join(job.MandatorySkills, ", "))
	}
	if len(job.PreferredSkills) > 0 {
		fmt.Fprintf(&b, "Preferred skills: %s\n", strings.Join(job.PreferredSkills, ", "))
	}
	return b.String()
}

// FormatCandidateDocument prefixes the CV text with the extracted profile
// before it is chunked for the index.
func FormatCandidateDocument(c models.ExtractedCandidate, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate: %s\n", c.Name)
	if len(c.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(c.Skills, ", "))
	}
	b.WriteString("\n")
	b.WriteString(text)
	return b.String()
}
