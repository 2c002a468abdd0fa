package models

// UnknownCandidateName is used when no plausible name line is found.
const UnknownCandidateName = "Unknown Candidate"

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

type ExtractionMethod string

const (
	MethodTextLayer ExtractionMethod = "text_layer"
	MethodVision    ExtractionMethod = "vision"
)

// ExtractedCandidate holds the fields pulled out of a single CV.
type ExtractedCandidate struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Phone  string   `json:"phone"`
	Links  []string `json:"links"`
	Skills []string `json:"skills"`
}

// StructuredResult is the payload returned by the vision model.
type StructuredResult struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Phone  string   `json:"phone"`
	Links  []string `json:"links"`
	Skills []string `json:"skills"`
}

// JobCategories are the job families a CV can be filed under.
var JobCategories = []string{
	"HR", "Designer", "Information Technology", "Teacher", "Advocate",
	"Business Development", "Healthcare", "Fitness", "Agriculture", "BPO",
	"Sales", "Consultant", "Digital Media", "Automobile", "Chef",
	"Finance", "Apparel", "Engineering", "Accountant", "Construction",
	"Public Relations", "Banking", "Arts", "Aviation",
}

// CVCategory is the job family a model assigned to a CV.
type CVCategory struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

type JobRequirements struct {
	MandatorySkills []string `json:"mandatory_skills"`
	PreferredSkills []string `json:"preferred_skills"`
}

type MatchResult struct {
	Score            float64  `json:"score"`
	Decision         Decision `json:"decision"`
	HasAllMandatory  bool     `json:"has_all_mandatory"`
	MatchedMandatory []string `json:"matched_mandatory"`
	MissingMandatory []string `json:"missing_mandatory"`
	MatchedPreferred []string `json:"matched_preferred"`
}
