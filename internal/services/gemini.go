package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
)

const geminiServiceName = "gemini"

// VisionExtractor reads a document the way a person would look at it and
// returns the structured fields directly.
type VisionExtractor interface {
	ExtractDocument(ctx context.Context, doc Document) (*models.StructuredResult, error)
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Categorizer files a CV under one of models.JobCategories.
type Categorizer interface {
	CategorizeCV(ctx context.Context, text string) (*models.CVCategory, error)
}

type GeminiService interface {
	VisionExtractor
	Embedder
	Categorizer
}

// genaiModels is the subset of *genai.Models used here.
type genaiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type GeminiOptions struct {
	APIKey      string
	Model       string
	EmbedModel  string
	MinInterval time.Duration
}

type geminiService struct {
	models        genaiModels
	modelName     string
	embedModel    string
	throttle      *Throttle
	promptBuilder *PromptBuilder
	log           *zap.Logger
}

func NewGeminiService(ctx context.Context, opts GeminiOptions, log *zap.Logger) (GeminiService, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiService(client.Models, opts, log), nil
}

func newGeminiService(m genaiModels, opts GeminiOptions, log *zap.Logger) *geminiService {
	if opts.Model == "" {
		opts.Model = "gemini-2.5-flash"
	}
	if opts.EmbedModel == "" {
		opts.EmbedModel = "text-embedding-004"
	}

	return &geminiService{
		models:        m,
		modelName:     opts.Model,
		embedModel:    opts.EmbedModel,
		throttle:      NewThrottle(opts.MinInterval),
		promptBuilder: NewPromptBuilder(),
		log:           logger.WithFields(log, zap.String("ai_model", opts.Model)),
	}
}

// GenerateEmbedding implements Embedder.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	if err := g.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := g.models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, newExternalServiceError(geminiServiceName, "failed to generate embedding", err)
	}

	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, newExternalServiceError(geminiServiceName, "empty embedding result", nil)
	}

	return result.Embeddings[0].Values, nil
}

// ExtractDocument implements VisionExtractor. It makes exactly one call and
// fails closed on any error or schema violation.
func (g *geminiService) ExtractDocument(ctx context.Context, doc Document) (*models.StructuredResult, error) {
	mime, ok := visionMIMEType(doc)
	if !ok {
		return nil, fmt.Errorf("vision model cannot read %q: %w", doc.Filename, ErrUnsupportedType)
	}

	if err := g.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
		ResponseSchema:   structuredResultSchema(),
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mime, Data: doc.Data}},
			{Text: g.promptBuilder.BuildVisionExtractionPrompt()},
		},
	}}

	g.log.Debug("calling vision model", zap.String(logger.FieldFilename, doc.Filename), zap.Int("bytes", len(doc.Data)))

	resp, err := g.models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		g.log.Warn("vision model call failed", zap.String(logger.FieldFilename, doc.Filename), zap.Error(err))
		return nil, newVisionError("vision extraction failed", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, newVisionError("no text content in response", nil)
	}

	g.log.Debug("vision model responded", zap.String("response", logger.TruncateForLog(text, 300)))

	result, err := parseStructuredResult(text)
	if err != nil {
		return nil, newVisionError("response violates extraction schema", err)
	}

	return result, nil
}

// newVisionError marks a failed vision read as ErrExtractionFailed, which
// embedding and categorization failures are not.
func newVisionError(message string, err error) *ExternalServiceError {
	if err == nil {
		return newExternalServiceError(geminiServiceName, message, ErrExtractionFailed)
	}
	return newExternalServiceError(geminiServiceName, message, fmt.Errorf("%w: %w", ErrExtractionFailed, err))
}

// categorizeTextLimit caps the CV text sent for categorization, in runes.
const categorizeTextLimit = 3000

// CategorizeCV implements Categorizer. The model must answer with a known
// category and a confidence between 0 and 100.
func (g *geminiService) CategorizeCV(ctx context.Context, text string) (*models.CVCategory, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyCVText
	}
	if runes := []rune(text); len(runes) > categorizeTextLimit {
		text = string(runes[:categorizeTextLimit])
	}

	if err := g.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		MaxOutputTokens:   1024,
		SystemInstruction: genai.NewContentFromText(g.promptBuilder.BuildCategorizationPrompt(), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    categorySchema(),
	}

	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text("Categorize this CV:\n\n"+text), config)
	if err != nil {
		g.log.Warn("categorization call failed", zap.Error(err))
		return nil, newExternalServiceError(geminiServiceName, "categorization failed", err)
	}

	answer := responseText(resp)
	if answer == "" {
		return nil, newExternalServiceError(geminiServiceName, "no text content in response", nil)
	}

	g.log.Debug("categorization responded", zap.String("response", logger.TruncateForLog(answer, 300)))

	category, err := parseCategory(answer)
	if err != nil {
		return nil, newExternalServiceError(geminiServiceName, "response violates categorization schema", err)
	}

	return category, nil
}

func visionMIMEType(doc Document) (string, bool) {
	if kind := doc.Kind(); kind == MIMEPDF {
		return kind, true
	}
	switch mime := strings.ToLower(strings.TrimSpace(doc.MIMEType)); mime {
	case "image/png", "image/jpeg", "image/webp":
		return mime, true
	}
	return "", false
}

func structuredResultSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	list := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Description: desc, Items: &genai.Schema{Type: genai.TypeString}}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":   str("Full name of the candidate, empty if not present"),
			"email":  str("Email address, empty if not present"),
			"phone":  str("Phone number as written, empty if not present"),
			"links":  list("Profile or portfolio URLs"),
			"skills": list("Technical and soft skills, one per item"),
		},
		Required: []string{"name", "email", "phone", "links", "skills"},
	}
}

func categorySchema() *genai.Schema {
	minConfidence, maxConfidence := 0.0, 100.0
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"category": {
				Type:        genai.TypeString,
				Description: "The job category that best matches this CV",
				Enum:        models.JobCategories,
			},
			"confidence": {
				Type:        genai.TypeNumber,
				Description: "Confidence score for this categorization (0-100)",
				Minimum:     &minConfidence,
				Maximum:     &maxConfidence,
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "Brief explanation for why this category was chosen",
			},
		},
		Required: []string{"category", "confidence", "reasoning"},
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text
	}

	var parts []string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && strings.TrimSpace(part.Text) != "" {
				parts = append(parts, part.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

var errSchemaViolation = errors.New("schema violation")

// parseStructuredResult requires every schema key. Strings may be null;
// lists may be null or contain only strings.
func parseStructuredResult(text string) (*models.StructuredResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errSchemaViolation, err)
	}

	result := &models.StructuredResult{}
	for key, dst := range map[string]*string{"name": &result.Name, "email": &result.Email, "phone": &result.Phone} {
		value, ok := raw[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", errSchemaViolation, key)
		}
		var s *string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, fmt.Errorf("%w: %q must be a string", errSchemaViolation, key)
		}
		if s != nil {
			*dst = strings.TrimSpace(*s)
		}
	}

	for key, dst := range map[string]*[]string{"links": &result.Links, "skills": &result.Skills} {
		value, ok := raw[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", errSchemaViolation, key)
		}
		var items []string
		if err := json.Unmarshal(value, &items); err != nil {
			return nil, fmt.Errorf("%w: %q must be a list of strings", errSchemaViolation, key)
		}
		if items == nil {
			items = []string{}
		}
		*dst = items
	}

	return result, nil
}

// parseCategory maps the category onto its canonical spelling and rejects
// anything outside models.JobCategories.
func parseCategory(text string) (*models.CVCategory, error) {
	var raw struct {
		Category   *string  `json:"category"`
		Confidence *float64 `json:"confidence"`
		Reasoning  *string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errSchemaViolation, err)
	}
	if raw.Category == nil {
		return nil, fmt.Errorf("%w: missing \"category\"", errSchemaViolation)
	}
	if raw.Confidence == nil {
		return nil, fmt.Errorf("%w: missing \"confidence\"", errSchemaViolation)
	}
	if *raw.Confidence < 0 || *raw.Confidence > 100 {
		return nil, fmt.Errorf("%w: confidence %v out of range", errSchemaViolation, *raw.Confidence)
	}

	result := &models.CVCategory{Confidence: *raw.Confidence}
	for _, known := range models.JobCategories {
		if strings.EqualFold(known, strings.TrimSpace(*raw.Category)) {
			result.Category = known
			break
		}
	}
	if result.Category == "" {
		return nil, fmt.Errorf("%w: unknown category %q", errSchemaViolation, *raw.Category)
	}
	if raw.Reasoning != nil {
		result.Reasoning = strings.TrimSpace(*raw.Reasoning)
	}

	return result, nil
}

// extractJSON tries to extract JSON from text that might contain markdown or other formatting
func extractJSON(text string) string {
	// Remove markdown code blocks
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	endObj := strings.LastIndex(text, "}")
	if startObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	}

	return strings.TrimSpace(text)
}
