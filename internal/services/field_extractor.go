package services

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"alfredoptarigan/cv-screener/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Ordered from most to least specific. Separators never include newlines.
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,3}[ .-]?\(?\d{1,4}\)?(?:[ .-]?\d{2,5}){1,4}`),
		regexp.MustCompile(`\(\d{2,4}\)[ .-]?\d{3,4}[ .-]?\d{3,4}`),
		regexp.MustCompile(`\b\d{3}[ .-]\d{3}[ .-]\d{4}\b`),
		regexp.MustCompile(`\b\d{8,15}\b`),
	}

	urlPattern         = regexp.MustCompile(`https?://[^\s<>"'(){}\[\]]+`)
	bareProfilePattern = regexp.MustCompile(`(?i)(?:^|[^\w/.@])((?:www\.)?(?:linkedin\.com/in|github\.com)/[A-Za-z0-9_.\-/]+)`)

	placeholderEmailDomains = []string{
		"example.com", "example.org", "example.net", "test.com",
		"domain.com", "email.com", "yourdomain.com", "mail.example",
	}

	professionalHosts = []string{
		"linkedin.com", "github.com", "gitlab.com", "bitbucket.org", "medium.com",
		"behance.net", "dribbble.com", "stackoverflow.com", "kaggle.com", "dev.to",
	}

	nameBoilerplate = regexp.MustCompile(`(?i)\b(?:curriculum|vitae|resume|cv|profile|summary|objective|experience|education|skills|contact|address|references|projects|certifications|employment|history|personal|information|phone|email|mobile|tel)\b|r[eé]sum[eé]`)

	nameParticles = map[string]bool{
		"van": true, "von": true, "de": true, "da": true, "del": true, "der": true,
		"la": true, "le": true, "bin": true, "binti": true, "al": true, "di": true, "dos": true,
	}
)

type FieldExtractorOptions struct {
	NameScanLines int
}

// FieldExtractor pulls contact fields and skills out of plain CV text.
type FieldExtractor struct {
	skills        *SkillDictionary
	nameScanLines int
}

func NewFieldExtractor(skills *SkillDictionary, opts FieldExtractorOptions) *FieldExtractor {
	if skills == nil {
		skills = DefaultSkillDictionary()
	}
	if opts.NameScanLines <= 0 {
		opts.NameScanLines = 15
	}
	return &FieldExtractor{skills: skills, nameScanLines: opts.NameScanLines}
}

// Extract never fails: fields that cannot be found stay empty and the name
// falls back to models.UnknownCandidateName.
func (f *FieldExtractor) Extract(text string) models.ExtractedCandidate {
	text = strings.ToValidUTF8(text, " ")

	return models.ExtractedCandidate{
		Name:   f.ExtractName(text),
		Email:  ExtractEmail(text),
		Phone:  ExtractPhone(text),
		Links:  ExtractLinks(text),
		Skills: f.skills.ExtractSkills(text),
	}
}

// Normalize applies the text-path rules to a result produced elsewhere
// (the vision model), so both paths yield the same shape.
func (f *FieldExtractor) Normalize(r models.StructuredResult) models.ExtractedCandidate {
	out := models.ExtractedCandidate{
		Name:   models.UnknownCandidateName,
		Email:  ExtractEmail(r.Email),
		Phone:  ExtractPhone(r.Phone),
		Links:  ExtractLinks(strings.Join(r.Links, "\n")),
		Skills: CleanSkills(r.Skills),
	}

	if out.Phone == "" && countDigits(r.Phone) >= 7 {
		out.Phone = strings.TrimSpace(r.Phone)
	}
	if name := strings.Join(strings.Fields(r.Name), " "); name != "" && letterShare(name) >= 0.6 {
		out.Name = name
	}

	return out
}

// ExtractEmail returns the first address whose domain is not a placeholder.
func ExtractEmail(text string) string {
	for _, m := range emailPattern.FindAllString(text, -1) {
		domain := strings.ToLower(m[strings.LastIndex(m, "@")+1:])
		if isPlaceholderDomain(domain) {
			continue
		}
		return m
	}
	return ""
}

func isPlaceholderDomain(domain string) bool {
	for _, p := range placeholderEmailDomains {
		if domain == p || strings.HasSuffix(domain, "."+p) {
			return true
		}
	}
	return false
}

// ExtractPhone tries each pattern in order and returns the first match with at least seven digits.
func ExtractPhone(text string) string {
	for _, p := range phonePatterns {
		for _, m := range p.FindAllString(text, -1) {
			if countDigits(m) >= 7 {
				return strings.TrimSpace(m)
			}
		}
	}
	return ""
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// ExtractLinks collects URLs in document order. When any professional
// profile is present only those are kept.
func ExtractLinks(text string) []string {
	type hit struct {
		pos int
		url string
	}
	var hits []hit

	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		hits = append(hits, hit{pos: loc[0], url: text[loc[0]:loc[1]]})
	}
	for _, loc := range bareProfilePattern.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{pos: loc[2], url: "https://" + text[loc[2]:loc[3]]})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]bool)
	var all, professional []string
	for _, h := range hits {
		link := strings.TrimRight(h.url, ".,;:!?")
		key := strings.TrimSuffix(strings.ToLower(link), "/")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		all = append(all, link)
		if isProfessionalLink(link) {
			professional = append(professional, link)
		}
	}

	if len(professional) > 0 {
		return professional
	}
	if all == nil {
		return []string{}
	}
	return all
}

func isProfessionalLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	for _, h := range professionalHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return strings.HasSuffix(host, ".github.io") || strings.Contains(host, "portfolio")
}

// ExtractName scores the first lines of the document and returns the best
// name-shaped one.
func (f *FieldExtractor) ExtractName(text string) string {
	best, bestScore := "", 0
	idx := 0

	for _, raw := range strings.Split(text, "\n") {
		if idx >= f.nameScanLines {
			break
		}
		line := strings.Join(strings.Fields(raw), " ")
		if line == "" {
			continue
		}
		position := idx
		idx++

		if emailPattern.MatchString(line) || urlPattern.MatchString(line) ||
			bareProfilePattern.MatchString(line) || ExtractPhone(line) != "" ||
			nameBoilerplate.MatchString(line) {
			continue
		}

		if score := scoreNameLine(line, position); score > bestScore {
			best, bestScore = line, score
		}
	}

	if best == "" || letterShare(best) < 0.6 {
		return models.UnknownCandidateName
	}
	return best
}

func scoreNameLine(line string, position int) int {
	tokens := strings.Fields(line)
	score := 0

	switch {
	case len(tokens) >= 2 && len(tokens) <= 4 && allNameTokens(tokens):
		score += 20
	case len(tokens) < 2 || len(tokens) > 4:
		score -= 10
	}

	for _, t := range tokens {
		first := []rune(t)[0]
		if unicode.IsLower(first) && !nameParticles[t] {
			score -= 10
		}
	}

	for _, r := range line {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' && r != '.' {
			score -= 5
		}
	}

	if n := len([]rune(line)); n < 5 || n > 60 {
		score -= 15
	}

	if bonus := 10 - position; bonus > 0 {
		score += bonus
	}

	return score
}

func allNameTokens(tokens []string) bool {
	capitalized := 0
	for _, t := range tokens {
		if nameParticles[t] {
			continue
		}
		if !isCapitalizedWord(t) {
			return false
		}
		capitalized++
	}
	return capitalized >= 2
}

func isCapitalizedWord(t string) bool {
	for i, r := range t {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && r != '-' && r != '\'' && r != '.' {
			return false
		}
	}
	return t != ""
}

func letterShare(s string) float64 {
	var letters, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}
