package extraction

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/cv-builder/internal/types"
)

const months = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Sept|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

var (
	dateRangeRe = regexp.MustCompile(`(?i)(` + months + `\s*\d{4}|\d{4})\s*[-–—]\s*(?:Present|` + months + `\s*\d{4}|\d{4})`)
	yearRe      = regexp.MustCompile(`\b\d{4}\b`)

	emailRe    = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)
	phoneRe    = regexp.MustCompile(`\+?\d[\d\-\s()]{6,}\d`)
	githubRe   = regexp.MustCompile(`(?i)github\.com/[A-Za-z0-9\-_]+`)
	linkedinRe = regexp.MustCompile(`(?i)linkedin\.com/in/[A-Za-z0-9\-_]+`)
	titleHint  = regexp.MustCompile(`(?i)\b(?:developer|engineer|software|manager|analyst|consultant)\b`)

	cidRe         = regexp.MustCompile(`\(cid:\d+\)`)
	repeatBullets = regexp.MustCompile(`•\s*•+`)
	bulletRe      = regexp.MustCompile(`\s*•\s*`)
	manyNewlines  = regexp.MustCompile(`\n{3,}`)
	mailtoRe      = regexp.MustCompile(`(?i)mailto:`)
	blankLinesRe  = regexp.MustCompile(`\n{2,}`)
	roleSplitRe   = regexp.MustCompile(`\s[–—-]\s`)
	listSplitRe   = regexp.MustCompile(`[,|;•·]`)
	softSplitRe   = regexp.MustCompile(`[,\n|;•·]`)
	urlRe         = regexp.MustCompile(`http\S+|mailto:\S+`)

	schoolRe     = regexp.MustCompile(`(?i)\b(?:University|College|Institute|School|Academy|Technical)\b`)
	degreeRe     = regexp.MustCompile(`(?i)\b(?:Degree|BSc|MSc|PhD|Bachelor|Master|Certificate|Diploma|KCSE)\b`)
	educationHit = regexp.MustCompile(`(?i)\b(?:university|college|institute|degree|certificate|bsc|msc|diploma|kcse|school)\b`)
	softHeading  = regexp.MustCompile(`(?i)soft skills?|personal skills|core skills|core competencies`)
	softKeywords = regexp.MustCompile(`(?i)\b(?:Communication|Adaptability|Leadership|Problem[- ]Solving|Teamwork|Time Management|Creativity|Attention to detail|Resilient|Innovative)\b`)
)

// headingKeys are the section headings recognised on a line of their own.
var headingKeys = []string{
	"work experience", "technical skills", "profile", "summary", "experience", "employment",
	"education", "skills", "technical", "languages", "references", "hobbies",
	"certifications", "certificates", "contact", "personal", "projects",
}

var headingRe = func() *regexp.Regexp {
	quoted := make([]string, len(headingKeys))
	for i, h := range headingKeys {
		quoted[i] = regexp.QuoteMeta(h)
	}
	return regexp.MustCompile(`(?i)^\s*(` + strings.Join(quoted, "|") + `)\s*[:\-]?\s*$`)
}()

// canonicalSection folds heading synonyms onto one section name.
func canonicalSection(heading string) string {
	switch h := strings.ToLower(heading); h {
	case "employment", "work experience":
		return "experience"
	case "technical skills", "technical":
		return "skills"
	default:
		return h
	}
}

// CleanText normalises extracted document text: PDF glyph placeholders become
// bullets, bullets start their own line, line endings are unified and control
// characters are removed.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = cidRe.ReplaceAllString(text, "•")
	text = repeatBullets.ReplaceAllString(text, "•")
	text = bulletRe.ReplaceAllString(text, "\n• ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	text = mailtoRe.ReplaceAllString(text, "")
	text = strings.Map(func(r rune) rune {
		if r < '\t' || r == '\v' || r == '\f' {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}

// SplitSections groups lines under the most recent recognised heading. Text before
// the first heading lands in "body".
func SplitSections(text string) map[string]string {
	sections := map[string]*strings.Builder{"body": {}}
	current := "body"

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			sections[current].WriteString("\n")
			continue
		}
		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			current = canonicalSection(m[1])
			if sections[current] == nil {
				sections[current] = &strings.Builder{}
			}
			continue
		}
		sections[current].WriteString(line)
		sections[current].WriteString("\n")
	}

	out := make(map[string]string, len(sections))
	for k, sb := range sections {
		if v := strings.TrimSpace(sb.String()); v != "" {
			out[k] = v
		}
	}
	return out
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

func splitBlocks(text string) []string {
	var out []string
	for _, b := range blankLinesRe.Split(text, -1) {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// ContactFields guesses the personal header: name from the first line, title from
// the second when it is short or names a job, the rest by pattern.
func ContactFields(text string) types.Personal {
	p := types.Personal{
		Email:    emailRe.FindString(text),
		Phone:    strings.TrimSpace(phoneRe.FindString(text)),
		Github:   githubRe.FindString(text),
		Linkedin: linkedinRe.FindString(text),
	}

	lines := nonEmptyLines(text)
	if len(lines) > 0 {
		p.Name = lines[0]
	}
	if len(lines) > 1 {
		candidate := lines[1]
		if headingRe.MatchString(candidate) {
			return p
		}
		if len(strings.Fields(candidate)) <= 5 || titleHint.MatchString(candidate) {
			p.Title = candidate
		}
	}
	return p
}

func findYears(s string) string {
	if m := dateRangeRe.FindString(s); m != "" {
		return m
	}
	return yearRe.FindString(s)
}

func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// parseExperienceBlock reads one blank-line separated job block.
func parseExperienceBlock(block string) types.Experience {
	var exp types.Experience
	var bullets, lines []string
	for _, ln := range nonEmptyLines(block) {
		if strings.HasPrefix(ln, "•") {
			bullets = append(bullets, strings.TrimSpace(strings.TrimPrefix(ln, "•")))
			continue
		}
		lines = append(lines, ln)
	}
	description := strings.Join(bullets, " ")
	appendDesc := func(parts []string) {
		if len(parts) == 0 {
			return
		}
		description = strings.TrimSpace(description + " " + strings.Join(parts, " "))
	}

	if len(lines) == 0 {
		exp.Description = description
		return exp
	}

	// "Role – Company" on the first line
	if parts := roleSplitRe.Split(lines[0], 2); len(parts) == 2 {
		exp.Role = strings.TrimSpace(parts[0])
		exp.Company = strings.TrimSpace(parts[1])
		rest := lines[1:]
		for i, ln := range rest[:min(len(rest), 2)] {
			if y := findYears(ln); y != "" {
				exp.Years = y
				rest = append(rest[:i:i], rest[i+1:]...)
				break
			}
		}
		appendDesc(rest)
		exp.Description = description
		return exp
	}

	// a dated line, with role/company on the line before it
	for i, ln := range lines {
		y := findYears(ln)
		if y == "" || i == 0 {
			continue
		}
		exp.Years = y
		prev := lines[i-1]
		if parts := roleSplitRe.Split(prev, 2); len(parts) == 2 {
			exp.Role, exp.Company = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		} else if isUpper(prev) || strings.Contains(prev, ",") {
			exp.Company = prev
			if lines[0] != prev {
				exp.Role = lines[0]
			}
		} else {
			exp.Role = prev
		}
		appendDesc(lines[i+1:])
		exp.Description = description
		return exp
	}

	exp.Role = lines[0]
	if len(lines) > 1 {
		exp.Company = lines[1]
	}
	if len(lines) > 2 {
		appendDesc(lines[2:])
	}
	if exp.Years == "" {
		exp.Years = findYears(block)
	}
	exp.Description = description
	return exp
}

// ParseExperience splits an experience section into job entries.
func ParseExperience(text string) []types.Experience {
	out := []types.Experience{}
	for _, b := range splitBlocks(text) {
		exp := parseExperienceBlock(b)
		if exp.Role != "" || exp.Company != "" || exp.Description != "" {
			out = append(out, exp)
		}
	}
	return out
}

// ParseEducation splits an education section into degree entries.
func ParseEducation(text string) []types.Education {
	out := []types.Education{}
	for _, b := range splitBlocks(text) {
		lines := nonEmptyLines(b)
		edu := types.Education{Years: findYears(b)}

		for _, ln := range lines {
			if degreeRe.MatchString(ln) {
				edu.Degree = ln
				break
			}
		}
		school := ""
		for _, ln := range lines {
			if schoolRe.MatchString(ln) && ln != edu.Degree {
				school = ln
				break
			}
		}
		if school == "" {
			switch {
			case len(lines) >= 2:
				school = lines[1]
			case len(lines) == 1 && edu.Degree == "":
				school = lines[0]
			}
		}
		edu.School = school
		out = append(out, edu)
	}
	return out
}

// ParseSkills splits a skills section on commas, pipes, semicolons and bullets,
// dropping links and case-insensitive duplicates.
func ParseSkills(text string) []string {
	out := []string{}
	if text == "" {
		return out
	}
	text = strings.NewReplacer("\r\n", ", ", "\n", ", ", "\r", ", ").Replace(text)

	seen := map[string]bool{}
	for _, part := range listSplitRe.Split(text, -1) {
		part = strings.TrimSpace(urlRe.ReplaceAllString(part, ""))
		if len([]rune(part)) <= 1 {
			continue
		}
		key := strings.ToLower(part)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, part)
	}
	return out
}

// ParseLanguages returns at most ten languages from a languages section.
func ParseLanguages(text string) []string {
	out := []string{}
	text = strings.ReplaceAll(text, "\n", ", ")
	for _, part := range listSplitRe.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
		if len(out) == 10 {
			break
		}
	}
	return out
}

// ParseReferences reads one reference per block: the first line is the name,
// phone and email are found by pattern.
func ParseReferences(text string) []types.Reference {
	out := []types.Reference{}
	for _, b := range splitBlocks(text) {
		lines := nonEmptyLines(b)
		if len(lines) == 0 {
			continue
		}
		ref := types.Reference{
			Name:  lines[0],
			Phone: strings.TrimSpace(phoneRe.FindString(b)),
			Email: emailRe.FindString(b),
		}
		if len(lines) > 1 && lines[1] != ref.Phone && lines[1] != ref.Email {
			ref.Position = lines[1]
		}
		out = append(out, ref)
	}
	return out
}

// SoftSkills looks for a soft-skills heading and lists what follows it; without one
// it falls back to a keyword scan of the whole text.
func SoftSkills(text string) []string {
	out := []string{}
	if loc := softHeading.FindStringIndex(text); loc != nil {
		window := text[loc[1]:min(len(text), loc[0]+400)]
		for _, s := range softSplitRe.Split(window, -1) {
			s = strings.Trim(strings.TrimSpace(s), ":-")
			s = strings.TrimSpace(s)
			if s == "" || len(s) >= 40 {
				continue
			}
			out = append(out, s)
			if len(out) == 20 {
				break
			}
		}
		return out
	}

	seen := map[string]bool{}
	for _, m := range softKeywords.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// reclassify moves blocks that look like education out of the body and
// experience sections.
func reclassify(sections map[string]string) {
	for _, src := range []string{"body", "experience"} {
		content := sections[src]
		if content == "" {
			continue
		}
		var kept []string
		for _, b := range splitBlocks(content) {
			if educationHit.MatchString(b) {
				sections["education"] = strings.TrimSpace(sections["education"] + "\n\n" + b)
				continue
			}
			kept = append(kept, b)
		}
		sections[src] = strings.Join(kept, "\n\n")
	}
}

// FromText runs the heuristics over raw document text. The result is best-effort
// and may be nearly empty.
func FromText(raw string) types.ResumeData {
	text := CleanText(raw)
	d := types.NewResumeData()
	if text == "" {
		return d
	}

	d.Personal = ContactFields(text)
	sections := SplitSections(text)
	reclassify(sections)

	d.Experience = ParseExperience(sections["experience"])
	d.Education = ParseEducation(sections["education"])
	d.Skills = ParseSkills(sections["skills"])
	d.SoftSkills = SoftSkills(text)
	d.Languages = ParseLanguages(sections["languages"])
	d.References = ParseReferences(sections["references"])
	return d
}
