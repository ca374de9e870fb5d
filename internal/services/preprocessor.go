package services

import (
	"regexp"
	"sort"
	"strings"
)

type Section string

const (
	SectionSummary    Section = "summary"
	SectionSkills     Section = "skills"
	SectionExperience Section = "experience"
	SectionProjects   Section = "projects"
	SectionFullText   Section = "full_text"
)

// SectionPriority is the order in which detected sections are assembled.
var SectionPriority = []Section{SectionSummary, SectionSkills, SectionExperience, SectionProjects}

type sectionRule struct {
	section  Section
	patterns []*regexp.Regexp
}

// sectionRules is evaluated top to bottom; the first section with a matching
// pattern claims the line.
var sectionRules = []sectionRule{
	newSectionRule(SectionSummary, "summary", "profile", "career summary"),
	newSectionRule(SectionSkills, "skills?", "technical skills", "key skills", "tools", "tech stack"),
	newSectionRule(SectionExperience, "experience", "work experience", "professional experience"),
	newSectionRule(SectionProjects, "projects", "key projects", "project experience"),
}

func newSectionRule(section Section, patterns ...string) sectionRule {
	rule := sectionRule{section: section}
	for _, p := range patterns {
		rule.patterns = append(rule.patterns, regexp.MustCompile(`\b`+p+`\b`))
	}
	return rule
}

func (r sectionRule) matches(line string) bool {
	for _, p := range r.patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}_\s.,\-:/()]`)
)

type sectionHeader struct {
	line    int
	section Section
}

// DetectSections locates header lines and maps each detected section to the
// trimmed text up to the next header. A section seen twice keeps its last
// occurrence. Without any header the whole text lands under SectionFullText.
func DetectSections(text string) map[Section]string {
	lines := strings.Split(text, "\n")

	var headers []sectionHeader
	for i, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		for _, rule := range sectionRules {
			if rule.matches(lower) {
				headers = append(headers, sectionHeader{line: i, section: rule.section})
				break
			}
		}
	}

	sort.SliceStable(headers, func(i, j int) bool { return headers[i].line < headers[j].line })

	sections := make(map[Section]string)
	for idx, h := range headers {
		end := len(lines)
		if idx+1 < len(headers) {
			end = headers[idx+1].line
		}
		sections[h.section] = strings.TrimSpace(strings.Join(lines[h.line+1:end], "\n"))
	}

	if len(sections) == 0 {
		sections[SectionFullText] = strings.TrimSpace(text)
	}

	return sections
}

// PreprocessText assembles the prioritized sections of a resume into a single
// whitespace-collapsed string.
func PreprocessText(text string) string {
	sections := DetectSections(text)

	var prioritized []string
	for _, section := range SectionPriority {
		if content, ok := sections[section]; ok {
			prioritized = append(prioritized, content)
		}
	}

	if len(prioritized) == 0 {
		if full, ok := sections[SectionFullText]; ok {
			prioritized = append(prioritized, full)
		}
	}

	return CollapseWhitespace(strings.Join(prioritized, " "))
}

func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// CleanText is the last pass before embedding: whitespace is collapsed and
// everything outside letters, digits, whitespace and . , - : / ( ) is dropped.
func CleanText(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = disallowedChars.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
