package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocessTextOrdersSectionsByPriority(t *testing.T) {
	text := "Skills\nGo, Kubernetes\nExperience\nAcme Corp 2019-2023\nSummary\nBackend engineer\n"

	got := PreprocessText(text)

	assert.Equal(t, "Backend engineer Go, Kubernetes Acme Corp 2019-2023", got)
}

func TestPreprocessTextWithoutHeaders(t *testing.T) {
	text := "  John Doe\n\n  Go   developer\tBerlin  \n"

	assert.Equal(t, "John Doe Go developer Berlin", PreprocessText(text))
	assert.Equal(t, map[Section]string{SectionFullText: "John Doe\n\n  Go   developer\tBerlin"}, DetectSections(text))
}

func TestPreprocessTextEmpty(t *testing.T) {
	assert.Empty(t, PreprocessText(""))
	assert.Empty(t, PreprocessText(" \n\t "))
}

func TestDetectSections(t *testing.T) {
	text := "Jane Roe\nCareer Summary\nBuilds APIs\n\nTECHNICAL SKILLS:\nGo\nPython\nProjects\nQueue library\n"

	sections := DetectSections(text)

	assert.Equal(t, map[Section]string{
		SectionSummary:  "Builds APIs",
		SectionSkills:   "Go\nPython",
		SectionProjects: "Queue library",
	}, sections)
}

func TestDetectSectionsFirstRuleWinsPerLine(t *testing.T) {
	sections := DetectSections("Professional Experience Summary\nten years\nProject Experience\nmigration")

	assert.Equal(t, "ten years", sections[SectionSummary])
	assert.Equal(t, "migration", sections[SectionExperience])
	assert.NotContains(t, sections, SectionProjects)
}

func TestDetectSectionsWordBoundaries(t *testing.T) {
	sections := DetectSections("Toolsmith by trade\nProfiles of work\nSkill\nwelding")

	assert.Equal(t, map[Section]string{SectionSkills: "welding"}, sections)
}

func TestDetectSectionsRepeatedSectionKeepsLast(t *testing.T) {
	sections := DetectSections("Skills\nfirst\nExperience\nacme\nSkills\nsecond")

	assert.Equal(t, "second", sections[SectionSkills])
	assert.Equal(t, "acme", sections[SectionExperience])
}

func TestPreprocessTextHeaderOnly(t *testing.T) {
	assert.Empty(t, PreprocessText("Summary\n"))
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "symbols", in: "C++ & Go — 5 yrs (remote) / e-mail: a@b.com", want: "C  Go  5 yrs (remote) / e-mail: ab.com"},
		{name: "whitespace", in: "  a\n\nb\t c ", want: "a b c"},
		{name: "unicode letters", in: "Résumé: Zürich, 2024.", want: "Résumé: Zürich, 2024."},
		{name: "underscore kept", in: "snake_case #tag", want: "snake_case tag"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanText(tc.in))
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("\ta \n b  c\n"))
}
