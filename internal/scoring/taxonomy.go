package scoring

import (
	"strings"

	"github.com/spigell/meetmatch/internal/profile"
)

// keywordGroup labels a text when any of its keywords occurs as a substring.
type keywordGroup struct {
	label    string
	keywords []string
}

const labelGeneral = "general"

var domainGroups = []keywordGroup{
	{label: "technology", keywords: []string{"tech", "software", "engineer"}},
	{label: "ai/ml", keywords: []string{"ai", "machine learning", "data"}},
	{label: "business", keywords: []string{"sales", "marketing", "business"}},
	{label: "finance", keywords: []string{"finance", "accounting", "investment"}},
	{label: "healthcare", keywords: []string{"health", "medical", "bio"}},
	{label: "education", keywords: []string{"education", "teaching", "academic"}},
}

var industryGroups = []keywordGroup{
	{label: "technology", keywords: []string{"tech", "software", "saas"}},
	{label: "finance", keywords: []string{"finance", "bank", "investment"}},
	{label: "healthcare", keywords: []string{"health", "medical", "pharma"}},
	{label: "retail", keywords: []string{"retail", "ecommerce", "consumer"}},
	{label: "media", keywords: []string{"media", "advertising", "marketing"}},
}

var complementaryRoles = [][2]string{
	{"founder", "engineer"},
	{"ceo", "cto"},
	{"sales", "technical"},
	{"student", "senior"},
	{"junior", "senior"},
	{"recruiter", "candidate"},
}

var complementaryGoals = [][2]string{
	{"find clients", "generate leads"},
	{"mentorship", "learn"},
	{"hiring", "job"},
	{"partnership", "collaboration"},
}

var trendingSkills = []string{"ai", "machine learning", "blockchain", "cloud", "devops", "react", "python"}

// seniorityTiers are checked top to bottom; the first hit wins.
var seniorityTiers = []struct {
	level    int
	keywords []string
}{
	{level: 4, keywords: []string{"ceo", "founder", "president"}},
	{level: 3, keywords: []string{"vp", "director", "head"}},
	{level: 2, keywords: []string{"senior", "lead", "manager"}},
	{level: 0, keywords: []string{"junior", "associate", "intern"}},
}

const defaultSeniority = 1

// CareerStage buckets the seniority tier.
type CareerStage string

const (
	StageEarly  CareerStage = "early"
	StageMid    CareerStage = "mid"
	StageSenior CareerStage = "senior"
)

var stageAlignment = map[[2]CareerStage]float64{
	{StageEarly, StageSenior}:  0.9,
	{StageEarly, StageMid}:     0.7,
	{StageMid, StageSenior}:    0.8,
	{StageEarly, StageEarly}:   0.6,
	{StageMid, StageMid}:       0.7,
	{StageSenior, StageSenior}: 0.5,
}

const defaultStageAlignment = 0.5

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func classify(text string, groups []keywordGroup) []string {
	var labels []string
	for _, g := range groups {
		if containsAny(text, g.keywords) {
			labels = append(labels, g.label)
		}
	}
	if len(labels) == 0 {
		return []string{labelGeneral}
	}
	return labels
}

// Domains returns the professional domains of a profile, derived from its
// title, company, skills and interests. Never empty.
func Domains(p *profile.Profile) []string {
	text := strings.ToLower(strings.Join([]string{
		p.Title,
		p.Company,
		strings.Join(p.Skills, " "),
		strings.Join(p.Interests, " "),
	}, " "))
	return classify(text, domainGroups)
}

// Industries returns the industries of a profile, derived from its company,
// title and experience. Never empty.
func Industries(p *profile.Profile) []string {
	text := strings.ToLower(strings.Join([]string{
		p.Company,
		p.Title,
		strings.Join(p.Experience, " "),
	}, " "))
	return classify(text, industryGroups)
}

// Seniority estimates a tier from 0 (junior) to 4 (executive) from the title.
func Seniority(p *profile.Profile) int {
	title := strings.ToLower(p.Title)
	for _, tier := range seniorityTiers {
		if containsAny(title, tier.keywords) {
			return tier.level
		}
	}
	return defaultSeniority
}

func Stage(p *profile.Profile) CareerStage {
	switch level := Seniority(p); {
	case level >= 3:
		return StageSenior
	case level >= 1:
		return StageMid
	default:
		return StageEarly
	}
}

// trendingCount counts skills that mention at least one trending keyword.
func trendingCount(p *profile.Profile) int {
	var n int
	for _, skill := range p.Skills {
		if containsAny(strings.ToLower(skill), trendingSkills) {
			n++
		}
	}
	return n
}
