// internal/blocks/parsers.go
package blocks

import (
	"strings"

	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/google/uuid"
)

// newID is swapped in tests that need stable identifiers.
var newID = uuid.NewString

// ParseLandscape reads the json-landscape block. Every item starts included.
func ParseLandscape(markdown string) (*models.TopicLandscape, bool) {
	raw, ok := Extract(markdown, TagLandscape)
	if !ok {
		return nil, false
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	out := &models.TopicLandscape{
		Trends:          []models.TrendItem{},
		Tools:           []models.ToolItem{},
		Resources:       []models.ResourceItem{},
		IndustryContext: str(obj, "industryContext"),
	}
	for _, t := range objects(obj["trends"]) {
		out.Trends = append(out.Trends, models.TrendItem{
			ID:          newID(),
			Name:        str(t, "name"),
			Description: str(t, "description"),
			Included:    true,
		})
	}
	for _, t := range objects(obj["tools"]) {
		out.Tools = append(out.Tools, models.ToolItem{
			ID:          newID(),
			Name:        str(t, "name"),
			Description: str(t, "description"),
			Category:    str(t, "category"),
			Included:    true,
		})
	}
	for _, r := range objects(obj["resources"]) {
		out.Resources = append(out.Resources, models.ResourceItem{
			ID:          newID(),
			Title:       str(r, "title"),
			Type:        strOr(r, "type", "resource"),
			Description: str(r, "description"),
			URL:         str(r, "url"),
			Included:    true,
		})
	}
	return out, true
}

// ParseSuggestedModules reads the json-modules block, either a bare array or
// an object with a "modules" array.
func ParseSuggestedModules(markdown string) ([]models.SuggestedModule, bool) {
	raw, ok := Extract(markdown, TagModules)
	if !ok {
		return nil, false
	}
	if obj, isObj := raw.(map[string]any); isObj {
		raw = obj["modules"]
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}

	out := make([]models.SuggestedModule, 0, len(list))
	for _, m := range objects(list) {
		out = append(out, models.SuggestedModule{
			ID:                newID(),
			Name:              str(m, "name"),
			Description:       str(m, "description"),
			EstimatedDuration: str(m, "estimatedDuration"),
		})
	}
	return out, true
}

// ParseAnalysis reads the json-analysis block. Gaps start as include and
// strengths as keep.
func ParseAnalysis(markdown string) (*models.AnalysisReport, bool) {
	raw, ok := Extract(markdown, TagAnalysis)
	if !ok {
		return nil, false
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	out := &models.AnalysisReport{
		CourseName:       str(obj, "courseName"),
		Format:           str(obj, "format"),
		Depth:            str(obj, "depth"),
		ContentInventory: []models.ContentInventoryItem{},
		Gaps:             []models.GapItem{},
		Strengths:        []models.StrengthItem{},
	}

	for _, item := range objects(obj["contentInventory"]) {
		out.ContentInventory = append(out.ContentInventory, models.ContentInventoryItem{
			ID:               newID(),
			ModuleName:       str(item, "moduleName"),
			TopicsCovered:    stringList(item["topicsCovered"]),
			EstimatedRecency: str(item, "estimatedRecency"),
			Status:           NormalizeContentStatus(str(item, "status")),
		})
	}
	for _, g := range objects(obj["gaps"]) {
		out.Gaps = append(out.Gaps, models.GapItem{
			ID:          newID(),
			Type:        NormalizeGapType(str(g, "type")),
			Description: str(g, "description"),
			Action:      models.GapInclude,
		})
	}
	for _, s := range objects(obj["strengths"]) {
		out.Strengths = append(out.Strengths, models.StrengthItem{
			ID:          newID(),
			Description: str(s, "description"),
			Action:      models.StrengthKeep,
		})
	}

	if n, isNum := obj["moduleCount"].(float64); isNum {
		out.ModuleCount = int(n)
	} else {
		out.ModuleCount = len(out.ContentInventory)
	}
	return out, true
}

// ParseWhatsNew reads the json-whatsnew block, either a bare array or an
// object with an "items" array. Items start unselected and collapsed.
func ParseWhatsNew(markdown string) ([]models.WhatsNewItem, bool) {
	raw, ok := Extract(markdown, TagWhatsNew)
	if !ok {
		return nil, false
	}
	if obj, isObj := raw.(map[string]any); isObj {
		raw = obj["items"]
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}

	out := make([]models.WhatsNewItem, 0, len(list))
	for _, it := range objects(list) {
		out = append(out, models.WhatsNewItem{
			ID:       newID(),
			Category: NormalizeWhatsNewCategory(str(it, "category")),
			Title:    str(it, "title"),
			Summary:  str(it, "summary"),
			Details:  str(it, "details"),
		})
	}
	return out, true
}

// ChangePayload is the body of a json-change block.
type ChangePayload struct {
	Title  string
	Before string
	After  string
}

func ParseChange(markdown string) (*ChangePayload, bool) {
	raw, ok := Extract(markdown, TagChange)
	if !ok {
		return nil, false
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	return &ChangePayload{
		Title:  str(obj, "title"),
		Before: str(obj, "before"),
		After:  str(obj, "after"),
	}, true
}

// ParsePrerequisites reads {"prerequisites":[...]} from a non-streaming reply.
func ParsePrerequisites(text string) ([]models.Prerequisite, bool) {
	obj, ok := ParseJSONObject(text)
	if !ok {
		return nil, false
	}
	out := []models.Prerequisite{}
	for _, p := range objects(obj["prerequisites"]) {
		out = append(out, models.Prerequisite{
			ID:          newID(),
			Name:        str(p, "name"),
			Description: str(p, "description"),
			Status:      NormalizePrerequisiteStatus(str(p, "status")),
		})
	}
	return out, true
}

// ParseConcepts reads {"concepts":[...]}.
func ParseConcepts(text string) ([]models.CoreConcept, bool) {
	obj, ok := ParseJSONObject(text)
	if !ok {
		return nil, false
	}
	out := []models.CoreConcept{}
	for _, c := range objects(obj["concepts"]) {
		out = append(out, models.CoreConcept{
			ID:          newID(),
			Name:        str(c, "name"),
			Description: str(c, "description"),
			Priority:    NormalizeConceptPriority(str(c, "priority")),
		})
	}
	return out, true
}

// ParseLessonPlan reads {"lessons":[...],"activities":[...]}. Lessons are
// numbered in reply order; everything starts enabled.
func ParseLessonPlan(text string) (*models.LessonPlan, bool) {
	obj, ok := ParseJSONObject(text)
	if !ok {
		return nil, false
	}
	plan := &models.LessonPlan{
		Lessons:    []models.LessonPlanItem{},
		Activities: []models.ActivityItem{},
	}
	for i, l := range objects(obj["lessons"]) {
		plan.Lessons = append(plan.Lessons, models.LessonPlanItem{
			ID:               newID(),
			Title:            str(l, "title"),
			Description:      str(l, "description"),
			TeachingApproach: str(l, "teachingApproach"),
			Order:            i + 1,
			Enabled:          true,
		})
	}
	for _, a := range objects(obj["activities"]) {
		plan.Activities = append(plan.Activities, models.ActivityItem{
			ID:          newID(),
			Title:       str(a, "title"),
			Description: str(a, "description"),
			Type:        str(a, "type"),
			Enabled:     true,
		})
	}
	return plan, true
}

// ParseProposals reads {"proposals":[...]}. High impact proposals start
// selected.
func ParseProposals(text string) ([]models.EnhancementProposal, bool) {
	obj, ok := ParseJSONObject(text)
	if !ok {
		return nil, false
	}
	out := []models.EnhancementProposal{}
	for _, p := range objects(obj["proposals"]) {
		impact := NormalizeImpact(str(p, "impact"))
		out = append(out, models.EnhancementProposal{
			ID:          newID(),
			Category:    NormalizeCategory(str(p, "category")),
			Title:       str(p, "title"),
			Description: str(p, "description"),
			Impact:      impact,
			Selected:    impact == models.ImpactHigh,
		})
	}
	return out, true
}

// DeepDive is the concept explanation returned by the deep-dive step.
type DeepDive struct {
	Explanation    string   `json:"explanation"`
	WhyItMatters   string   `json:"whyItMatters"`
	SubTopics      []string `json:"subTopics"`
	Misconceptions []string `json:"misconceptions"`
	TeachingTip    string   `json:"teachingTip"`
}

func ParseDeepDive(text string) (*DeepDive, bool) {
	obj, ok := ParseJSONObject(text)
	if !ok {
		return nil, false
	}
	return &DeepDive{
		Explanation:    str(obj, "explanation"),
		WhyItMatters:   str(obj, "whyItMatters"),
		SubTopics:      stringList(obj["subTopics"]),
		Misconceptions: stringList(obj["misconceptions"]),
		TeachingTip:    str(obj, "teachingTip"),
	}, true
}

// Enum normalizers. Unknown values fall back to the safest member.

func NormalizeContentStatus(s string) models.ContentStatus {
	switch v := models.ContentStatus(strings.ToLower(s)); v {
	case models.ContentCurrent, models.ContentNeedsUpdate, models.ContentOutdated:
		return v
	}
	return models.ContentNeedsUpdate
}

func NormalizeGapType(s string) models.GapType {
	switch v := models.GapType(strings.ToLower(s)); v {
	case models.GapMissing, models.GapOutdated, models.GapOpportunity:
		return v
	}
	return models.GapOpportunity
}

func NormalizePrerequisiteStatus(s string) models.PrerequisiteStatus {
	switch v := models.PrerequisiteStatus(strings.ToLower(s)); v {
	case models.PrereqInclude, models.PrereqRecap, models.PrereqSkip:
		return v
	}
	return models.PrereqInclude
}

func NormalizeConceptPriority(s string) models.ConceptPriority {
	switch v := models.ConceptPriority(strings.ToLower(s)); v {
	case models.PriorityEmphasize, models.PriorityNormal, models.PriorityOptional:
		return v
	}
	return models.PriorityNormal
}

func NormalizeImpact(s string) models.Impact {
	switch v := models.Impact(strings.ToLower(s)); v {
	case models.ImpactHigh, models.ImpactMedium, models.ImpactLow:
		return v
	}
	return models.ImpactMedium
}

func NormalizeCategory(s string) models.EnhancementCategory {
	switch v := models.EnhancementCategory(strings.ToLower(s)); v {
	case models.CategoryUpdateOutdated, models.CategoryAddModules, models.CategoryRefreshExamples,
		models.CategoryAddDelivery, models.CategoryEnhanceAssessments, models.CategoryAddInteractive:
		return v
	}
	return models.CategoryUpdateOutdated
}

func NormalizeWhatsNewCategory(s string) models.WhatsNewCategory {
	switch v := models.WhatsNewCategory(strings.ToLower(s)); v {
	case models.WhatsNewRecent, models.WhatsNewTrends, models.WhatsNewResources, models.WhatsNewPedagogy:
		return v
	}
	return models.WhatsNewRecent
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func strOr(m map[string]any, key, def string) string {
	if s := str(m, key); s != "" {
		return s
	}
	return def
}

// objects keeps the object elements of a JSON array and drops the rest.
func objects(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func stringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
