// internal/models/enhance.go
package models

import apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"

// UploadedFile holds extracted text from an uploaded course file. It is
// never persisted.
type UploadedFile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

type ContentStatus string

const (
	ContentCurrent     ContentStatus = "current"
	ContentNeedsUpdate ContentStatus = "needs-update"
	ContentOutdated    ContentStatus = "outdated"
)

type ContentInventoryItem struct {
	ID               string        `json:"id"`
	ModuleName       string        `json:"moduleName"`
	TopicsCovered    []string      `json:"topicsCovered"`
	EstimatedRecency string        `json:"estimatedRecency"`
	Status           ContentStatus `json:"status"`
}

type GapType string

const (
	GapMissing     GapType = "missing"
	GapOutdated    GapType = "outdated"
	GapOpportunity GapType = "opportunity"
)

type GapAction string

const (
	GapInclude GapAction = "include"
	GapDefer   GapAction = "defer"
	GapSkip    GapAction = "skip"
)

type GapItem struct {
	ID          string    `json:"id"`
	Type        GapType   `json:"type"`
	Description string    `json:"description"`
	Action      GapAction `json:"action"`
}

type StrengthAction string

const (
	StrengthKeep        StrengthAction = "keep"
	StrengthDeEmphasize StrengthAction = "de-emphasize"
)

type StrengthItem struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Action      StrengthAction `json:"action"`
}

type AnalysisReport struct {
	CourseName       string                 `json:"courseName"`
	ModuleCount      int                    `json:"moduleCount"`
	Format           string                 `json:"format"`
	Depth            string                 `json:"depth"`
	ContentInventory []ContentInventoryItem `json:"contentInventory"`
	Gaps             []GapItem              `json:"gaps"`
	Strengths        []StrengthItem         `json:"strengths"`
}

type WhatsNewCategory string

const (
	WhatsNewRecent    WhatsNewCategory = "recent-developments"
	WhatsNewTrends    WhatsNewCategory = "industry-trends"
	WhatsNewResources WhatsNewCategory = "updated-resources"
	WhatsNewPedagogy  WhatsNewCategory = "pedagogical-updates"
)

type WhatsNewItem struct {
	ID       string           `json:"id"`
	Category WhatsNewCategory `json:"category"`
	Title    string           `json:"title"`
	Summary  string           `json:"summary"`
	Details  string           `json:"details"`
	Selected bool             `json:"selected"`
	Expanded bool             `json:"expanded"`
}

type EnhancementCategory string

const (
	CategoryUpdateOutdated     EnhancementCategory = "update-outdated"
	CategoryAddModules         EnhancementCategory = "add-modules"
	CategoryRefreshExamples    EnhancementCategory = "refresh-examples"
	CategoryAddDelivery        EnhancementCategory = "add-delivery"
	CategoryEnhanceAssessments EnhancementCategory = "enhance-assessments"
	CategoryAddInteractive     EnhancementCategory = "add-interactive"
)

type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

type EnhancementProposal struct {
	ID          string              `json:"id"`
	Category    EnhancementCategory `json:"category"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Impact      Impact              `json:"impact"`
	Selected    bool                `json:"selected"`
}

type ChangeStatus string

const (
	ChangePending    ChangeStatus = "pending"
	ChangeGenerating ChangeStatus = "generating"
	ChangeGenerated  ChangeStatus = "generated"
	ChangeApproved   ChangeStatus = "approved"
	ChangeRejected   ChangeStatus = "rejected"
)

type ChangeItem struct {
	ID            string       `json:"id"`
	EnhancementID string       `json:"enhancementId"`
	Title         string       `json:"title"`
	Before        string       `json:"before,omitempty"`
	After         string       `json:"after"`
	Status        ChangeStatus `json:"status"`
	Feedback      string       `json:"feedback,omitempty"`
}

// ChangelogEntry is append-only. Date is captured when the entry is written.
type ChangelogEntry struct {
	ID          string              `json:"id"`
	Date        string              `json:"date"`
	Category    EnhancementCategory `json:"category"`
	Description string              `json:"description"`
}

// EnhancementDocument is the enhance-mode aggregate.
type EnhancementDocument struct {
	UploadedFiles            []UploadedFile        `json:"-"`
	AnalysisReportRaw        string                `json:"analysisReportRaw"`
	AnalysisReportStructured *AnalysisReport       `json:"analysisReportStructured"`
	WhatsNewContent          string                `json:"whatsNewContent"`
	WhatsNewItems            []WhatsNewItem        `json:"whatsNewItems"`
	EnhancementProposals     []EnhancementProposal `json:"enhancementProposals"`
	Changes                  []ChangeItem          `json:"changes"`
	Changelog                []ChangelogEntry      `json:"changelog"`
	EnhancePhase             int                   `json:"enhancePhase"`
}

func (d *EnhancementDocument) Change(id string) (*ChangeItem, error) {
	for i := range d.Changes {
		if d.Changes[i].ID == id {
			return &d.Changes[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError("change not found: "+id, nil)
}

func (d *EnhancementDocument) Proposal(id string) (*EnhancementProposal, bool) {
	for i := range d.EnhancementProposals {
		if d.EnhancementProposals[i].ID == id {
			return &d.EnhancementProposals[i], true
		}
	}
	return nil, false
}

// SelectedProposals returns the selected proposals in document order.
func (d *EnhancementDocument) SelectedProposals() []EnhancementProposal {
	var out []EnhancementProposal
	for _, p := range d.EnhancementProposals {
		if p.Selected {
			out = append(out, p)
		}
	}
	return out
}

// ApprovedChanges returns approved changes in document order.
func (d *EnhancementDocument) ApprovedChanges() []ChangeItem {
	var out []ChangeItem
	for _, c := range d.Changes {
		if c.Status == ChangeApproved {
			out = append(out, c)
		}
	}
	return out
}

func (d *EnhancementDocument) AdvancePhase(phase int) {
	if phase > MaxPhase {
		phase = MaxPhase
	}
	if phase > d.EnhancePhase {
		d.EnhancePhase = phase
	}
}
