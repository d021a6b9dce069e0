// internal/services/enhance_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/CurriculumDesigner/internal/blocks"
	"github.com/Corphon/CurriculumDesigner/internal/enhance"
	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/prompts"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/google/uuid"
)

// EnhanceService runs the enhance-mode wizard steps.
type EnhanceService struct {
	sessions *SessionService
	gen      *GenerationService
	locks    *LockManager
	progress *ProgressService
	logger   *utils.Logger
	now      func() time.Time

	// background change runs outlive the request that started them
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewEnhanceService(sessions *SessionService, gen *GenerationService, locks *LockManager, progress *ProgressService, logger *utils.Logger) *EnhanceService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &EnhanceService{
		sessions: sessions,
		gen:      gen,
		locks:    locks,
		progress: progress,
		logger:   logger,
		now:      time.Now,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Close cancels running change pipelines and waits for them to store their
// last state.
func (s *EnhanceService) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until every background run has finished.
func (s *EnhanceService) Wait() {
	s.wg.Wait()
}

// UploadFile extracts the text of one course file and keeps it with the
// session. Uploaded files are never persisted.
func (s *EnhanceService) UploadFile(ctx context.Context, id, name string, data []byte) (*models.UploadedFile, error) {
	text, err := ExtractText(name, data)
	if err != nil {
		return nil, err
	}
	file := models.UploadedFile{ID: uuid.NewString(), Name: name, Content: text}
	_, err = s.sessions.Update(ctx, id, func(sess *models.Session) error {
		if err := requireMode(sess, models.ModeEnhance); err != nil {
			return err
		}
		sess.UploadedFiles = append(sess.UploadedFiles, file)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *EnhanceService) RemoveFile(ctx context.Context, id, fileID string) (*models.Session, error) {
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		for i, f := range sess.UploadedFiles {
			if f.ID == fileID {
				sess.UploadedFiles = append(sess.UploadedFiles[:i], sess.UploadedFiles[i+1:]...)
				return nil
			}
		}
		return apperrors.NewNotFoundError("file not found: "+fileID, nil)
	})
}

// Analyze streams the analysis of the uploaded files.
func (s *EnhanceService) Analyze(ctx context.Context, id string, onChunk func(string)) (*models.Session, error) {
	sess, err := s.enhanceSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(sess.UploadedFiles) == 0 {
		return nil, apperrors.NewValidationError("upload at least one course file", nil)
	}
	return s.stream(ctx, id, StepAnalysis, prompts.Analysis(sess.UploadedFiles), onChunk,
		func(d *models.EnhancementDocument, full string) {
			d.AnalysisReportRaw = blocks.Strip(full)
			d.AnalysisReportStructured = nil
			if r, ok := blocks.ParseAnalysis(full); ok {
				d.AnalysisReportStructured = r
			}
		})
}

func (s *EnhanceService) SetGapAction(ctx context.Context, id, gapID string, action models.GapAction) (*models.Session, error) {
	switch action {
	case models.GapInclude, models.GapDefer, models.GapSkip:
	default:
		return nil, apperrors.NewValidationError("invalid gap action: "+string(action), nil)
	}
	return s.updateReport(ctx, id, func(r *models.AnalysisReport) error {
		for i := range r.Gaps {
			if r.Gaps[i].ID == gapID {
				r.Gaps[i].Action = action
				return nil
			}
		}
		return apperrors.NewNotFoundError("gap not found: "+gapID, nil)
	})
}

// AddGap appends a user-written gap, included by default.
func (s *EnhanceService) AddGap(ctx context.Context, id string, gapType models.GapType, description string) (*models.Session, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.NewValidationError("gap description is required", nil)
	}
	switch gapType {
	case models.GapMissing, models.GapOutdated, models.GapOpportunity:
	case "":
		gapType = models.GapMissing
	default:
		return nil, apperrors.NewValidationError("invalid gap type: "+string(gapType), nil)
	}
	return s.updateReport(ctx, id, func(r *models.AnalysisReport) error {
		r.Gaps = append(r.Gaps, models.GapItem{
			ID:          uuid.NewString(),
			Type:        gapType,
			Description: description,
			Action:      models.GapInclude,
		})
		return nil
	})
}

func (s *EnhanceService) SetStrengthAction(ctx context.Context, id, strengthID string, action models.StrengthAction) (*models.Session, error) {
	if action != models.StrengthKeep && action != models.StrengthDeEmphasize {
		return nil, apperrors.NewValidationError("invalid strength action: "+string(action), nil)
	}
	return s.updateReport(ctx, id, func(r *models.AnalysisReport) error {
		for i := range r.Strengths {
			if r.Strengths[i].ID == strengthID {
				r.Strengths[i].Action = action
				return nil
			}
		}
		return apperrors.NewNotFoundError("strength not found: "+strengthID, nil)
	})
}

func (s *EnhanceService) updateReport(ctx context.Context, id string, fn func(*models.AnalysisReport) error) (*models.Session, error) {
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		if err := requireMode(sess, models.ModeEnhance); err != nil {
			return err
		}
		if sess.AnalysisReportStructured == nil {
			return apperrors.NewValidationError("run the analysis first", nil)
		}
		return fn(sess.AnalysisReportStructured)
	})
}

// WhatsNew streams the research on recent developments for the analyzed
// course.
func (s *EnhanceService) WhatsNew(ctx context.Context, id string, onChunk func(string)) (*models.Session, error) {
	sess, err := s.enhanceSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.AnalysisReportStructured == nil {
		return nil, apperrors.NewValidationError("run the analysis first", nil)
	}
	return s.stream(ctx, id, StepWhatsNew, prompts.WhatsNew(sess.AnalysisReportStructured), onChunk,
		func(d *models.EnhancementDocument, full string) {
			d.WhatsNewContent = blocks.Strip(full)
			d.WhatsNewItems = nil
			if items, ok := blocks.ParseWhatsNew(full); ok {
				d.WhatsNewItems = items
			}
		})
}

// SetWhatsNewItem updates the selected and expanded flags of one item. Nil
// values are left alone.
func (s *EnhanceService) SetWhatsNewItem(ctx context.Context, id, itemID string, selected, expanded *bool) (*models.Session, error) {
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		for i := range sess.WhatsNewItems {
			it := &sess.WhatsNewItems[i]
			if it.ID != itemID {
				continue
			}
			if selected != nil {
				it.Selected = *selected
			}
			if expanded != nil {
				it.Expanded = *expanded
			}
			return nil
		}
		return apperrors.NewNotFoundError("what's new item not found: "+itemID, nil)
	})
}

// Proposals asks for enhancement proposals built from the analysis and the
// selected research. High impact proposals start selected.
func (s *EnhanceService) Proposals(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.enhanceSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.AnalysisReportStructured == nil || strings.TrimSpace(sess.WhatsNewContent) == "" {
		return nil, apperrors.NewValidationError("complete the analysis and research steps first", nil)
	}

	release, ok := s.locks.TryAcquire(busyKey(id, StepProposals))
	if !ok {
		return nil, apperrors.NewConflictError("proposals are already being generated", nil)
	}
	defer release()

	prompt := prompts.Proposals(sess.AnalysisReportStructured, prompts.ResearchSummary(&sess.EnhancementDocument))
	text, err := s.gen.Complete(ctx, StepProposals, prompts.EnhanceSystem, prompt)
	if err != nil {
		return nil, err
	}
	proposals, ok := blocks.ParseProposals(text)
	if !ok {
		return nil, apperrors.NewExtractionError("could not read the proposals reply", nil)
	}
	return s.sessions.Update(context.WithoutCancel(ctx), id, func(next *models.Session) error {
		next.EnhancementProposals = proposals
		return nil
	})
}

func (s *EnhanceService) ToggleProposal(ctx context.Context, id, proposalID string) (*models.Session, error) {
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		p, ok := sess.Proposal(proposalID)
		if !ok {
			return apperrors.NewNotFoundError("proposal not found: "+proposalID, nil)
		}
		p.Selected = !p.Selected
		return nil
	})
}

// GenerateChanges plans one change per selected proposal and generates them
// in order in the background. The returned task id identifies the progress
// tracker of the run.
func (s *EnhanceService) GenerateChanges(ctx context.Context, id string) (string, error) {
	release, ok := s.locks.TryAcquire(busyKey(id, StepChange))
	if !ok {
		return "", apperrors.NewConflictError("change generation already in progress", nil)
	}

	var jobs []enhance.Job
	sess, err := s.sessions.Update(ctx, id, func(sess *models.Session) error {
		if err := requireMode(sess, models.ModeEnhance); err != nil {
			return err
		}
		resetInterrupted(&sess.EnhancementDocument)
		var err error
		jobs, err = enhance.PlanChanges(&sess.EnhancementDocument)
		return err
	})
	if err != nil {
		release()
		return "", err
	}
	return s.start(id, sess, jobs, release), nil
}

// RegenerateChange stores the reviewer feedback and generates one change
// again in the background.
func (s *EnhanceService) RegenerateChange(ctx context.Context, id, changeID, feedback string) (string, error) {
	release, ok := s.locks.TryAcquire(busyKey(id, StepChange))
	if !ok {
		return "", apperrors.NewConflictError("change generation already in progress", nil)
	}

	var job enhance.Job
	sess, err := s.sessions.Update(ctx, id, func(sess *models.Session) error {
		if err := requireMode(sess, models.ModeEnhance); err != nil {
			return err
		}
		resetInterrupted(&sess.EnhancementDocument)
		if strings.TrimSpace(feedback) != "" {
			if err := enhance.SetFeedback(&sess.EnhancementDocument, changeID, strings.TrimSpace(feedback)); err != nil {
				return err
			}
		}
		var err error
		job, err = enhance.Regenerate(&sess.EnhancementDocument, changeID)
		return err
	})
	if err != nil {
		release()
		return "", err
	}
	return s.start(id, sess, []enhance.Job{job}, release), nil
}

// resetInterrupted returns changes left generating by an earlier process to
// pending. Callers hold the change key, so no run is active.
func resetInterrupted(doc *models.EnhancementDocument) {
	for i := range doc.Changes {
		if doc.Changes[i].Status == models.ChangeGenerating {
			doc.Changes[i].Status = models.ChangePending
		}
	}
}

func (s *EnhanceService) start(id string, sess *models.Session, jobs []enhance.Job, release func()) string {
	taskID := uuid.NewString()
	tracker := s.progress.CreateTracker(taskID, id)

	report := sess.AnalysisReportStructured
	research := prompts.ResearchSummary(&sess.EnhancementDocument)
	gen := enhance.GeneratorFunc(func(ctx context.Context, job enhance.Job, onChunk func(string)) (string, error) {
		prompt := prompts.TargetedUpdate(prompts.Update{
			Proposal:      job.Proposal,
			Report:        report,
			Research:      research,
			Feedback:      job.Feedback,
			PreviousAfter: job.PreviousAfter,
		})
		return s.gen.Stream(ctx, StepChange, prompts.EnhanceSystem, prompt, onChunk)
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer release()
		s.run(id, gen, jobs, tracker)
	}()
	s.logger.Info("change generation started", "session_id", id, "task_id", taskID, "changes", len(jobs))
	return taskID
}

func (s *EnhanceService) run(id string, gen enhance.Generator, jobs []enhance.Job, tracker *ProgressTracker) {
	// state writes must land even while shutting down
	persist := context.WithoutCancel(s.baseCtx)
	failed := 0
	for ev := range enhance.Run(s.baseCtx, gen, jobs) {
		if ev.Kind != enhance.EventChunk {
			if ev.Kind == enhance.EventFailed {
				failed++
				s.logger.Warn("change generation failed", "session_id", id, "change_id", ev.ChangeID, "error", ev.Error)
			}
			if _, err := s.sessions.Update(persist, id, func(sess *models.Session) error {
				return enhance.ApplyEvent(&sess.EnhancementDocument, ev)
			}); err != nil {
				s.logger.Error("store change event", "session_id", id, "change_id", ev.ChangeID, "error", err)
			}
		}
		tracker.Publish(ev)
	}

	if s.baseCtx.Err() != nil {
		if _, err := s.sessions.Update(persist, id, func(sess *models.Session) error {
			resetInterrupted(&sess.EnhancementDocument)
			return nil
		}); err != nil {
			s.logger.Error("reset interrupted changes", "session_id", id, "error", err)
		}
		tracker.Fail("interrupted by shutdown")
		return
	}
	tracker.Complete(fmt.Sprintf("generated %d of %d changes", len(jobs)-failed, len(jobs)))
}

func (s *EnhanceService) ApproveChange(ctx context.Context, id, changeID string) (*models.Session, error) {
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		_, err := enhance.Approve(&sess.EnhancementDocument, changeID, s.now())
		return err
	})
}

func (s *EnhanceService) RejectChange(ctx context.Context, id, changeID string) (*models.Session, error) {
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		return enhance.Reject(&sess.EnhancementDocument, changeID)
	})
}

func (s *EnhanceService) SetChangeFeedback(ctx context.Context, id, changeID, feedback string) (*models.Session, error) {
	return s.sessions.Update(ctx, id, func(sess *models.Session) error {
		return enhance.SetFeedback(&sess.EnhancementDocument, changeID, strings.TrimSpace(feedback))
	})
}

func (s *EnhanceService) enhanceSession(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireMode(sess, models.ModeEnhance); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *EnhanceService) stream(ctx context.Context, id, step, prompt string, onChunk func(string), store func(*models.EnhancementDocument, string)) (*models.Session, error) {
	release, ok := s.locks.TryAcquire(busyKey(id, step))
	if !ok {
		return nil, apperrors.NewConflictError(step+" is already running", nil)
	}
	defer release()

	full, err := s.gen.Stream(ctx, step, prompts.EnhanceSystem, prompt, onChunk)
	if err != nil {
		return nil, err
	}
	return s.sessions.Update(context.WithoutCancel(ctx), id, func(next *models.Session) error {
		store(&next.EnhancementDocument, full)
		return nil
	})
}
