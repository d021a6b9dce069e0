// internal/services/session_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/migrate"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/storage"
	"github.com/Corphon/CurriculumDesigner/internal/utils"
	"github.com/google/uuid"
)

// SessionService owns the persisted session snapshots. Every mutation goes
// through Update: the current snapshot is cloned, the clone is mutated and
// saved, and only then becomes the current snapshot.
type SessionService struct {
	store  storage.SnapshotStore
	locks  *LockManager
	logger *utils.Logger
	now    func() time.Time

	// uploaded files are kept per process and never written to the store
	uploadsMu sync.RWMutex
	uploads   map[string][]models.UploadedFile
}

func NewSessionService(store storage.SnapshotStore, locks *LockManager, logger *utils.Logger) *SessionService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &SessionService{
		store:   store,
		locks:   locks,
		logger:  logger,
		now:     time.Now,
		uploads: make(map[string][]models.UploadedFile),
	}
}

// Create stores a new empty session.
func (s *SessionService) Create(ctx context.Context, mode models.Mode) (*models.Session, error) {
	if mode == "" {
		mode = models.ModeCreate
	}
	if !mode.Valid() {
		return nil, apperrors.NewValidationError("invalid mode: "+string(mode), nil)
	}
	sess := models.NewSession(uuid.NewString(), mode, s.now().UTC())
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("session created", "session_id", sess.ID, "mode", mode)
	return sess, nil
}

// Get returns the current snapshot. The caller owns the returned value.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachUploads(sess)
	return sess, nil
}

// List returns session summaries, most recently updated first.
func (s *SessionService) List(ctx context.Context) ([]models.Summary, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, apperrors.NewProcessingError("list sessions", err)
	}
	out := make([]models.Summary, 0, len(ids))
	for _, id := range ids {
		sess, err := s.load(ctx, id)
		if err != nil {
			s.logger.Warn("skipping unreadable session", "session_id", id, "error", err)
			continue
		}
		out = append(out, sess.Summary())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.locks.ExecuteWithSessionLock(id, func() error {
		if err := s.store.Delete(ctx, id); err != nil {
			return storeError(id, err)
		}
		s.uploadsMu.Lock()
		delete(s.uploads, id)
		s.uploadsMu.Unlock()
		s.logger.Info("session deleted", "session_id", id)
		return nil
	})
}

// Reset clears both documents and switches the session to mode. It is the
// only operation that lowers the phase cursors.
func (s *SessionService) Reset(ctx context.Context, id string, mode models.Mode) (*models.Session, error) {
	if !mode.Valid() {
		return nil, apperrors.NewValidationError("invalid mode: "+string(mode), nil)
	}
	return s.Update(ctx, id, func(sess *models.Session) error {
		sess.Reset(mode, s.now().UTC())
		return nil
	})
}

// Update applies fn to a copy of the session and persists the copy. If fn or
// the save fails the stored session is unchanged.
func (s *SessionService) Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	var result *models.Session
	err := s.locks.ExecuteWithSessionLock(id, func() error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		s.attachUploads(current)

		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = s.now().UTC()

		if err := s.save(ctx, next); err != nil {
			return err
		}
		s.uploadsMu.Lock()
		s.uploads[id] = next.UploadedFiles
		s.uploadsMu.Unlock()

		result = next.Clone()
		return nil
	})
	return result, err
}

func (s *SessionService) load(ctx context.Context, id string) (*models.Session, error) {
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, storeError(id, err)
	}
	sess := &models.Session{}
	version, err := migrate.Decode(rec.State, rec.Version, sess)
	if err != nil {
		return nil, apperrors.NewProcessingError("decode session "+id, err)
	}
	if version != rec.Version {
		s.logger.Debug("session migrated on load", "session_id", id, "from", rec.Version, "to", version)
	}
	if sess.ID == "" {
		sess.ID = id
	}
	if sess.Mode == "" {
		sess.Mode = models.ModeCreate
	}
	return sess, nil
}

func (s *SessionService) save(ctx context.Context, sess *models.Session) error {
	state, err := json.Marshal(sess)
	if err != nil {
		return apperrors.NewProcessingError("encode session", err)
	}
	rec := &storage.Record{Version: migrate.CurrentVersion, State: state}
	if err := s.store.Save(ctx, sess.ID, rec); err != nil {
		return apperrors.NewProcessingError("save session "+sess.ID, err)
	}
	return nil
}

func (s *SessionService) attachUploads(sess *models.Session) {
	s.uploadsMu.RLock()
	defer s.uploadsMu.RUnlock()
	if files := s.uploads[sess.ID]; len(files) > 0 {
		sess.UploadedFiles = append([]models.UploadedFile(nil), files...)
	}
}

func storeError(id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidID) {
		return apperrors.NewNotFoundError("session not found: "+id, err)
	}
	return apperrors.NewProcessingError("load session "+id, err)
}

func requireMode(sess *models.Session, mode models.Mode) error {
	if sess.Mode != mode {
		return apperrors.NewConflictError(fmt.Sprintf("session is in %s mode", sess.Mode), nil)
	}
	return nil
}

// AdvancePhase moves the wizard cursor of the session's mode forward. Lower
// phases are ignored.
func (s *SessionService) AdvancePhase(ctx context.Context, id string, phase int) (*models.Session, error) {
	if phase < 0 || phase > models.MaxPhase {
		return nil, apperrors.NewValidationError(fmt.Sprintf("phase must be between 0 and %d", models.MaxPhase), nil)
	}
	return s.Update(ctx, id, func(sess *models.Session) error {
		if sess.Mode == models.ModeEnhance {
			sess.EnhancementDocument.AdvancePhase(phase)
		} else {
			sess.CurriculumDocument.AdvancePhase(phase)
		}
		return nil
	})
}

// TextField names a raw text blob editable from the raw view.
type TextField string

const (
	FieldTopicLandscape   TextField = "topicLandscape"
	FieldSuggestedModules TextField = "suggestedModules"
	FieldModuleContent    TextField = "moduleContent"
	FieldAssessments      TextField = "assessmentsContent"
	FieldDelivery         TextField = "deliveryContent"
	FieldAnalysisReport   TextField = "analysisReportRaw"
	FieldWhatsNew         TextField = "whatsNewContent"
	FieldChangeAfter      TextField = "changeAfter"
)

// EditText replaces one raw text blob. ref is the module index for
// moduleContent and the change id for changeAfter.
func (s *SessionService) EditText(ctx context.Context, id string, field TextField, ref, content string) (*models.Session, error) {
	return s.Update(ctx, id, func(sess *models.Session) error {
		switch field {
		case FieldTopicLandscape:
			sess.TopicLandscape = content
		case FieldSuggestedModules:
			sess.SuggestedModules = content
		case FieldAssessments:
			sess.AssessmentsContent = content
		case FieldDelivery:
			sess.DeliveryContent = content
		case FieldAnalysisReport:
			sess.AnalysisReportRaw = content
		case FieldWhatsNew:
			sess.WhatsNewContent = content
		case FieldModuleContent:
			index, err := strconv.Atoi(ref)
			if err != nil {
				return apperrors.NewValidationError("module index must be a number", err)
			}
			m, err := sess.Module(index)
			if err != nil {
				return err
			}
			if m.Status != models.StatusComplete {
				return apperrors.NewConflictError("module content can be edited once the module is complete", nil)
			}
			m.Content = content
		case FieldChangeAfter:
			c, err := sess.Change(ref)
			if err != nil {
				return err
			}
			if c.Status == models.ChangeGenerating {
				return apperrors.NewConflictError("change is being generated", nil)
			}
			c.After = content
		default:
			return apperrors.NewValidationError("unknown field: "+string(field), nil)
		}
		return nil
	})
}
