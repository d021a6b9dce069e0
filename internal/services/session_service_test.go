package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/Corphon/CurriculumDesigner/internal/errors"
	"github.com/Corphon/CurriculumDesigner/internal/migrate"
	"github.com/Corphon/CurriculumDesigner/internal/models"
	"github.com/Corphon/CurriculumDesigner/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefaultsToCreateMode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.sessions.Create(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.ModeCreate, sess.Mode)
	assert.NotEmpty(t, sess.ID)

	_, err = env.sessions.Create(ctx, "remix")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestGetUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Get(ctx, "missing")
	assert.True(t, apperrors.IsNotFoundError(err))

	_, err = env.sessions.Get(ctx, "../etc/passwd")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestUpdateFailureLeavesSnapshotUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, err := env.sessions.Create(ctx, models.ModeCreate)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = env.sessions.Update(ctx, sess.ID, func(s *models.Session) error {
		s.TopicLandscape = "half written"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := env.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got.TopicLandscape)
	assert.True(t, sess.UpdatedAt.Equal(got.UpdatedAt))
}

func TestUpdateReturnsIndependentCopy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, err := env.sessions.Create(ctx, models.ModeCreate)
	require.NoError(t, err)

	updated, err := env.sessions.Update(ctx, sess.ID, func(s *models.Session) error {
		s.AssessmentsContent = "quiz"
		return nil
	})
	require.NoError(t, err)
	updated.AssessmentsContent = "changed by caller"

	got, err := env.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "quiz", got.AssessmentsContent)
}

func TestLegacySnapshotIsMigratedOnLoad(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	legacy := `{"id":"legacy1","courseInfo":{"topic":"Go","audience":"beginners","format":"bootcamp","philosophy":"hands-on"},
		"modules":[{"name":"Intro","content":"# Intro"}]}`
	require.NoError(t, env.store.Save(ctx, "legacy1", &storage.Record{Version: 0, State: json.RawMessage(legacy)}))

	sess, err := env.sessions.Get(ctx, "legacy1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeCreate, sess.Mode)
	require.Len(t, sess.Modules, 1)
	assert.Equal(t, models.StatusPending, sess.Modules[0].Status)

	_, err = env.sessions.AdvancePhase(ctx, "legacy1", 1)
	require.NoError(t, err)
	rec, err := env.store.Load(ctx, "legacy1")
	require.NoError(t, err)
	assert.Equal(t, migrate.CurrentVersion, rec.Version)
}

func TestListMostRecentFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first, err := env.sessions.Create(ctx, models.ModeCreate)
	require.NoError(t, err)
	second, err := env.sessions.Create(ctx, models.ModeEnhance)
	require.NoError(t, err)

	_, err = env.sessions.AdvancePhase(ctx, first.ID, 1)
	require.NoError(t, err)

	list, err := env.sessions.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestResetSwitchesModeAndKeepsIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := createSessionWithModules(t, env, "Foundations")

	sess, err := env.sessions.Reset(ctx, id, models.ModeEnhance)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, models.ModeEnhance, sess.Mode)
	assert.Empty(t, sess.Modules)
	assert.Nil(t, sess.CourseInfo)
	assert.Zero(t, sess.CurrentPhase)
}

func TestAdvancePhaseOnlyMovesForward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, err := env.sessions.Create(ctx, models.ModeEnhance)
	require.NoError(t, err)

	got, err := env.sessions.AdvancePhase(ctx, sess.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got.EnhancePhase)
	assert.Zero(t, got.CurrentPhase)

	got, err = env.sessions.AdvancePhase(ctx, sess.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, got.EnhancePhase)

	_, err = env.sessions.AdvancePhase(ctx, sess.ID, models.MaxPhase+1)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestEditText(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := createSessionWithModules(t, env, "Foundations")

	sess, err := env.sessions.EditText(ctx, id, FieldSuggestedModules, "", "1. Basics")
	require.NoError(t, err)
	assert.Equal(t, "1. Basics", sess.SuggestedModules)

	_, err = env.sessions.EditText(ctx, id, FieldModuleContent, "0", "# Foundations")
	assert.True(t, apperrors.IsConflictError(err), "pending module content is not editable")

	_, err = env.sessions.EditText(ctx, id, FieldModuleContent, "zero", "x")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = env.sessions.EditText(ctx, id, "nope", "", "x")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestDeleteDropsUploads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sess, err := env.sessions.Create(ctx, models.ModeEnhance)
	require.NoError(t, err)
	_, err = env.enhance.UploadFile(ctx, sess.ID, "course.md", []byte("# Course"))
	require.NoError(t, err)

	require.NoError(t, env.sessions.Delete(ctx, sess.ID))
	_, err = env.sessions.Get(ctx, sess.ID)
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.True(t, apperrors.IsNotFoundError(env.sessions.Delete(ctx, sess.ID)))
}
