package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

type upsertSpy struct {
	mu     sync.Mutex
	bodies []string
}

func (u *upsertSpy) record(note *models.StudentNote) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.bodies = append(u.bodies, note.Body)
}

func (u *upsertSpy) all() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.bodies...)
}

func noteFixture(t *testing.T, delay time.Duration) (*upsertSpy, NoteService) {
	t.Helper()
	repo := newMockRepository(t)
	spy := &upsertSpy{}
	repo.note.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		spy.record(args.Get(1).(*models.StudentNote))
	}).Return(nil)
	repo.note.On("GetByStudentAndModule", mock.Anything, testStudent, testModuleID).
		Return(nil, errRecordNotFound())
	return spy, NewNoteService(repo, delay, testLogger())
}

func TestNoteSaveCoalescesRapidWrites(t *testing.T) {
	spy, svc := noteFixture(t, 30*time.Millisecond)
	ctx := context.Background()

	svc.Save(ctx, testStudent, testModuleID, "grind se")
	svc.Save(ctx, testStudent, testModuleID, "grind sett")
	svc.Save(ctx, testStudent, testModuleID, "grind setting 12")

	assert.Eventually(t, func() bool {
		return len(spy.all()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"grind setting 12"}, spy.all())
}

func TestNoteGetReflectsBufferedBody(t *testing.T) {
	_, svc := noteFixture(t, time.Hour)

	svc.Save(context.Background(), testStudent, testModuleID, "unsaved draft")

	note, err := svc.Get(context.Background(), testStudent, testModuleID)
	require.NoError(t, err)
	assert.Equal(t, "unsaved draft", note.Body)
}

func TestNoteFlushPersistsPendingImmediately(t *testing.T) {
	spy, svc := noteFixture(t, time.Hour)

	svc.Save(context.Background(), testStudent, testModuleID, "shutdown body")
	svc.Flush()

	assert.Equal(t, []string{"shutdown body"}, spy.all())

	// The stopped timer must not fire a second persist.
	svc.Flush()
	assert.Equal(t, []string{"shutdown body"}, spy.all())
}

func TestNoteSeparateModulesDoNotCoalesce(t *testing.T) {
	spy, svc := noteFixture(t, 20*time.Millisecond)
	ctx := context.Background()

	svc.Save(ctx, testStudent, testModuleID, "module ten")
	svc.Save(ctx, testStudent, testModuleID+1, "module eleven")

	assert.Eventually(t, func() bool {
		return len(spy.all()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"module ten", "module eleven"}, spy.all())
}
