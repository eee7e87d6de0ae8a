package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func newProjectSvc(m *fakeManager) *ProjectService {
	s := NewProjectService(nil, m, logging.Nop())
	s.now = fixedClock(t0)
	s.newID = sequentialIDs()
	s.runTx = m.projects.runTx
	return s
}

func TestEnsureProject_RejectsIncompleteIdentity(t *testing.T) {
	m := newFakeManager()
	s := newProjectSvc(m)

	for _, ident := range []models.Identity{
		{LocalID: "", Email: "a@x.io"},
		{LocalID: "alice", Email: "   "},
		{LocalID: " \t", Email: ""},
	} {
		_, err := s.EnsureProject(context.Background(), ident)
		require.ErrorIs(t, err, common.ErrorValidation)
	}
	assert.Zero(t, m.projects.finds, "store must not be touched")
}

func TestEnsureProject_CreatesOnFirstContact(t *testing.T) {
	m := newFakeManager()
	s := newProjectSvc(m)

	got, err := s.EnsureProject(context.Background(), models.Identity{LocalID: " alice ", Email: "a@x.io", Subject: "sub-1"})
	require.NoError(t, err)

	assert.Equal(t, &models.ProjectAssignment{ProjectID: "00000001-0000-4000-8000-000000000000", UserID: "alice", Email: "a@x.io"}, got)

	projectsN, detailsN := m.projects.counts()
	assert.Equal(t, 1, projectsN)
	assert.Equal(t, 1, detailsN)
	assert.Equal(t, "Project-00000001", m.projects.projects[0].Name)

	d := m.projects.details[0]
	require.NotNil(t, d.Subject)
	assert.Equal(t, "sub-1", *d.Subject)
	require.NotNil(t, d.LastLogin)
	assert.Equal(t, t0, *d.LastLogin)
	assert.Equal(t, []string{"email:a@x.io", "sub:sub-1", "user:alice"}, m.projects.locked)
}

func TestEnsureProject_Idempotent(t *testing.T) {
	m := newFakeManager()
	s := newProjectSvc(m)
	ident := models.Identity{LocalID: "alice", Email: "a@x.io", Subject: "sub-1"}

	first, err := s.EnsureProject(context.Background(), ident)
	require.NoError(t, err)

	later := t0.Add(time.Hour)
	s.now = fixedClock(later)

	second, err := s.EnsureProject(context.Background(), ident)
	require.NoError(t, err)

	assert.Equal(t, first.ProjectID, second.ProjectID)
	projectsN, detailsN := m.projects.counts()
	assert.Equal(t, 1, projectsN)
	assert.Equal(t, 1, detailsN)
	assert.Equal(t, later, *m.projects.details[0].LastLogin)
	assert.Equal(t, later, m.projects.details[0].UpdatedAt)
}

func TestEnsureProject_CrossKeyConvergence(t *testing.T) {
	m := newFakeManager()
	s := newProjectSvc(m)

	first, err := s.EnsureProject(context.Background(), models.Identity{LocalID: "A", Email: "e@x.io", Subject: "S"})
	require.NoError(t, err)

	second, err := s.EnsureProject(context.Background(), models.Identity{LocalID: "B", Email: "e@x.io"})
	require.NoError(t, err)

	assert.Equal(t, first.ProjectID, second.ProjectID)
	assert.Equal(t, "B", second.UserID)

	d := m.projects.details[0]
	assert.Equal(t, "B", d.UserID, "user id refreshed to the latest value")
	require.NotNil(t, d.Subject)
	assert.Equal(t, "S", *d.Subject, "absent subject keeps the stored one")
}

func TestEnsureProject_SubjectWinsOverUserID(t *testing.T) {
	m := newFakeManager()
	sub := "sub-9"
	m.projects.seed("p-by-user", models.UserDetail{UserID: "alice", Email: "old@x.io"})
	m.projects.seed("p-by-sub", models.UserDetail{UserID: "renamed", Email: "new@x.io", Subject: &sub})
	s := newProjectSvc(m)

	got, err := s.EnsureProject(context.Background(), models.Identity{LocalID: "alice", Email: "a@x.io", Subject: "sub-9"})
	require.NoError(t, err)
	assert.Equal(t, "p-by-sub", got.ProjectID)
}

func TestEnsureProject_UniqueViolationReprobes(t *testing.T) {
	m := newFakeManager()
	m.projects.beforeInsert = func(f *fakeProjects) {
		sub := "sub-1"
		f.seed("winner", models.UserDetail{UserID: "alice", Email: "a@x.io", Subject: &sub})
	}
	s := newProjectSvc(m)

	got, err := s.EnsureProject(context.Background(), models.Identity{LocalID: "alice", Email: "a@x.io", Subject: "sub-1"})
	require.NoError(t, err)
	assert.Equal(t, "winner", got.ProjectID)

	projectsN, detailsN := m.projects.counts()
	assert.Equal(t, 1, projectsN, "attempted project rolled back")
	assert.Equal(t, 1, detailsN)
}

func TestEnsureProject_ConsistencyErrorWhenReprobeFindsNothing(t *testing.T) {
	m := newFakeManager()
	m.projects.insertErr = uniqueViolation("user_details_cognito_sub_key")
	s := newProjectSvc(m)

	_, err := s.EnsureProject(context.Background(), models.Identity{LocalID: "alice", Email: "a@x.io", Subject: "sub-1"})
	require.ErrorIs(t, err, common.ErrorConsistency)

	projectsN, _ := m.projects.counts()
	assert.Zero(t, projectsN)
}

func TestEnsureProject_StoreErrorPropagates(t *testing.T) {
	m := newFakeManager()
	boom := errors.New("connection refused")
	m.projects.findErr = boom
	s := newProjectSvc(m)

	_, err := s.EnsureProject(context.Background(), models.Identity{LocalID: "alice", Email: "a@x.io"})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, common.ErrorConsistency)
}

func TestEnsureProject_ConcurrentFirstContact(t *testing.T) {
	for _, subject := range []string{"sub-1", ""} {
		t.Run("subject="+subject, func(t *testing.T) {
			m := newFakeManager()
			s := newProjectSvc(m)
			ident := models.Identity{LocalID: "alice", Email: "a@x.io", Subject: subject}

			const n = 8
			var (
				wg    sync.WaitGroup
				start = make(chan struct{})
				ids   = make([]string, n)
				errs  = make([]error, n)
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					<-start
					a, err := s.EnsureProject(context.Background(), ident)
					errs[i] = err
					if a != nil {
						ids[i] = a.ProjectID
					}
				}(i)
			}
			close(start)
			wg.Wait()

			for i := 0; i < n; i++ {
				require.NoError(t, errs[i])
				assert.Equal(t, ids[0], ids[i])
			}
			projectsN, detailsN := m.projects.counts()
			assert.Equal(t, 1, projectsN)
			assert.Equal(t, 1, detailsN)
		})
	}
}

func TestEnsureProject_ConcurrentSameUserDifferentEmails(t *testing.T) {
	m := newFakeManager()
	s := newProjectSvc(m)

	const n = 6
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		ids   = make([]string, n)
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ident := models.Identity{LocalID: "alice", Email: fmt.Sprintf("alice+%d@x.io", i)}
			a, err := s.EnsureProject(context.Background(), ident)
			errs[i] = err
			if a != nil {
				ids[i] = a.ProjectID
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	projectsN, detailsN := m.projects.counts()
	assert.Equal(t, 1, projectsN)
	assert.Equal(t, 1, detailsN)
}

func TestEnsureProject_EmailMatchIgnoresCase(t *testing.T) {
	m := newFakeManager()
	m.projects.seed("p-1", models.UserDetail{UserID: "old-name", Email: "Alice@X.io"})
	s := newProjectSvc(m)

	got, err := s.EnsureProject(context.Background(), models.Identity{LocalID: "alice", Email: "alice@x.io"})
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ProjectID)
}

func TestEnsureProject_UsesDatabaseTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	m := newFakeManager()
	s := NewProjectService(db, m, logging.Nop())

	got, err := s.EnsureProject(context.Background(), models.Identity{LocalID: "alice", Email: "a@x.io"})
	require.NoError(t, err)
	assert.Len(t, got.ProjectID, 36)
	assert.Equal(t, "Project-"+got.ProjectID[:8], m.projects.projects[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureProject_RollsBackOnUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	m := newFakeManager()
	m.projects.beforeInsert = func(f *fakeProjects) {
		f.seed("winner", models.UserDetail{UserID: "alice", Email: "a@x.io"})
	}
	// same (user_id, project_id) is impossible with fresh ids, so force it
	m.projects.insertErr = uniqueViolation("user_details_user_project_key")
	s := NewProjectService(db, m, logging.Nop())

	got, err := s.EnsureProject(context.Background(), models.Identity{LocalID: "alice", Email: "a@x.io"})
	require.NoError(t, err)
	assert.Equal(t, "winner", got.ProjectID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListProjects(t *testing.T) {
	m := newFakeManager()
	s := newProjectSvc(m)

	_, err := s.ListProjects(context.Background(), "")
	require.ErrorIs(t, err, common.ErrorMissingIdentity)

	a, err := s.EnsureProject(context.Background(), models.Identity{LocalID: "alice", Email: "a@x.io"})
	require.NoError(t, err)

	items, err := s.ListProjects(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, a.ProjectID, items[0].ProjectID)

	items, err = s.ListProjects(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, items)
}
