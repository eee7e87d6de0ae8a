package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/dbx"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/files"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/pdfsessions"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/projects"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/users"
)

// --- repository manager ---

type fakeManager struct {
	projects *fakeProjects
	users    *fakeUsers
	files    *fakeFiles
	pdf      *fakePDFSessions
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		projects: newFakeProjects(),
		users:    &fakeUsers{rows: map[string]*models.User{}},
		files:    &fakeFiles{rows: map[string]*models.File{}},
		pdf:      &fakePDFSessions{sessions: map[string]*models.PDFSession{}},
	}
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeManager) Projects(dbx.DBTX) projects.Repository        { return m.projects }
func (m *fakeManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeManager) Files(dbx.DBTX) files.Repository              { return m.files }
func (m *fakeManager) PDFSessions(dbx.DBTX) pdfsessions.Repository  { return m.pdf }

func uniqueViolation(constraint string) error {
	return fmt.Errorf("failed to insert user details: %w", &pgconn.PgError{Code: dbx.UniqueViolation, ConstraintName: constraint})
}

// --- projects ---

type txKey struct{}

func txOf(ctx context.Context) int64 {
	id, _ := ctx.Value(txKey{}).(int64)
	return id
}

type fakeDetail struct {
	models.UserDetail
	tx int64
}

type fakeProject struct {
	models.Project
	tx int64
}

// fakeProjects is an in-memory projects.Repository. runTx gives it enough
// transaction semantics for the registrar: advisory locks held until the
// transaction ends and rollback of rows written inside it.
type fakeProjects struct {
	mu       sync.Mutex
	projects []*fakeProject
	details  []*fakeDetail
	nextID   int64
	txSeq    int64

	keyLocks map[string]*sync.Mutex
	held     map[int64][]*sync.Mutex
	locked   []string

	finds   int
	findErr error

	// beforeInsert runs once, before CreateUserDetail writes, to stand in for
	// a concurrent registration.
	beforeInsert func(f *fakeProjects)

	// insertErr, when set, is returned by CreateUserDetail instead of writing.
	insertErr error
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{keyLocks: map[string]*sync.Mutex{}, held: map[int64][]*sync.Mutex{}}
}

func (f *fakeProjects) runTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	id := atomic.AddInt64(&f.txSeq, 1)
	err := fn(context.WithValue(ctx, txKey{}, id), nil)

	f.mu.Lock()
	if err != nil {
		f.rollbackLocked(id)
	}
	locks := f.held[id]
	delete(f.held, id)
	f.mu.Unlock()

	for _, l := range locks {
		l.Unlock()
	}
	return err
}

func (f *fakeProjects) rollbackLocked(tx int64) {
	ps := f.projects[:0]
	for _, p := range f.projects {
		if p.tx != tx {
			ps = append(ps, p)
		}
	}
	f.projects = ps

	ds := f.details[:0]
	for _, d := range f.details {
		if d.tx != tx {
			ds = append(ds, d)
		}
	}
	f.details = ds
}

func (f *fakeProjects) find(match func(d *models.UserDetail) bool) (*models.UserDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, d := range f.details {
		if match(&d.UserDetail) {
			cp := d.UserDetail
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeProjects) FindBySubject(_ context.Context, subject string) (*models.UserDetail, error) {
	return f.find(func(d *models.UserDetail) bool { return d.Subject != nil && *d.Subject == subject })
}

func (f *fakeProjects) FindByUserID(_ context.Context, userID string) (*models.UserDetail, error) {
	return f.find(func(d *models.UserDetail) bool { return d.UserID == userID })
}

func (f *fakeProjects) FindByEmail(_ context.Context, email string) (*models.UserDetail, error) {
	return f.find(func(d *models.UserDetail) bool { return strings.EqualFold(d.Email, email) })
}

func (f *fakeProjects) Touch(_ context.Context, id int64, ident models.Identity, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.details {
		if d.ID != id {
			continue
		}
		d.UserID, d.Email = ident.LocalID, ident.Email
		if ident.Subject != "" {
			s := ident.Subject
			d.Subject = &s
		}
		t := at
		d.LastLogin = &t
		d.UpdatedAt = at
		return nil
	}
	return common.ErrorNotFound
}

func (f *fakeProjects) CreateProject(ctx context.Context, p *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.UpdatedAt = p.CreatedAt
	f.projects = append(f.projects, &fakeProject{Project: *p, tx: txOf(ctx)})
	return nil
}

func (f *fakeProjects) CreateUserDetail(ctx context.Context, d *models.UserDetail) error {
	if hook := f.beforeInsert; hook != nil {
		f.beforeInsert = nil
		hook(f)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, other := range f.details {
		if other.UserID == d.UserID && other.ProjectID == d.ProjectID {
			return uniqueViolation("user_details_user_project_key")
		}
		if d.Subject != nil && other.Subject != nil && *other.Subject == *d.Subject {
			return uniqueViolation("user_details_cognito_sub_key")
		}
	}
	f.nextID++
	d.ID = f.nextID
	d.UpdatedAt = d.CreatedAt
	f.details = append(f.details, &fakeDetail{UserDetail: *d, tx: txOf(ctx)})
	return nil
}

// seed inserts a committed row directly.
func (f *fakeProjects) seed(projectID string, d models.UserDetail) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append(f.projects, &fakeProject{Project: models.Project{ProjectID: projectID, Name: "Project-seed"}})
	f.nextID++
	d.ID = f.nextID
	d.ProjectID = projectID
	f.details = append(f.details, &fakeDetail{UserDetail: d})
}

func (f *fakeProjects) LockIdentity(ctx context.Context, key string) error {
	f.mu.Lock()
	l, ok := f.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		f.keyLocks[key] = l
	}
	f.locked = append(f.locked, key)
	f.mu.Unlock()

	l.Lock()

	tx := txOf(ctx)
	if tx == 0 {
		// not inside runTx: nothing would release it
		l.Unlock()
		return nil
	}
	f.mu.Lock()
	f.held[tx] = append(f.held[tx], l)
	f.mu.Unlock()
	return nil
}

func (f *fakeProjects) ListByUser(_ context.Context, userID string) ([]*models.ProjectSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.ProjectSummary, 0)
	for _, d := range f.details {
		if d.UserID != userID {
			continue
		}
		for _, p := range f.projects {
			if p.ProjectID == d.ProjectID {
				out = append(out, &models.ProjectSummary{ProjectID: p.ProjectID, Name: p.Name, CreatedAt: p.CreatedAt, LastLogin: d.LastLogin})
			}
		}
	}
	return out, nil
}

func (f *fakeProjects) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.projects), len(f.details)
}

// --- users ---

type fakeUsers struct {
	rows map[string]*models.User
	err  error
}

func (f *fakeUsers) CreateIfAbsent(_ context.Context, u *models.User) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.rows[u.UserName]; ok {
		return false, nil
	}
	cp := *u
	f.rows[u.UserName] = &cp
	return true, nil
}

// --- files ---

type fakeFiles struct {
	rows      map[string]*models.File
	createErr error
}

func (f *fakeFiles) owned(fileID, userID string) (*models.File, error) {
	r, ok := f.rows[fileID]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return r, nil
}

func (f *fakeFiles) Create(_ context.Context, file *models.File) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *file
	f.rows[file.FileID] = &cp
	return nil
}

func (f *fakeFiles) GetByID(_ context.Context, fileID, userID string) (*models.File, error) {
	r, err := f.owned(fileID, userID)
	if err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

func (f *fakeFiles) ListByUser(_ context.Context, userID, projectID string) ([]*models.File, error) {
	out := make([]*models.File, 0)
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		if projectID != "" && (r.ProjectID == nil || *r.ProjectID != projectID) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeFiles) MarkUploaded(_ context.Context, fileID, userID string, size *int64, at time.Time) (*models.File, error) {
	r, err := f.owned(fileID, userID)
	if err != nil {
		return nil, err
	}
	r.UploadStatus = models.UploadStatusUploaded
	if size != nil {
		r.FileSize = *size
	}
	r.UpdatedAt = at
	cp := *r
	return &cp, nil
}

func (f *fakeFiles) SetProcessingStatus(_ context.Context, fileID, userID, status string, at time.Time) error {
	r, err := f.owned(fileID, userID)
	if err != nil {
		return err
	}
	r.ProcessingStatus = status
	r.UpdatedAt = at
	return nil
}

func (f *fakeFiles) Delete(_ context.Context, fileID, userID string) (string, error) {
	r, err := f.owned(fileID, userID)
	if err != nil {
		return "", err
	}
	delete(f.rows, fileID)
	return r.StorageKey, nil
}

// --- pdf sessions ---

type fakePDFSessions struct {
	sessions      map[string]*models.PDFSession
	conversations []*models.Conversation
	saves         int
}

func (f *fakePDFSessions) Save(_ context.Context, s *models.PDFSession) error {
	f.saves++
	cp := *s
	f.sessions[s.ProcessingID] = &cp
	return nil
}

func (f *fakePDFSessions) Get(_ context.Context, processingID, userID string) (*models.PDFSession, error) {
	s, ok := f.sessions[processingID]
	if !ok || s.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakePDFSessions) AddConversation(_ context.Context, c *models.Conversation) error {
	c.ID = int64(len(f.conversations) + 1)
	cp := *c
	f.conversations = append(f.conversations, &cp)
	return nil
}

func (f *fakePDFSessions) ListConversations(_ context.Context, processingID string) ([]*models.Conversation, error) {
	out := make([]*models.Conversation, 0)
	for _, c := range f.conversations {
		if c.ProcessingID == processingID {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- object store ---

type fakeStore struct {
	baseURL string

	puts    map[string][]byte
	deletes []string
	presign []string

	presignErr error
	putErr     error
	deleteErr  error
}

func newFakeStore(baseURL string) *fakeStore {
	return &fakeStore{baseURL: baseURL, puts: map[string][]byte{}}
}

func (s *fakeStore) PresignPut(_ context.Context, key, contentType string, expiry time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.presign = append(s.presign, "PUT "+key+" "+contentType)
	return fmt.Sprintf("%s/%s?X-Amz-Expires=%d", s.baseURL, key, int64(expiry/time.Second)), nil
}

func (s *fakeStore) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	s.presign = append(s.presign, "GET "+key)
	return fmt.Sprintf("%s/%s?X-Amz-Expires=%d", s.baseURL, key, int64(expiry/time.Second)), nil
}

func (s *fakeStore) Put(_ context.Context, key, _ string, body []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.puts[key] = body
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return s.deleteErr
}

// --- helpers ---

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs() func() string {
	var n int64
	return func() string {
		return fmt.Sprintf("%08d-0000-4000-8000-000000000000", atomic.AddInt64(&n, 1))
	}
}

// serveBytes starts a server that answers every GET with body.
func serveBytes(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}
