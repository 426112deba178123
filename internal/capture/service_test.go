package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/lab-booking-backend/internal/rbac"
	"github.com/nekogravitycat/lab-booking-backend/internal/session"
)

type fakeRepository struct {
	captures map[string]*Capture
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{captures: make(map[string]*Capture)}
}

func (r *fakeRepository) Create(ctx context.Context, c *Capture) error {
	copied := *c
	r.captures[c.ID] = &copied
	return nil
}

func (r *fakeRepository) GetByID(ctx context.Context, id string) (*Capture, error) {
	c, ok := r.captures[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeRepository) ListBySession(ctx context.Context, sessionID string) ([]*Capture, error) {
	var out []*Capture
	for _, c := range r.captures {
		if c.SessionID == sessionID {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRepository) Delete(ctx context.Context, id string) error {
	if _, ok := r.captures[id]; !ok {
		return ErrNotFound
	}
	delete(r.captures, id)
	return nil
}

// fakeSessionLookup mirrors the read-visibility check of the session
// service: Students only resolve their own sessions.
type fakeSessionLookup struct {
	sessions map[string]*session.Session
}

func (l *fakeSessionLookup) GetByID(ctx context.Context, p rbac.Principal, id string) (*session.Session, error) {
	s, ok := l.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	if !rbac.Can(p, rbac.OpRead, s.UserID) {
		return nil, session.ErrPermissionDenied
	}
	copied := *s
	return &copied, nil
}

// fakeStorage keeps saved blobs in memory.
type fakeStorage struct {
	files map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: make(map[string][]byte)}
}

func (s *fakeStorage) Save(ctx context.Context, path string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	s.files[path] = data
	return nil
}

func (s *fakeStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(ctx context.Context, path string) error {
	delete(s.files, path)
	return nil
}

var (
	studentOne = rbac.Principal{UserID: "student-1", Role: rbac.RoleStudent}
	studentTwo = rbac.Principal{UserID: "student-2", Role: rbac.RoleStudent}
	teacherOne = rbac.Principal{UserID: "teacher-1", Role: rbac.RoleTeacher}
)

func newTestService(sessions ...*session.Session) (Service, *fakeRepository, *fakeStorage) {
	lookup := &fakeSessionLookup{sessions: make(map[string]*session.Session)}
	for _, s := range sessions {
		lookup.sessions[s.ID] = s
	}
	repo := newFakeRepository()
	store := newFakeStorage()
	return NewService(repo, lookup, store), repo, store
}

func activeSession(id, userID string) *session.Session {
	return &session.Session{
		ID:          id,
		UserID:      userID,
		EquipmentID: "laser-1",
		Status:      session.StatusActive,
		StartedAt:   time.Now(),
	}
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 80, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fileHeader builds a real multipart.FileHeader by writing and re-parsing
// a form, the same shape gin hands the service.
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}

func TestUploadToOwnActiveSession(t *testing.T) {
	svc, repo, store := newTestService(activeSession("sess-1", studentOne.UserID))
	ctx := context.Background()

	c, err := svc.Upload(ctx, studentOne, "sess-1", fileHeader(t, "readout.png", "image/png", pngBytes(t, 320, 240)))
	require.NoError(t, err)

	assert.Equal(t, "sess-1", c.SessionID)
	assert.Equal(t, studentOne.UserID, c.UploaderID)
	require.NotNil(t, c.Width)
	require.NotNil(t, c.Height)
	assert.Equal(t, 320, *c.Width)
	assert.Equal(t, 240, *c.Height)
	require.NotNil(t, c.ThumbnailPath)

	_, ok := store.files[c.StoragePath]
	assert.True(t, ok, "original image should be in storage")
	_, ok = store.files[*c.ThumbnailPath]
	assert.True(t, ok, "thumbnail should be in storage")
	_, err = repo.GetByID(ctx, c.ID)
	assert.NoError(t, err)
}

func TestUploadToEndedSessionRejected(t *testing.T) {
	ended := activeSession("sess-1", studentOne.UserID)
	ended.Status = session.StatusCompleted
	now := time.Now()
	ended.EndedAt = &now

	svc, repo, store := newTestService(ended)
	ctx := context.Background()

	_, err := svc.Upload(ctx, studentOne, "sess-1", fileHeader(t, "readout.png", "image/png", pngBytes(t, 16, 16)))
	assert.ErrorIs(t, err, ErrSessionNotActive)
	assert.Empty(t, repo.captures, "no record should be written")
	assert.Empty(t, store.files, "nothing should reach storage")
}

func TestUploadToAbortedSessionRejected(t *testing.T) {
	aborted := activeSession("sess-1", studentOne.UserID)
	aborted.Status = session.StatusAborted

	svc, _, _ := newTestService(aborted)

	_, err := svc.Upload(context.Background(), studentOne, "sess-1", fileHeader(t, "readout.png", "image/png", pngBytes(t, 16, 16)))
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestUploadPermissions(t *testing.T) {
	svc, _, _ := newTestService(activeSession("sess-1", studentOne.UserID))
	ctx := context.Background()

	// A foreign student cannot even see the session.
	_, err := svc.Upload(ctx, studentTwo, "sess-1", fileHeader(t, "readout.png", "image/png", pngBytes(t, 16, 16)))
	assert.ErrorIs(t, err, session.ErrPermissionDenied)

	// Supervisory roles may attach captures to any active session.
	c, err := svc.Upload(ctx, teacherOne, "sess-1", fileHeader(t, "readout.png", "image/png", pngBytes(t, 16, 16)))
	require.NoError(t, err)
	assert.Equal(t, teacherOne.UserID, c.UploaderID)
}

func TestUploadRejectsNonImage(t *testing.T) {
	svc, _, _ := newTestService(activeSession("sess-1", studentOne.UserID))

	_, err := svc.Upload(context.Background(), studentOne, "sess-1", fileHeader(t, "notes.txt", "text/plain", []byte("just text")))
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc, _, _ := newTestService(activeSession("sess-1", studentOne.UserID))

	big := make([]byte, maxUploadBytes+1)
	_, err := svc.Upload(context.Background(), studentOne, "sess-1", fileHeader(t, "huge.png", "image/png", big))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
