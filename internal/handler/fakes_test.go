package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"

	"github.com/toshahriar/documenter/internal/docusign"
	"github.com/toshahriar/documenter/internal/model"
	"github.com/toshahriar/documenter/internal/queue"
	"github.com/toshahriar/documenter/internal/repository"
)

type fakeUsers struct {
	byID map[string]*model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*model.User{}}
}

func (f *fakeUsers) add(u model.User) *model.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := u
	f.byID[u.ID] = &cp
	return &cp
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
		if existing.Username == u.Username {
			return repository.ErrUsernameExists
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == identifier || u.Username == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	for id, u := range f.byID {
		if id != excludeID && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) UsernameTaken(_ context.Context, username, excludeID string) (bool, error) {
	for id, u := range f.byID {
		if id != excludeID && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) MarkVerified(_ context.Context, id string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	stored, ok := f.byID[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range f.byID {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return repository.ErrEmailExists
		}
		if other.Username == u.Username {
			return repository.ErrUsernameExists
		}
	}
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.Username = u.Username
	stored.Email = u.Email
	if u.PasswordHash != "" {
		stored.PasswordHash = u.PasswordHash
	}
	return nil
}

type fakeSessions struct {
	rows    []*model.AuthToken
	revoked []string
}

func (f *fakeSessions) Create(_ context.Context, t *model.AuthToken) error {
	t.ID = uuid.NewString()
	cp := *t
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeSessions) FindValidRefresh(_ context.Context, refreshToken, userID string) (*model.AuthToken, error) {
	for _, row := range f.rows {
		if row.RefreshToken != refreshToken || row.IsRevoked {
			continue
		}
		if userID != "" && row.UserID != userID {
			continue
		}
		if row.RefreshTokenExpiresAt.Before(time.Now()) {
			continue
		}
		cp := *row
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSessions) UpdateAccessToken(_ context.Context, id, accessToken string, expiresAt time.Time) error {
	for _, row := range f.rows {
		if row.ID == id {
			row.AccessToken = accessToken
			row.AccessTokenExpiresAt = expiresAt
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeSessions) Revoke(_ context.Context, token string, typ model.TokenType) error {
	f.revoked = append(f.revoked, token)
	for _, row := range f.rows {
		if (typ == model.TokenTypeAccess && row.AccessToken == token) ||
			(typ == model.TokenTypeRefresh && row.RefreshToken == token) {
			row.IsRevoked = true
		}
	}
	return nil
}

type fakeVerifications struct {
	rows []*model.VerificationToken
}

func (f *fakeVerifications) Create(_ context.Context, userID string, typ model.VerificationTokenType, expiresAt time.Time) (*model.VerificationToken, error) {
	t := &model.VerificationToken{
		ID:        uuid.NewString(),
		Token:     uuid.NewString(),
		Type:      typ,
		ExpiresAt: expiresAt,
		UserID:    userID,
	}
	f.rows = append(f.rows, t)
	return t, nil
}

func (f *fakeVerifications) FindValid(_ context.Context, token string, typ model.VerificationTokenType, userID string) (*model.VerificationToken, error) {
	for _, row := range f.rows {
		if row.Token == token && row.Type == typ && row.UserID == userID &&
			!row.IsRevoked && row.ExpiresAt.After(time.Now()) {
			return row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeVerifications) Revoke(_ context.Context, userID string, typ model.VerificationTokenType) error {
	for _, row := range f.rows {
		if row.UserID == userID && row.Type == typ {
			row.IsRevoked = true
		}
	}
	return nil
}

type fakeIntegrations struct {
	byUser map[string]*model.DocusignIntegration
}

func newFakeIntegrations() *fakeIntegrations {
	return &fakeIntegrations{byUser: map[string]*model.DocusignIntegration{}}
}

func (f *fakeIntegrations) GetByUser(_ context.Context, userID string) (*model.DocusignIntegration, error) {
	if i, ok := f.byUser[userID]; ok {
		return i, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeIntegrations) Upsert(_ context.Context, userID string, metadata model.JSON) error {
	f.byUser[userID] = &model.DocusignIntegration{
		ID:       uuid.NewString(),
		Metadata: metadata,
		UserID:   userID,
	}
	return nil
}

type fakeDocs struct {
	byID       map[string]*model.Document
	metadata   map[string]model.Metadata
	activities []model.DocumentActivity
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{byID: map[string]*model.Document{}, metadata: map[string]model.Metadata{}}
}

func (f *fakeDocs) add(d model.Document) *model.Document {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	cp := d
	f.byID[d.ID] = &cp
	return &cp
}

func (f *fakeDocs) CreateWithSigners(_ context.Context, doc *model.Document, signers []model.DocumentSigner) error {
	doc.ID = uuid.NewString()
	if doc.Metadata.Status == "" {
		doc.Metadata.Status = model.StatusCreated
	}
	doc.Signers = append([]model.DocumentSigner(nil), signers...)
	doc.Activities = []model.DocumentActivity{{
		ID:         uuid.NewString(),
		Status:     doc.Metadata.Status,
		Metadata:   model.JSON{"message": fmt.Sprintf("Document created with %d signers", len(signers))},
		DocumentID: doc.ID,
	}}
	cp := *doc
	f.byID[doc.ID] = &cp
	return nil
}

func (f *fakeDocs) UpdateWithSigners(_ context.Context, doc *model.Document, signers []model.DocumentSigner) error {
	stored, ok := f.byID[doc.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Title = doc.Title
	stored.Metadata = doc.Metadata
	stored.Signers = append([]model.DocumentSigner(nil), signers...)
	doc.Signers = stored.Signers
	return nil
}

func (f *fakeDocs) GetByIDAndOwner(_ context.Context, id, userID string) (*model.Document, error) {
	d, ok := f.byID[id]
	if !ok || d.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocs) ListByOwner(_ context.Context, userID, search string, status model.DocumentStatus) ([]model.Document, error) {
	var out []model.Document
	for _, d := range f.byID {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocs) Analytics(_ context.Context, userID string) (model.DocumentAnalytics, error) {
	a := model.DocumentAnalytics{}
	for _, d := range f.byID {
		if d.UserID != userID {
			continue
		}
		a.Total++
		if d.Metadata.Status == model.StatusSent {
			a.TotalSent++
		}
	}
	return a, nil
}

func (f *fakeDocs) UpdateMetadata(_ context.Context, id string, meta model.Metadata) error {
	d, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Metadata = meta
	f.metadata[id] = meta
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeDocs) AppendActivity(_ context.Context, documentID string, status model.DocumentStatus, message string) (*model.DocumentActivity, error) {
	a := model.DocumentActivity{
		ID:         uuid.NewString(),
		Status:     status,
		Metadata:   model.JSON{"message": message},
		DocumentID: documentID,
	}
	f.activities = append(f.activities, a)
	return &a, nil
}

type fakeFiles struct {
	saved   []*model.Attachment
	deleted []string
	content map[string]string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{content: map[string]string{}}
}

func (f *fakeFiles) Save(fh *multipart.FileHeader) (*model.Attachment, error) {
	att := &model.Attachment{
		FileName: fh.Filename,
		FilePath: "uploads/" + fh.Filename,
		FileSize: fmt.Sprint(fh.Size),
		FileExt:  "pdf",
	}
	f.saved = append(f.saved, att)
	return att, nil
}

func (f *fakeFiles) Base64(relPath string) (string, error) {
	if v, ok := f.content[relPath]; ok {
		return v, nil
	}
	return "ZmFrZQ==", nil
}

func (f *fakeFiles) Delete(relPath string) {
	f.deleted = append(f.deleted, relPath)
}

type fakeSigner struct {
	err      error
	lastDoc  *model.Document
	lastB64  string
	result   *docusign.EnvelopeResult
	authBase string
}

func (f *fakeSigner) AuthURL(redirectURI, state string) string {
	return f.authBase + "?redirect_uri=" + redirectURI + "&state=" + state
}

func (f *fakeSigner) SendEnvelope(_ context.Context, doc *model.Document, docBase64 string) (*docusign.EnvelopeResult, error) {
	f.lastDoc = doc
	f.lastB64 = docBase64
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &docusign.EnvelopeResult{EnvelopeID: "env-1", Status: "sent", StatusDateTime: "2024-12-02T12:30:45Z"}, nil
}

type fakeEmails struct {
	sent []queue.EmailMessage
	err  error
}

func (f *fakeEmails) PublishEmail(_ context.Context, msg queue.EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var errProvider = errors.New("provider unavailable")
