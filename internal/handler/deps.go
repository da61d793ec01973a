// Package handler implements the HTTP endpoints of the API. Handlers depend
// on small store interfaces rather than concrete repositories so tests can
// substitute fakes without a database.
package handler

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/toshahriar/documenter/internal/docusign"
	"github.com/toshahriar/documenter/internal/model"
	"github.com/toshahriar/documenter/internal/queue"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
	MarkVerified(ctx context.Context, id string) error
	Update(ctx context.Context, u *model.User) error
}

type AuthTokenStore interface {
	Create(ctx context.Context, t *model.AuthToken) error
	FindValidRefresh(ctx context.Context, refreshToken, userID string) (*model.AuthToken, error)
	UpdateAccessToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error
	Revoke(ctx context.Context, token string, typ model.TokenType) error
}

type VerificationTokenStore interface {
	Create(ctx context.Context, userID string, typ model.VerificationTokenType, expiresAt time.Time) (*model.VerificationToken, error)
	FindValid(ctx context.Context, token string, typ model.VerificationTokenType, userID string) (*model.VerificationToken, error)
	Revoke(ctx context.Context, userID string, typ model.VerificationTokenType) error
}

type IntegrationStore interface {
	GetByUser(ctx context.Context, userID string) (*model.DocusignIntegration, error)
	Upsert(ctx context.Context, userID string, metadata model.JSON) error
}

type DocumentStore interface {
	CreateWithSigners(ctx context.Context, doc *model.Document, signers []model.DocumentSigner) error
	UpdateWithSigners(ctx context.Context, doc *model.Document, signers []model.DocumentSigner) error
	GetByIDAndOwner(ctx context.Context, id, userID string) (*model.Document, error)
	ListByOwner(ctx context.Context, userID, search string, status model.DocumentStatus) ([]model.Document, error)
	Analytics(ctx context.Context, userID string) (model.DocumentAnalytics, error)
	UpdateMetadata(ctx context.Context, id string, meta model.Metadata) error
	Delete(ctx context.Context, id string) error
	AppendActivity(ctx context.Context, documentID string, status model.DocumentStatus, message string) (*model.DocumentActivity, error)
}

// AttachmentStore abstracts the upload directory.
type AttachmentStore interface {
	Save(fh *multipart.FileHeader) (*model.Attachment, error)
	Base64(relPath string) (string, error)
	Delete(relPath string)
}

// EnvelopeSender is the signing-provider surface the handlers need.
type EnvelopeSender interface {
	AuthURL(redirectURI, state string) string
	SendEnvelope(ctx context.Context, doc *model.Document, docBase64 string) (*docusign.EnvelopeResult, error)
}

// EmailPublisher enqueues transactional email jobs for the consumer binary.
type EmailPublisher interface {
	PublishEmail(ctx context.Context, msg queue.EmailMessage) error
}
