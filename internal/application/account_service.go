package application

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/mailer"
	mailtpl "github.com/oksasatya/go-account-service/pkg/mailer/templates"
	"github.com/oksasatya/go-account-service/pkg/transcoder"
)

type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenIssuer interface {
	Issue(accountID string) (string, error)
	Decode(token string) (string, error)
}

type Transcoder interface {
	Transcode(raw []byte) (transcoder.Result, error)
}

// AvatarStore persists the three variants of one upload as a set and returns
// their relative references.
type AvatarStore interface {
	Store(ctx context.Context, accountID string, res transcoder.Result) (entity.Avatar, error)
}

// Mailer accepts jobs without blocking; delivery happens elsewhere.
type Mailer interface {
	Enqueue(job mailer.EmailJob) error
}

type Indexer interface {
	Index(ctx context.Context, v entity.AccountView) error
	Search(ctx context.Context, q string, size int) ([]entity.AccountView, error)
}

// Deps are the collaborators of Service. Mailer and Indexer are optional.
type Deps struct {
	Accounts   repo.AccountRepository
	Sessions   repo.SessionRepository
	Hasher     Hasher
	Tokens     TokenIssuer
	Transcoder Transcoder
	Avatars    AvatarStore
	Mailer     Mailer
	Indexer    Indexer
	Logger     *logrus.Logger

	// VerifyURL is the base of the link mailed after registration; the token is appended as a path segment.
	VerifyURL string
	Brand     mailtpl.Brand
}

type Service struct {
	Deps

	dummyOnce sync.Once
	dummyHash string
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = helpers.NewDiscardLogger()
	}
	return &Service{Deps: d}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

type LoginResult struct {
	Account entity.AccountView `json:"account"`
	Token   string             `json:"token"`
}

// AvatarUpload is an image as received from the client.
type AvatarUpload struct {
	ContentType string
	Data        []byte
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func digestMatches(stored, token string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(tokenDigest(token))) == 1
}

// Register creates a pending account and returns its verification token.
// The verification email is queued; a queueing failure is only logged.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	email := NormalizeEmail(in.Email)
	if _, err := s.Accounts.GetByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return "", fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	a := &entity.Account{
		Email:        email,
		PasswordHash: hash,
		Name:         in.Name,
		Status:       entity.StatusPending,
	}
	if err := s.Accounts.Create(ctx, a); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("create account: %w", err)
	}

	token, err := s.startSession(ctx, a.ID, entity.PurposeVerification)
	if err != nil {
		// An account without a verification session can never be activated.
		if derr := s.Accounts.Delete(context.WithoutCancel(ctx), a.ID); derr != nil {
			s.Logger.WithError(derr).WithField("account_id", a.ID).Error("remove unverifiable account failed")
		}
		return "", err
	}
	s.Logger.WithField("account_id", a.ID).Info("account registered")
	s.sendVerification(a, token)
	return token, nil
}

func (s *Service) sendVerification(a *entity.Account, token string) {
	if s.Mailer == nil {
		return
	}
	name := ""
	if a.Name != nil {
		name = *a.Name
	}
	link := strings.TrimRight(s.VerifyURL, "/") + "/" + url.PathEscape(token)
	job := mailer.EmailJob{
		To:       a.Email,
		Template: mailtpl.VerifyEmail,
		Data:     mailtpl.NewVerifyEmailData(s.Brand, name, a.Email, link, mailtpl.WithTime(time.Now())),
	}
	if err := s.Mailer.Enqueue(job); err != nil {
		s.Logger.WithError(err).WithField("account_id", a.ID).Warn("verification email not queued")
	}
}

// Verify activates the account bound to token. The token must still be the
// account's current session token.
func (s *Service) Verify(ctx context.Context, token string) error {
	id, err := s.Tokens.Decode(token)
	if err != nil {
		return ErrInvalidLink
	}
	a, err := s.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidLink
		}
		return err
	}
	sess, err := s.Sessions.Get(ctx, a.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidLink
		}
		return err
	}
	if !digestMatches(sess.TokenHash, token) {
		return ErrInvalidLink
	}

	updated, err := s.Accounts.Update(ctx, a.ID, repo.AccountPatch{Status: repo.Some(entity.StatusActive)})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidLink
		}
		return err
	}
	s.index(ctx, updated)
	return nil
}

// Login checks credentials and replaces any previous session of the account.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	a, err := s.Accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		// same work as a real comparison so unknown emails cost the same
		s.Hasher.Verify(password, s.placeholderHash())
		return nil, ErrInvalidCredentials
	}
	if !s.Hasher.Verify(password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !a.IsActive() {
		return nil, ErrEmailNotVerified
	}

	token, err := s.startSession(ctx, a.ID, entity.PurposeLogin)
	if err != nil {
		return nil, err
	}
	s.Logger.WithField("account_id", a.ID).Info("login")
	return &LoginResult{Account: a.View(), Token: token}, nil
}

func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.Hash("placeholder-password")
		if err != nil {
			s.Logger.WithError(err).Warn("placeholder hash failed")
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *Service) startSession(ctx context.Context, accountID string, purpose entity.SessionPurpose) (string, error) {
	token, err := s.Tokens.Issue(accountID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	sess := &entity.Session{
		AccountID: accountID,
		TokenHash: tokenDigest(token),
		Purpose:   purpose,
		IssuedAt:  time.Now().UTC(),
	}
	if err := s.Sessions.Put(ctx, sess); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Logout drops the account's session.
func (s *Service) Logout(ctx context.Context, accountID string) error {
	if _, err := s.Accounts.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if err := s.Sessions.Invalidate(ctx, accountID); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	s.Logger.WithField("account_id", accountID).Info("logout")
	return nil
}

// Refresh re-reads the account projection.
func (s *Service) Refresh(ctx context.Context, accountID string) (entity.AccountView, error) {
	a, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return entity.AccountView{}, ErrAccountUnavailable
		}
		return entity.AccountView{}, err
	}
	return a.View(), nil
}

// Update applies the profile fields of patch and, when upload is set, replaces
// the avatar. Status and avatar fields in patch are ignored.
func (s *Service) Update(ctx context.Context, accountID string, patch repo.AccountPatch, upload *AvatarUpload) (entity.AccountView, error) {
	patch.Status = repo.Field[entity.AccountStatus]{}
	patch.Avatar = repo.Field[*entity.Avatar]{}
	if patch.IsEmpty() && upload == nil {
		return entity.AccountView{}, ErrEmptyUpdate
	}
	if _, err := s.Accounts.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return entity.AccountView{}, ErrAccountNotFound
		}
		return entity.AccountView{}, err
	}

	if upload != nil {
		avatar, err := s.ingestAvatar(ctx, accountID, upload)
		if err != nil {
			return entity.AccountView{}, err
		}
		patch.Avatar = repo.Some(&avatar)
	}

	a, err := s.Accounts.Update(ctx, accountID, patch)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return entity.AccountView{}, ErrAccountNotFound
		}
		return entity.AccountView{}, err
	}
	s.index(ctx, a)
	return a.View(), nil
}

// Authenticate resolves a bearer token to its account. Only login sessions
// authenticate; a verification token does not.
func (s *Service) Authenticate(ctx context.Context, token string) (*entity.Account, error) {
	id, err := s.Tokens.Decode(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	a, err := s.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	sess, err := s.Sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	if sess.Purpose != entity.PurposeLogin || !digestMatches(sess.TokenHash, token) {
		return nil, ErrSessionInvalid
	}
	return a, nil
}

// Search queries the account index. Without an indexer it returns no hits.
func (s *Service) Search(ctx context.Context, q string, size int) ([]entity.AccountView, error) {
	if s.Indexer == nil {
		return []entity.AccountView{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	return s.Indexer.Search(ctx, q, size)
}

func (s *Service) index(ctx context.Context, a *entity.Account) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.Index(ctx, a.View()); err != nil {
		s.Logger.WithError(err).WithField("account_id", a.ID).Warn("es index failed")
	}
}
