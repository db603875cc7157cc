// Package services contains server-side business logic. UserService
// registers users, checks their passwords, issues access tokens and
// authenticates the tokens presented on later requests.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/common"
	"github.com/dmitrijs2005/bellwether/internal/dbx"
	"github.com/dmitrijs2005/bellwether/internal/logging"
	"github.com/dmitrijs2005/bellwether/internal/server/auth"
	"github.com/dmitrijs2005/bellwether/internal/server/credentials"
	"github.com/dmitrijs2005/bellwether/internal/server/models"
	"github.com/dmitrijs2005/bellwether/internal/server/repositories/repomanager"
)

// MaxUserNameLen bounds the username accepted by Register.
const MaxUserNameLen = 64

// UserService provides authentication-related operations:
//   - Register: create users with a salted password hash
//   - Login: verify credentials and issue an access token
//   - ChangePassword: replace salt and hash after re-checking the current password
//   - Authenticate: validate a presented token
//   - GetUser, Seed
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	credentials *credentials.Service
	issuer      *auth.IssuancePolicy
	validator   *auth.ValidationPolicy
	key         auth.SigningKey
	logger      logging.Logger
	now         func() time.Time

	dummyMu   sync.Mutex
	dummySalt string
	dummyHash string
}

// NewUserService wires the service to its store and the token core.
func NewUserService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	creds *credentials.Service,
	issuer *auth.IssuancePolicy,
	validator *auth.ValidationPolicy,
	key auth.SigningKey,
	logger logging.Logger,
) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		credentials: creds,
		issuer:      issuer,
		validator:   validator,
		key:         key,
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates a user whose password is stored as a fresh salt and the
// hash derived from it. A taken username yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, userName, password string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || len(userName) > MaxUserNameLen {
		return nil, fmt.Errorf("%w: username must be 1..%d bytes", common.ErrInvalidArgument, MaxUserNameLen)
	}

	salt := s.credentials.GenerateSalt()
	hash, err := s.credentials.HashPassword(ctx, password, salt)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash, Salt: salt})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks password against the stored credential and, on success,
// issues a token for the user. Unknown users and wrong passwords both yield
// common.ErrorUnauthorized after comparable work.
func (s *UserService) Login(ctx context.Context, userName, password string) (*auth.IssuedToken, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByLogin(ctx, strings.TrimSpace(userName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnHash(ctx, password)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if err := s.checkPassword(ctx, password, user); err != nil {
		return nil, err
	}

	token, err := s.issuer.IssueFor(s.key, s.now(), user.ID)
	if err != nil {
		s.logger.Error(ctx, "token issuance failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID, "jti", token.ID)
	return token, nil
}

// ChangePassword replaces the user's salt and hash. The row stays locked
// from the current-password check until the new credential is written.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.LockUserByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := s.checkPassword(ctx, currentPassword, user); err != nil {
			return err
		}

		salt := s.credentials.GenerateSalt()
		hash, err := s.credentials.HashPassword(ctx, newPassword, salt)
		if err != nil {
			return err
		}

		return repo.UpdateCredential(ctx, user.ID, hash, salt)
	})
	if err != nil {
		return fmt.Errorf("error changing password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// Authenticate validates a presented token against the current time. The
// specific reason is logged at debug level; callers should answer with a
// single generic rejection.
func (s *UserService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.validator.Validate(token, s.now())
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "reason", err)
		return nil, err
	}
	return claims, nil
}

// GetUser returns the user with id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	u, err := repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return u, nil
}

// Seed creates userName with password unless it already exists. An empty
// userName disables seeding.
func (s *UserService) Seed(ctx context.Context, userName, password string) error {
	if userName == "" {
		return nil
	}

	repo := s.repomanager.Users(s.db)
	_, err := repo.GetUserByLogin(ctx, userName)
	switch {
	case err == nil:
		s.logger.Debug(ctx, "seed user present", "username", userName)
		return nil
	case !errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("error looking up seed user: %w", err)
	}

	if _, err := s.Register(ctx, userName, password); err != nil {
		// another instance seeded concurrently
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}

// checkPassword maps every failure except context cancellation to
// common.ErrorUnauthorized.
func (s *UserService) checkPassword(ctx context.Context, password string, user *models.User) error {
	ok, err := s.credentials.IsCorrect(ctx, password, user.PasswordHash, user.Salt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return common.ErrorUnauthorized
	}
	if !ok {
		s.logger.Debug(ctx, "password mismatch", "user_id", user.ID)
		return common.ErrorUnauthorized
	}
	return nil
}

// burnHash spends one hash computation so an unknown username costs as much
// as a wrong password.
func (s *UserService) burnHash(ctx context.Context, password string) {
	salt, hash := s.dummyCredential(ctx)
	if password == "" || hash == "" {
		return
	}
	_, _ = s.credentials.IsCorrect(ctx, password, hash, salt)
}

// dummyCredential lazily builds the credential burnHash compares against.
// A failed attempt is retried on the next call.
func (s *UserService) dummyCredential(ctx context.Context) (string, string) {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash == "" {
		salt := s.credentials.GenerateSalt()
		hash, err := s.credentials.HashPassword(ctx, "dummy-password", salt)
		if err != nil {
			return "", ""
		}
		s.dummySalt, s.dummyHash = salt, hash
	}
	return s.dummySalt, s.dummyHash
}
