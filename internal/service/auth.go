package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/auth"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/repository"
)

const MaxNameLength = 100

// AuthService registers accounts and exchanges credentials for tokens.
//
//	AuthHandler (HTTP) -> AuthService -> AccountRepository (DB)
//	                                  -> TokenService (JWT)
type AuthService struct {
	accounts  repository.AccountRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    zerolog.Logger
}

func NewAuthService(
	accounts repository.AccountRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the account and its freshly issued token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	Account *model.Account `json:"account"`
	Token   string         `json:"token"`
}

// Register creates an account of the given kind. A taken email is a
// Conflict.
func (s *AuthService) Register(ctx context.Context, email, password, name, kind string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < auth.MinPasswordLength || len(password) > auth.MaxPasswordLength {
		return nil, apperror.ValidationFailed("password", "password must be between 8 and 72 bytes")
	}
	name = strings.TrimSpace(name)
	if len([]rune(name)) > MaxNameLength {
		return nil, apperror.ValidationFailed("name", "name must be 100 characters or fewer")
	}
	ownerKind := model.OwnerKind(strings.ToLower(strings.TrimSpace(kind)))
	if ownerKind == "" {
		ownerKind = model.OwnerStudent
	}
	if !ownerKind.Valid() {
		return nil, apperror.ValidationFailed("kind", "kind must be student or counselor")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	account := &model.Account{
		Email:        email,
		Name:         name,
		Kind:         ownerKind,
		PasswordHash: hash,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, storeErr("creating account", err)
	}

	s.logger.Info().Str("owner", account.Owner().String()).Msg("account registered")
	return s.issue(account)
}

// Login checks credentials. Unknown emails and wrong passwords produce the
// same Unauthorized error; deactivated accounts are Forbidden.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("invalid email or password")

	account, err := s.accounts.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, storeErr("loading account", err)
	}

	if err := s.passwords.Verify(account.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error().Err(err).Str("accountID", account.ID).Msg("stored password hash is unreadable")
		}
		return nil, invalid
	}
	if !account.IsActive {
		return nil, apperror.Forbidden("this account has been deactivated")
	}

	s.logger.Info().Str("owner", account.Owner().String()).Msg("account logged in")
	return s.issue(account)
}

// Me resolves the authenticated owner to its account record.
func (s *AuthService) Me(ctx context.Context, owner model.Owner) (*model.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, owner.ID)
	if err != nil {
		return nil, storeErr("loading account", err)
	}
	if account.Kind != owner.Kind {
		return nil, apperror.NotFound("account", owner.ID)
	}
	return account, nil
}

// Deactivate closes the caller's own account. Mood entries are kept; the
// account simply stops authenticating.
func (s *AuthService) Deactivate(ctx context.Context, owner model.Owner) error {
	if _, err := s.Me(ctx, owner); err != nil {
		return err
	}
	if err := s.accounts.SetAccountActive(ctx, owner.ID, false); err != nil {
		return storeErr("deactivating account", err)
	}
	s.logger.Info().Str("owner", owner.String()).Msg("account deactivated")
	return nil
}

func (s *AuthService) issue(account *model.Account) (*AuthResult, error) {
	token, err := s.tokens.Generate(account.Owner())
	if err != nil {
		return nil, apperror.StoreFailure("issuing token", err)
	}
	return &AuthResult{Account: account, Token: token}, nil
}
