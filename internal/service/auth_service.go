package service

import (
	"context"
	"fmt"
	"time"

	"bank-service/internal/core/domain"
	"bank-service/internal/core/ports"
	"bank-service/pkg/apperror"

	"github.com/google/uuid"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	holderRepo ports.HolderRepository
	registry   ports.AccountRegistry
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	holderRepo ports.HolderRepository,
	registry ports.AccountRegistry,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		holderRepo: holderRepo,
		registry:   registry,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
	}
}

// Signup registers an account holder together with their initial accounts.
func (s *AuthServiceImpl) Signup(ctx context.Context, req ports.SignupRequest) (*ports.SignupResponse, error) {
	existing, err := s.holderRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	// Validate every requested account before creating anything.
	for _, spec := range req.Accounts {
		if _, ok := domain.ParseAccountType(spec.Type); !ok {
			return nil, apperror.Validation(fmt.Sprintf("unknown account type %q", spec.Type))
		}
		if spec.InitialBalance.IsNegative() {
			return nil, apperror.Validation("initial balance must not be negative")
		}
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	holder := &domain.AccountHolder{
		ID:           uuid.New(),
		Name:         req.Name,
		Username:     req.Username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.holderRepo.Create(ctx, holder); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create holder: %w", err))
	}

	accounts := make([]domain.Account, 0, len(req.Accounts))
	for _, spec := range req.Accounts {
		account, err := s.registry.Create(ctx, ports.CreateAccountRequest{
			HolderID:       holder.ID,
			Type:           spec.Type,
			InitialBalance: spec.InitialBalance,
			Primary:        spec.Primary,
		})
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}

	return &ports.SignupResponse{
		Holder:   holder,
		Accounts: accounts,
	}, nil
}

// Login validates credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	holder, err := s.holderRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find holder: %w", err))
	}
	if holder == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, holder.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(holder.ID, holder.Username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}
