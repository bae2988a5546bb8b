package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/studentms/internal/entity"
	"anoa.com/studentms/internal/modules/account/dto"
	"anoa.com/studentms/internal/modules/account/repository"
	provisioning "anoa.com/studentms/internal/modules/provisioning/service"
	student "anoa.com/studentms/internal/modules/student/service"
	"anoa.com/studentms/pkg/apperror"
	"anoa.com/studentms/pkg/database"
	commonDto "anoa.com/studentms/pkg/dto"
	"anoa.com/studentms/pkg/logger"
	"anoa.com/studentms/pkg/storage"
	"anoa.com/studentms/pkg/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid credentials", nil)

type AccountService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	CreateAccount(ctx context.Context, input dto.CreateAccountInput) (*entity.Account, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, input dto.UpdateAccountInput) (*entity.Account, error)
	ListAccounts(ctx context.Context, filter dto.AccountFilter) (*commonDto.Paginated[*entity.Account], error)
	GetAccount(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

type accountService struct {
	repo        repository.AccountRepository
	provisioner provisioning.Provisioner
	photos      storage.PhotoStorage
	tokens      TokenConfig
	now         func() time.Time
}

func NewAccountService(
	repo repository.AccountRepository,
	provisioner provisioning.Provisioner,
	photos storage.PhotoStorage,
	tokens TokenConfig,
) AccountService {
	if tokens.TTL <= 0 {
		tokens.TTL = time.Hour
	}
	return &accountService{
		repo:        repo,
		provisioner: provisioner,
		photos:      photos,
		tokens:      tokens,
		now:         time.Now,
	}
}

func (s *accountService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	account, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	if !account.IsActive {
		return nil, apperror.New(http.StatusForbidden, "account is disabled", apperror.ErrForbidden)
	}

	now := s.now()
	account.LastLoginAt = &now
	if err := s.repo.Save(ctx, account); err != nil {
		logger.Warn().Err(err).Str("account_id", account.ID.String()).Msg("failed to record last login")
	}

	token, expiresAt, err := s.generateToken(account)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		Account:     account,
	}, nil
}

func (s *accountService) generateToken(account *entity.Account) (string, int64, error) {
	now := s.now()
	expiresAt := now.Add(s.tokens.TTL)

	claims := jwt.RegisteredClaims{
		Subject:   account.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.tokens.Secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}

// CreateAccount stores the account and provisions its role profile in one
// transaction. A lost roll number race reruns the whole transaction once.
func (s *accountService) CreateAccount(ctx context.Context, input dto.CreateAccountInput) (*entity.Account, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	seed := provisioning.Seed{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Gender:    entity.Gender(input.Gender),
	}

	var account *entity.Account
	err = student.RetryRollNumber(ctx, func() error {
		return s.repo.Transaction(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := checkUnique(ctx, repo, input.Username, input.Email, uuid.Nil); err != nil {
				return err
			}

			candidate := &entity.Account{
				Username:     input.Username,
				Email:        input.Email,
				PasswordHash: string(hash),
				Role:         entity.Role(input.Role),
				IsActive:     true,
			}
			if err := repo.Create(ctx, candidate); err != nil {
				return err
			}
			if err := s.provisioner.Provision(ctx, tx, candidate, seed); err != nil {
				return err
			}

			account = candidate
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("account_id", account.ID.String()).
		Str("role", string(account.Role)).
		Msg("account created")
	return account, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, id uuid.UUID, input dto.UpdateAccountInput) (*entity.Account, error) {
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}

	var account *entity.Account
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return database.NotFound(err, "account")
		}

		if input.Role != nil && entity.Role(*input.Role) != current.Role {
			return apperror.Invalid("role", "cannot change once the %s profile exists", current.Role)
		}

		username, email := current.Username, current.Email
		if input.Username != nil {
			username = strings.TrimSpace(*input.Username)
		}
		if input.Email != nil {
			email = strings.ToLower(strings.TrimSpace(*input.Email))
		}
		if err := checkUnique(ctx, repo, username, email, current.ID); err != nil {
			return err
		}
		current.Username = username
		current.Email = email

		if input.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			current.PasswordHash = string(hash)
		}
		if input.IsActive != nil {
			current.IsActive = *input.IsActive
		}
		applyNames(current, input.FirstName, input.LastName)

		if err := repo.Save(ctx, current); err != nil {
			return err
		}
		if err := s.provisioner.Sync(ctx, tx, current); err != nil {
			return err
		}

		account = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, filter dto.AccountFilter) (*commonDto.Paginated[*entity.Account], error) {
	filter.Page = filter.Page.Normalize()

	accounts, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &commonDto.Paginated[*entity.Account]{
		Data: accounts,
		Meta: filter.Page.Meta(total),
	}, nil
}

func (s *accountService) GetAccount(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.NotFound(err, "account")
	}
	return account, nil
}

func (s *accountService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return database.NotFound(err, "account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return database.NotFound(err, "account")
	}

	logger.Info().Str("account_id", id.String()).Msg("account deleted")

	if url := photoOf(account); url != "" && s.photos != nil {
		if err := s.photos.DeletePhoto(ctx, url); err != nil {
			logger.Warn().Err(err).Str("url", url).Msg("failed to delete profile photo")
		}
	}
	return nil
}

func checkUnique(ctx context.Context, repo repository.AccountRepository, username, email string, exceptID uuid.UUID) error {
	taken, err := repo.UsernameTaken(ctx, username, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Invalid("username", "already taken")
	}

	taken, err = repo.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Invalid("email", "already registered")
	}
	return nil
}

// applyNames copies name edits onto the loaded profile; Sync persists them.
func applyNames(account *entity.Account, firstName, lastName *string) {
	set := func(dst *string, src *string) {
		if src != nil && strings.TrimSpace(*src) != "" {
			*dst = strings.TrimSpace(*src)
		}
	}
	switch {
	case account.Staff != nil:
		set(&account.Staff.FirstName, firstName)
		set(&account.Staff.LastName, lastName)
	case account.Student != nil:
		set(&account.Student.FirstName, firstName)
		set(&account.Student.LastName, lastName)
	}
}

func photoOf(account *entity.Account) string {
	switch {
	case account.Staff != nil && account.Staff.PhotoURL != nil:
		return *account.Staff.PhotoURL
	case account.Student != nil && account.Student.PhotoURL != nil:
		return *account.Student.PhotoURL
	}
	return ""
}
