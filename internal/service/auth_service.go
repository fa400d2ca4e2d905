package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"arcade-auth/internal/domain"
	"arcade-auth/internal/github"
	"arcade-auth/internal/repository"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidCode  = errors.New("invalid authorization code")
	ErrInvalidEmail = errors.New("invalid email")
)

// Políticas de selección de email del proveedor.
const (
	// EmailPolicyPrimaryVerified prefiere el email primario y verificado.
	EmailPolicyPrimaryVerified = "primary_verified"
	// EmailPolicyFirst toma el primer elemento tal cual lo ordena el proveedor.
	EmailPolicyFirst = "first"
)

// DeriveIdentityHash calcula el digest SHA-256 en hex del access token.
// Determinístico y de un solo sentido; cambia en cada login porque el
// token cambia, el email es la clave estable.
func DeriveIdentityHash(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])
}

// AuthService coordina el pipeline de login: canje de código, perfil,
// hash de identidad y reconciliación contra el store.
type AuthService struct {
	logger      *zap.Logger
	github      github.Client
	users       repository.UserRepository
	hashIndex   HashIndex
	emailPolicy string
}

func NewAuthService(logger *zap.Logger, gh github.Client, users repository.UserRepository, hashIndex HashIndex, emailPolicy string) *AuthService {
	if hashIndex == nil {
		hashIndex = NewMemoryHashIndex(24 * time.Hour)
	}
	if emailPolicy == "" {
		emailPolicy = EmailPolicyPrimaryVerified
	}
	return &AuthService{
		logger:      logger,
		github:      gh,
		users:       users,
		hashIndex:   hashIndex,
		emailPolicy: emailPolicy,
	}
}

// LoginByCode ejecuta el flujo completo de login. Cualquier etapa que
// falle aborta el resto, sin commits parciales ni reintentos internos.
//
// Usuario existente: se refresca el hash y se persiste vía Replace para
// que el resume por hash siga funcionando. Usuario nuevo: el registro se
// devuelve sin persistir, la creación es la operación explícita SaveUser.
func (s *AuthService) LoginByCode(ctx context.Context, code string) (domain.UserRecord, error) {
	if s.users == nil || s.github == nil {
		return domain.UserRecord{}, errors.New("auth service not configured")
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return domain.UserRecord{}, ErrInvalidCode
	}

	token, err := s.github.ExchangeCode(ctx, code)
	if err != nil {
		return domain.UserRecord{}, err
	}

	emails, err := s.github.FetchEmails(ctx, token)
	if err != nil {
		return domain.UserRecord{}, err
	}

	profile, err := pickEmail(emails, s.emailPolicy)
	if err != nil {
		return domain.UserRecord{}, err
	}

	hash := DeriveIdentityHash(token)

	existing, err := s.users.GetByEmail(ctx, profile.Email)
	if err == nil {
		// Perfil y progreso almacenados se conservan, solo cambia el hash.
		existing.IdentityHash = hash
		if err := s.users.Replace(ctx, existing); err != nil {
			return domain.UserRecord{}, err
		}
		s.rememberHash(hash, existing.Profile.Email)
		if s.logger != nil {
			s.logger.Info("login existing user", zap.String("email", existing.Profile.Email))
		}
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.UserRecord{}, err
	}

	record := domain.UserRecord{
		ID:           uuid.NewString(),
		IdentityHash: hash,
		Profile:      profile,
		Progress:     domain.EmptyProgress(),
		CreatedAt:    time.Now().UTC(),
	}
	if s.logger != nil {
		s.logger.Info("login new user", zap.String("email", profile.Email))
	}
	return record, nil
}

// LoginByHash resuelve un identity hash a su registro para resume de
// sesión. Un miss devuelve el centinela DefaultUser, nunca un error.
func (s *AuthService) LoginByHash(ctx context.Context, hash string) (domain.UserRecord, error) {
	if s.users == nil {
		return domain.UserRecord{}, errors.New("auth service not configured")
	}

	hash = strings.TrimSpace(hash)
	if hash == "" {
		return domain.DefaultUser(), nil
	}

	// Camino rápido por índice; el store sigue siendo la autoridad, una
	// entrada vencida del índice cae al lookup directo.
	if email, ok := s.hashIndex.Lookup(hash); ok {
		record, err := s.users.GetByEmail(ctx, email)
		if err == nil && record.IdentityHash == hash {
			return record, nil
		}
	}

	record, err := s.users.GetByHash(ctx, hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DefaultUser(), nil
	}
	if err != nil {
		return domain.UserRecord{}, err
	}
	return record, nil
}

// SaveUser persiste un registro nuevo. ErrUserExists si el email ya
// tiene registro; el caller debe releer y seguir el camino de existente.
func (s *AuthService) SaveUser(ctx context.Context, record domain.UserRecord) (domain.UserRecord, error) {
	if s.users == nil {
		return domain.UserRecord{}, errors.New("auth service not configured")
	}

	record.Profile.Email = normalizeEmail(record.Profile.Email)
	if record.Profile.Email == "" {
		return domain.UserRecord{}, ErrInvalidEmail
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Progress == nil {
		record.Progress = domain.EmptyProgress()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := s.users.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.UserRecord{}, ErrUserExists
		}
		return domain.UserRecord{}, err
	}
	s.rememberHash(record.IdentityHash, record.Profile.Email)
	return record, nil
}

// UpdateUser reemplaza el registro del email: delete seguido de insert.
func (s *AuthService) UpdateUser(ctx context.Context, record domain.UserRecord) (domain.UserRecord, error) {
	if s.users == nil {
		return domain.UserRecord{}, errors.New("auth service not configured")
	}

	record.Profile.Email = normalizeEmail(record.Profile.Email)
	if record.Profile.Email == "" {
		return domain.UserRecord{}, ErrInvalidEmail
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Progress == nil {
		record.Progress = domain.EmptyProgress()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := s.users.Replace(ctx, record); err != nil {
		return domain.UserRecord{}, err
	}
	s.rememberHash(record.IdentityHash, record.Profile.Email)
	return record, nil
}

// DeleteUser borra el registro del email y devuelve cuántos removió.
func (s *AuthService) DeleteUser(ctx context.Context, email string) (int64, error) {
	if s.users == nil {
		return 0, errors.New("auth service not configured")
	}

	email = normalizeEmail(email)
	if email == "" {
		return 0, ErrInvalidEmail
	}
	removed, err := s.users.Delete(ctx, email)
	if err != nil {
		return 0, err
	}
	if removed == 0 && s.logger != nil {
		s.logger.Info("delete user without match", zap.String("email", email))
	}
	return removed, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	if s.users == nil {
		return nil, errors.New("auth service not configured")
	}
	return s.users.List(ctx)
}

func (s *AuthService) rememberHash(hash, email string) {
	if s.hashIndex == nil || hash == "" || email == "" {
		return
	}
	if err := s.hashIndex.Remember(hash, email); err != nil && s.logger != nil {
		s.logger.Warn("hash index remember failed", zap.Error(err))
	}
}

// pickEmail elige el email canónico de la lista del proveedor según la
// política configurada. El proveedor no garantiza orden: el primer
// elemento no es necesariamente el primario verificado.
func pickEmail(emails []domain.UserProfile, policy string) (domain.UserProfile, error) {
	if len(emails) == 0 {
		return domain.UserProfile{}, ErrInvalidEmail
	}

	chosen := emails[0]
	if policy == EmailPolicyPrimaryVerified {
		for _, e := range emails {
			if e.Primary && e.Verified {
				chosen = e
				break
			}
		}
	}

	chosen.Email = normalizeEmail(chosen.Email)
	if chosen.Email == "" {
		return domain.UserProfile{}, ErrInvalidEmail
	}
	return chosen, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
