package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/authtoken"
	"github.com/rhosegym/gymcore/pkg/config"
	"github.com/rhosegym/gymcore/pkg/tool"
	"github.com/rhosegym/gymcore/pkg/types"
)

const pinRetries = 5

// Service owns accounts, credentials and roles.
type Service struct {
	cfg   *config.Config
	log   *zap.SugaredLogger
	db    *gorm.DB
	audit *audit.Service
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB, auditSvc *audit.Service) *Service {
	return &Service{cfg: cfg, log: log, db: db, audit: auditSvc}
}

type RegisterRequest struct {
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	FullName  string     `json:"full_name"`
	MobileNo  string     `json:"mobile_no"`
	Address   string     `json:"address"`
	Birthdate *time.Time `json:"birthdate"`
}

func (r *RegisterRequest) validate() error {
	if r == nil || r.Username == "" {
		return fmt.Errorf("%w: username is required", apperr.ErrValidation)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", apperr.ErrValidation, r.Email)
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", apperr.ErrValidation)
	}
	return nil
}

// Register creates a member account.
func (s *Service) Register(ctx context.Context, req *RegisterRequest, meta *audit.RequestMeta) (*models.User, error) {
	return s.createUser(ctx, req, false, "", meta)
}

// CreateStaff creates an account with the staff flag set. Admin operation.
func (s *Service) CreateStaff(ctx context.Context, req *RegisterRequest, createdBy string, meta *audit.RequestMeta) (*models.User, error) {
	return s.createUser(ctx, req, true, createdBy, meta)
}

func (s *Service) createUser(ctx context.Context, req *RegisterRequest, isStaff bool, createdBy string, meta *audit.RequestMeta) (*models.User, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           tool.GenerateUUIDV7(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		MobileNo:     req.MobileNo,
		Address:      req.Address,
		Birthdate:    req.Birthdate,
		IsStaff:      isStaff,
		Role:         types.DeriveRole(false, isStaff),
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: username or email already taken", apperr.ErrValidation)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	entry := audit.Entry{
		Action:      types.AuditActionRegister,
		ActorID:     &user.ID,
		Description: fmt.Sprintf("account %q registered", user.Username),
		Meta:        meta,
		EntityName:  models.User{}.TableName(),
		EntityID:    user.ID,
	}
	if isStaff {
		entry.Action = types.AuditActionUserCreated
		entry.ActorID = &createdBy
		entry.Description = fmt.Sprintf("staff account %q created", user.Username)
	}
	s.audit.Log(ctx, entry)
	return user, nil
}

// Authenticate verifies credentials and issues a session token. Failed
// attempts land in the audit trail as warnings.
func (s *Service) Authenticate(ctx context.Context, username, password string, meta *audit.RequestMeta) (string, *models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok := err == nil && user.Active &&
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
	if !ok {
		s.audit.Log(ctx, audit.Entry{
			Action:      types.AuditActionLoginFailed,
			Description: fmt.Sprintf("failed login for %q", username),
			Severity:    types.SeverityWarning,
			Meta:        meta,
		})
		return "", nil, fmt.Errorf("%w: invalid credentials", apperr.ErrValidation)
	}

	token, err := authtoken.Generate(s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL(), user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionLogin,
		ActorID:     &user.ID,
		Description: fmt.Sprintf("user %q logged in", user.Username),
		Meta:        meta,
		EntityName:  models.User{}.TableName(),
		EntityID:    user.ID,
	})
	return token, &user, nil
}

// Get loads one account.
func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

type UpdateProfileRequest struct {
	FullName  string     `json:"full_name"`
	MobileNo  string     `json:"mobile_no"`
	Address   string     `json:"address"`
	Birthdate *time.Time `json:"birthdate"`
}

// UpdateProfile edits contact fields. Role and flags are untouchable here.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest, meta *audit.RequestMeta) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.FullName = req.FullName
	user.MobileNo = req.MobileNo
	user.Address = req.Address
	user.Birthdate = req.Birthdate
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionUserUpdated,
		ActorID:     &userID,
		Description: fmt.Sprintf("profile of %q updated", user.Username),
		Meta:        meta,
		EntityName:  models.User{}.TableName(),
		EntityID:    user.ID,
	})
	return user, nil
}

// SetFlags updates the privilege flags and re-derives the role in one step.
// This is the only path that changes Role.
func (s *Service) SetFlags(ctx context.Context, userID string, isSuperuser, isStaff bool, actorID string, meta *audit.RequestMeta) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldRole := user.Role
	newRole := types.DeriveRole(isSuperuser, isStaff)

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"is_superuser": isSuperuser,
			"is_staff":     isStaff,
			"role":         newRole,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update flags: %w", res.Error)
	}

	user.IsSuperuser = isSuperuser
	user.IsStaff = isStaff
	user.Role = newRole

	if oldRole != newRole {
		s.audit.Log(ctx, audit.Entry{
			Action:      types.AuditActionRoleChanged,
			ActorID:     &actorID,
			Description: fmt.Sprintf("role of %q changed from %s to %s", user.Username, oldRole, newRole),
			Severity:    types.SeverityWarning,
			Meta:        meta,
			EntityName:  models.User{}.TableName(),
			EntityID:    user.ID,
			Extra:       map[string]any{"old_role": string(oldRole), "new_role": string(newRole)},
		})
	}
	return user, nil
}

// SyncRole recomputes Role from the stored flags. Repair operation for rows
// written by hand.
func (s *Service) SyncRole(ctx context.Context, userID, actorID string, meta *audit.RequestMeta) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.SetFlags(ctx, userID, user.IsSuperuser, user.IsStaff, actorID, meta)
}

// SetActive soft-enables or disables an account.
func (s *Service) SetActive(ctx context.Context, userID string, active bool, actorID string, meta *audit.RequestMeta) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionUserUpdated,
		ActorID:     &actorID,
		Description: fmt.Sprintf("user %s active set to %t", userID, active),
		Severity:    types.SeverityWarning,
		Meta:        meta,
		EntityName:  models.User{}.TableName(),
		EntityID:    userID,
	})
	return nil
}

// IssueKioskPIN assigns a fresh 6-digit kiosk code, replacing any previous
// one. Collisions with other users retry against the unique index.
func (s *Service) IssueKioskPIN(ctx context.Context, userID string, meta *audit.RequestMeta) (string, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return "", err
	}
	for i := 0; i < pinRetries; i++ {
		pin := tool.GenerateKioskPIN()
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", userID).
			Update("kiosk_pin", pin).Error
		if err == nil {
			s.audit.Log(ctx, audit.Entry{
				Action:      types.AuditActionUserUpdated,
				ActorID:     &userID,
				Description: fmt.Sprintf("kiosk PIN issued for user %s", userID),
				Meta:        meta,
				EntityName:  models.User{}.TableName(),
				EntityID:    userID,
			})
			return pin, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", fmt.Errorf("failed to store kiosk PIN: %w", err)
		}
		s.log.Warnw("kiosk PIN collision, retrying", "attempt", i+1)
	}
	return "", fmt.Errorf("%w: could not issue a unique kiosk PIN after %d attempts", apperr.ErrRetryExhausted, pinRetries)
}

// FindByKioskPIN resolves a kiosk code to an active account.
func (s *Service) FindByKioskPIN(ctx context.Context, pin string) (*models.User, error) {
	if pin == "" {
		return nil, fmt.Errorf("%w: PIN is required", apperr.ErrValidation)
	}
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "kiosk_pin = ? AND active = ?", pin, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no account for that PIN", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up PIN: %w", err)
	}
	return &user, nil
}
