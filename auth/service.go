// Package auth handles device sessions and credential sign-in.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vin-devs/learnsite/catalog/seed"
	"github.com/vin-devs/learnsite/models"
	"github.com/vin-devs/learnsite/storage"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrUserNotFound       = errors.New("auth: user not found")
)

// Service owns users, devices and the device-local "user" entry.
type Service struct {
	db     *gorm.DB
	store  storage.Local
	issuer *Issuer
	log    *zap.Logger
	cost   int
}

func NewService(db *gorm.DB, store storage.Local, issuer *Issuer, log *zap.Logger) *Service {
	return &Service{db: db, store: store, issuer: issuer, log: log, cost: bcrypt.DefaultCost}
}

// Issuer exposes the token issuer for middleware.
func (s *Service) Issuer() *Issuer { return s.issuer }

// GuestDevice returns the device a token was issued for. Holding the token
// is what proves the caller owns that device's cart.
func (s *Service) GuestDevice(token string) (string, error) {
	session, err := s.issuer.Parse(strings.TrimSpace(token))
	if err != nil {
		return "", err
	}
	return session.DeviceID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateDevice registers an anonymous device and returns its token.
func (s *Service) CreateDevice(ctx context.Context) (models.Device, string, error) {
	device := models.Device{
		ID:        newDeviceID(),
		ExpiresAt: s.issuer.now().Add(s.issuer.TTL()),
	}
	if err := s.db.WithContext(ctx).Create(&device).Error; err != nil {
		return models.Device{}, "", fmt.Errorf("failed to create device: %w", err)
	}
	token, _, err := s.issuer.Issue(Session{DeviceID: device.ID, Role: RoleGuest})
	if err != nil {
		return models.Device{}, "", err
	}
	return device, token, nil
}

// ensureDevice returns deviceID, or a fresh device when it is empty.
func (s *Service) ensureDevice(ctx context.Context, deviceID string) (string, error) {
	if deviceID != "" {
		return deviceID, nil
	}
	device, _, err := s.CreateDevice(ctx)
	if err != nil {
		return "", err
	}
	return device.ID, nil
}

// Authenticate verifies email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Purchases").
		Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Register creates a user with a fresh id.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info("✅ user registered", zap.String("user_id", user.ID))
	return &user, nil
}

// SignIn binds user to a device: it issues a user token and writes the
// public profile to the device's "user" entry. A new device is created when
// deviceID is empty.
func (s *Service) SignIn(ctx context.Context, deviceID string, user *models.User) (string, string, error) {
	deviceID, err := s.ensureDevice(ctx, deviceID)
	if err != nil {
		return "", "", err
	}
	token, _, err := s.issuer.Issue(Session{DeviceID: deviceID, UserID: user.ID, Email: user.Email, Role: RoleUser})
	if err != nil {
		return "", "", err
	}
	if err := s.Remember(ctx, deviceID, user.Profile()); err != nil {
		return "", "", err
	}
	return token, deviceID, nil
}

// Remember writes the profile into device-local storage.
func (s *Service) Remember(ctx context.Context, deviceID string, p models.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return s.store.Set(ctx, deviceID, storage.KeyUser, raw)
}

// Remembered reads the profile stored on a device.
func (s *Service) Remembered(ctx context.Context, deviceID string) (models.Profile, error) {
	var p models.Profile
	raw, err := s.store.Get(ctx, deviceID, storage.KeyUser)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("failed to decode profile: %w", err)
	}
	return p, nil
}

// SignOut forgets the user on a device and returns a guest token for it.
func (s *Service) SignOut(ctx context.Context, deviceID string) (string, error) {
	if err := s.store.Delete(ctx, deviceID, storage.KeyUser); err != nil {
		return "", err
	}
	token, _, err := s.issuer.Issue(Session{DeviceID: deviceID, Role: RoleGuest})
	return token, err
}

// User loads a user with purchases.
func (s *Service) User(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Purchases").First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return &user, nil
}

// UpdateProfile changes name and avatar. Empty values are left alone.
func (s *Service) UpdateProfile(ctx context.Context, id, name, avatar string) (*models.User, error) {
	updates := map[string]any{}
	if v := strings.TrimSpace(name); v != "" {
		updates["name"] = v
	}
	if v := strings.TrimSpace(avatar); v != "" {
		updates["avatar"] = v
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update user %s: %w", id, res.Error)
		}
	}
	return s.User(ctx, id)
}

// SeedDemoUsers creates the demo accounts and their purchases. Existing
// accounts keep their password.
func (s *Service) SeedDemoUsers(ctx context.Context, users []seed.DemoUser) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, du := range users {
			email := normalizeEmail(du.Email)
			var user models.User
			err := tx.Where("email = ?", email).First(&user).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				hash, err := bcrypt.GenerateFromPassword([]byte(du.Password), s.cost)
				if err != nil {
					return err
				}
				user = models.User{
					ID:           uuid.NewString(),
					Email:        email,
					Name:         du.Name,
					Avatar:       du.Avatar,
					PasswordHash: string(hash),
				}
				if err := tx.Create(&user).Error; err != nil {
					return fmt.Errorf("failed to seed user %s: %w", email, err)
				}
			} else if err != nil {
				return err
			}

			for _, productID := range du.Purchases {
				p := models.Purchase{UserID: user.ID, ProductID: productID}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
					return fmt.Errorf("failed to seed purchase %s for %s: %w", productID, email, err)
				}
			}
		}
		s.log.Info("✅ demo users seeded", zap.Int("count", len(users)))
		return nil
	})
}
