package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/zaloga/internal/apperr"
	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// Registration is the input of Register.
type Registration struct {
	Name        string
	Email       string
	Password    string
	Role        string
	AdminSecret string
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Register creates an account. Users and holders start pending; admins need
// the admin registration secret and start approved.
func (s *Service) Register(ctx context.Context, in Registration) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperr.Validation("invalid email address")
	}
	if err := model.ValidatePassword(in.Password); err != nil {
		return nil, apperr.Validation("%v", err)
	}
	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if role == model.RoleAdmin && !s.adminSecretMatches(in.AdminSecret) {
		return nil, apperr.Forbidden("admin registration requires special access")
	}

	hash, err := auth.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.tx(ctx, func(tx *sqlx.Tx) error {
		user, err = store.CreateUser(ctx, tx, name, email, hash, role, model.InitialStatus(role))
		if errors.Is(err, store.ErrDuplicate) {
			return apperr.Conflict("email %s is already registered", email)
		}
		if err != nil {
			return err
		}
		if role != model.RoleAdmin {
			return nil
		}
		return store.AppendLog(ctx, tx, model.LogEntry{
			Action: model.ActionAdminRegistered,
			UserID: &user.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("user registered", "user", user.Email, "role", user.Role, "status", user.Status)
	return user, nil
}

// RegisterAdmin registers an administrator through the dedicated route.
func (s *Service) RegisterAdmin(ctx context.Context, name, email, password, secret string) (*model.User, error) {
	if !s.adminSecretMatches(secret) {
		return nil, apperr.Forbidden("invalid admin registration secret")
	}
	return s.Register(ctx, Registration{
		Name:        name,
		Email:       email,
		Password:    password,
		Role:        string(model.RoleAdmin),
		AdminSecret: secret,
	})
}

// An empty configured secret disables admin self-registration.
func (s *Service) adminSecretMatches(given string) bool {
	want := s.cfg.AdminRegisterSecret
	if want == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(given)) == 1
}

// Login verifies credentials and issues a token. Only approved accounts may
// log in.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := store.GetUserByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if user.Status != model.StatusApproved {
		return nil, apperr.Forbidden("account not approved yet")
	}

	token, err := auth.GenerateToken(s.cfg.JWTSecret, user.ID, s.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("user logged in", "user", user.Email)
	return &LoginResult{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("missing token")
	}
	claims, err := auth.ValidateToken(s.cfg.JWTSecret, token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	user, err := store.GetUser(ctx, s.db, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Unauthorized("user no longer exists")
	}
	return user, nil
}

// Authorize checks that user holds one of the allowed roles.
func Authorize(user *model.User, allowed ...model.Role) error {
	if user == nil {
		return apperr.Unauthorized("authentication required")
	}
	if !user.Role.In(allowed...) {
		return apperr.Forbidden("role %q may not access this resource", user.Role)
	}
	return nil
}

// ListPending returns accounts awaiting approval.
func (s *Service) ListPending(ctx context.Context) ([]model.User, error) {
	users, err := store.ListUsersByStatus(ctx, s.db, model.StatusPending)
	if err != nil {
		return nil, err
	}
	return orEmpty(users), nil
}

// Approve applies an admin decision to a pending account. Approving a holder
// with an inventoryID binds the holder to that inventory, creating it when
// absent and taking it over from any previous holder otherwise.
func (s *Service) Approve(ctx context.Context, admin *model.User, userID int64, action, inventoryID string) (*model.User, error) {
	decision := model.UserStatus(action)
	if decision != model.StatusApproved && decision != model.StatusRejected {
		return nil, apperr.Validation("action must be %q or %q", model.StatusApproved, model.StatusRejected)
	}
	inventoryID = strings.TrimSpace(inventoryID)

	var user *model.User
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		var err error
		user, err = store.GetUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperr.NotFound("user not found")
		}
		if err := user.Decide(decision); err != nil {
			if errors.Is(err, model.ErrNotPending) {
				return apperr.Conflict("user is not pending approval")
			}
			return err
		}

		var bind *string
		if decision == model.StatusApproved && user.Role == model.RoleHolder && inventoryID != "" {
			if err := s.bindHolder(ctx, tx, user.ID, inventoryID); err != nil {
				return err
			}
			bind = &inventoryID
		}

		if err := store.DecideUser(ctx, tx, user.ID, decision, bind); err != nil {
			return staleAsConflict(err, "user")
		}

		logAction := model.ActionUserApproved
		if decision == model.StatusRejected {
			logAction = model.ActionUserRejected
		}
		if err := store.AppendLog(ctx, tx, model.LogEntry{
			Action:    logAction,
			UserID:    &user.ID,
			HandledBy: &admin.ID,
		}); err != nil {
			return err
		}

		user, err = store.GetUser(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("user "+string(decision), "user", user.Email, "by", admin.Email, "inventory", inventoryID)
	return user, nil
}

// bindHolder makes holderID the holder of inventoryID.
func (s *Service) bindHolder(ctx context.Context, tx *sqlx.Tx, holderID int64, inventoryID string) error {
	inv, err := store.GetInventory(ctx, tx, inventoryID)
	if err != nil {
		return err
	}
	if inv == nil {
		if _, err := store.CreateInventory(ctx, tx, inventoryID, &holderID); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflict("inventory %q was created concurrently, retry", inventoryID)
			}
			return err
		}
	} else {
		inv.HolderID = &holderID
		if err := store.SaveInventory(ctx, tx, inv); err != nil {
			return staleAsConflict(err, "inventory")
		}
	}

	if _, err := store.ClearInventoryAssignment(ctx, tx, inventoryID, holderID); err != nil {
		return err
	}
	return nil
}

// BootstrapAdmin creates the first administrator when none exists and
// returns its generated password. created is false when an admin already
// exists.
func (s *Service) BootstrapAdmin(ctx context.Context, name, email string) (password string, created bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))

	n, err := store.CountUsersByRole(ctx, s.db, model.RoleAdmin)
	if err != nil {
		return "", false, err
	}
	if n > 0 {
		return "", false, nil
	}

	password, err = generatePassword(16)
	if err != nil {
		return "", false, fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return "", false, err
	}

	err = s.tx(ctx, func(tx *sqlx.Tx) error {
		user, err := store.CreateUser(ctx, tx, name, email, hash, model.RoleAdmin, model.StatusApproved)
		if err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}
		return store.AppendLog(ctx, tx, model.LogEntry{Action: model.ActionAdminRegistered, UserID: &user.ID})
	})
	if err != nil {
		return "", false, err
	}

	logging.From(ctx).Info("admin bootstrapped", "user", email)
	return password, true, nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
