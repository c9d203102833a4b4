package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/krishimitra/assistant/internal/auth"
	"github.com/krishimitra/assistant/internal/store"
	"github.com/krishimitra/assistant/pkg/log"
)

// AdminUsername always exists, always grants elevated access, and can never
// be deleted.
const AdminUsername = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrProtectedUser      = errors.New("cannot delete the admin user")
	ErrUsernameTaken      = errors.New("username already exists, please choose another")
	ErrUserNotFound       = errors.New("user not found, please check the username")
)

// UserStore is the identity store contract.
type UserStore interface {
	CreateUser(user *store.User) error
	GetUser(username string) (*store.User, error)
	GetUserByLogin(identifier string) (*store.User, error)
	UpdateUser(user *store.User) error
	RenameUser(oldUsername, newUsername string) error
	DeleteUser(username string) error
	ListUsers() ([]store.User, error)
}

// IdentityService gates everything else behind an authenticated username:
// conversation persistence is namespaced by the usernames it manages.
type IdentityService struct {
	users  UserStore
	tokens *auth.TokenManager
}

func NewIdentityService(users UserStore, tokens *auth.TokenManager) *IdentityService {
	return &IdentityService{users: users, tokens: tokens}
}

// EnsureAdmin seeds the protected admin account on first start.
func (s *IdentityService) EnsureAdmin(password string) error {
	existing, err := s.users.GetUser(AdminUsername)
	if err != nil {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}
	if existing != nil {
		return nil
	}
	admin := &store.User{
		FullName:   "Admin User",
		Username:   AdminUsername,
		Credential: auth.ObfuscateCredential(password),
	}
	if err := s.users.CreateUser(admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	log.Infow("seeded admin account")
	return nil
}

type SignupInput struct {
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *IdentityService) Signup(in SignupInput) (*store.User, error) {
	if strings.TrimSpace(in.FullName) == "" || strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return nil, errors.New("full name, username and password are required")
	}
	user := &store.User{
		FullName:   in.FullName,
		Username:   in.Username,
		Phone:      in.Phone,
		Credential: auth.ObfuscateCredential(in.Password),
	}
	if err := s.users.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Login accepts a username (case-insensitive) or a registered phone number.
// On success it returns the bearer token that marks the authenticated user.
func (s *IdentityService) Login(identifier, password string) (string, *store.User, error) {
	user, err := s.users.GetUserByLogin(identifier)
	if err != nil {
		return "", nil, err
	}
	if user == nil || !auth.CheckCredential(password, user.Credential) {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, user, nil
}

func (s *IdentityService) GetUser(username string) (*store.User, error) {
	return s.users.GetUser(username)
}

// ValidateToken resolves a bearer token back to its username and confirms
// the account still exists.
func (s *IdentityService) ValidateToken(token string) (*store.User, error) {
	username, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ProfileUpdate carries partial profile changes; nil fields are untouched.
// Password rotation replaces the obfuscated credential only. A username
// change renames the account and moves its chat sessions with it.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Password *string `json:"password,omitempty"`
	Gender   *string `json:"gender,omitempty"`
	DOB      *string `json:"dob,omitempty"`
	Address  *string `json:"address,omitempty"`
	District *string `json:"district,omitempty"`
	State    *string `json:"state,omitempty"`
	Country  *string `json:"country,omitempty"`
	Pincode  *string `json:"pincode,omitempty"`
}

func (s *IdentityService) UpdateProfile(username string, up ProfileUpdate) (*store.User, error) {
	user, err := s.users.GetUser(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if up.Username != nil {
		newName := strings.TrimSpace(*up.Username)
		if newName == "" {
			return nil, errors.New("username cannot be blank")
		}
		if newName != user.Username {
			if strings.EqualFold(user.Username, AdminUsername) {
				return nil, ErrProtectedUser
			}
			// The rename is rejected atomically on collision; nothing else
			// in this update has been written yet.
			if err := s.users.RenameUser(user.Username, newName); err != nil {
				if errors.Is(err, store.ErrUsernameTaken) {
					return nil, ErrUsernameTaken
				}
				return nil, err
			}
			user.Username = newName
		}
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&user.FullName, up.FullName)
	apply(&user.Phone, up.Phone)
	apply(&user.Gender, up.Gender)
	apply(&user.DOB, up.DOB)
	apply(&user.Address, up.Address)
	apply(&user.District, up.District)
	apply(&user.State, up.State)
	apply(&user.Country, up.Country)
	apply(&user.Pincode, up.Pincode)
	if up.Password != nil && *up.Password != "" {
		user.Credential = auth.ObfuscateCredential(*up.Password)
	}

	if err := s.users.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// IssueToken mints a fresh bearer token for the username. Used after a
// rename, when the token the client holds names the old account.
func (s *IdentityService) IssueToken(username string) (string, error) {
	return s.tokens.Generate(username)
}

func (s *IdentityService) ResetPassword(username, newPassword string) error {
	user, err := s.users.GetUser(username)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	user.Credential = auth.ObfuscateCredential(newPassword)
	return s.users.UpdateUser(user)
}

func (s *IdentityService) ListUsers() ([]store.User, error) {
	return s.users.ListUsers()
}

func (s *IdentityService) DeleteUser(username string) error {
	if strings.EqualFold(username, AdminUsername) {
		return ErrProtectedUser
	}
	if err := s.users.DeleteUser(username); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
