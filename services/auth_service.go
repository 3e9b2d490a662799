package services

import (
	"fmt"

	"chatter-box/auth"
	"chatter-box/contract"
	"chatter-box/errors"
)

type IAuthService interface {
	Register(username, email, password string) (Token, error)
	Login(username, password string) (Token, error)
}

type AuthService struct {
	users  contract.UserRepository
	tokens *auth.TokenService
}

type Token string

func (t Token) String() string {
	return string(t)
}

func NewAuthService(users contract.UserRepository, tokens *auth.TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(username, email, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}

	// 1. Validate business rules (username, email format, password complexity)
	// We check this before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	// 2. Hash the password using Argon2id
	// Done in the service layer to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash
	user, err := s.users.CreateUser(username, email, hashedPassword)
	if err != nil {
		return "", err // Will propagate ErrUserAlreadyExists if username is taken
	}

	// 4. Generate the initial session token
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Login(username, password string) (Token, error) {
	// 1. Retrieve user by username from storage
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", errors.ErrInvalidCredentials
	}

	// 2. Compare the provided password with the stored hash
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	// 3. Issue the JWT token
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

var _ IAuthService = (*AuthService)(nil)
