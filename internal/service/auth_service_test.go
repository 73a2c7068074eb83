package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sahayak/internal/advisor"
	"sahayak/internal/auth"
	"sahayak/internal/model"
)

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name           string
		input          RegisterInput
		verification   advisor.UserVerification
		setupMock      func(*MockUserRepository, *MockTokenStore)
		expectedError  error
		expectedStatus model.UserVerificationStatus
	}{
		{
			name: "successful registration with verified check",
			input: RegisterInput{
				Name:     "Anitha Menon",
				Email:    "anitha@example.com",
				Password: "password123",
				Phone:    "+919800000001",
				UserType: model.UserTypePoster,
				Location: model.Location{City: "Kochi"},
			},
			verification: advisor.UserVerification{IsValid: true},
			setupMock: func(userRepo *MockUserRepository, tokenStore *MockTokenStore) {
				userRepo.On("FindByEmail", mock.Anything, "anitha@example.com").Return(nil, gorm.ErrRecordNotFound)
				userRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				tokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, "anitha@example.com", mock.Anything).Return(nil)
			},
			expectedStatus: model.UserVerificationVerified,
		},
		{
			name: "failed advisory check still registers, pending",
			input: RegisterInput{
				Name:     "Suspicious Sam",
				Email:    "sam@example.com",
				Password: "password123",
				Phone:    "+919800000009",
				Location: model.Location{City: "Kochi"},
			},
			verification: advisor.UserVerification{IsValid: false, Notes: "verification pending"},
			setupMock: func(userRepo *MockUserRepository, tokenStore *MockTokenStore) {
				userRepo.On("FindByEmail", mock.Anything, "sam@example.com").Return(nil, gorm.ErrRecordNotFound)
				userRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				tokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, "sam@example.com", mock.Anything).Return(nil)
			},
			expectedStatus: model.UserVerificationPending,
		},
		{
			name: "email already registered",
			input: RegisterInput{
				Name:     "Existing User",
				Email:    "existing@example.com",
				Password: "password123",
			},
			setupMock: func(userRepo *MockUserRepository, tokenStore *MockTokenStore) {
				userRepo.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepository)
			tokenStore := new(MockTokenStore)
			tt.setupMock(userRepo, tokenStore)

			adv := new(MockAdvisor)
			if tt.expectedError == nil {
				adv.On("VerifyUser", mock.Anything, mock.AnythingOfType("advisor.UserInput")).Return(tt.verification)
			}

			jwtService := auth.NewJWTService("test-secret")
			service := NewAuthService(userRepo, jwtService, tokenStore, adv)

			user, accessToken, refreshToken, err := service.Register(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.Equal(t, model.DefaultTrustScore, user.TrustScore)
				assert.Equal(t, tt.expectedStatus, user.VerificationStatus)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
			}

			userRepo.AssertExpectations(t)
			tokenStore.AssertExpectations(t)
			adv.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "anitha@example.com",
			password: "password123",
			setupMock: func(userRepo *MockUserRepository, tokenStore *MockTokenStore) {
				hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), 10)
				userID := uuid.New()
				userRepo.On("FindByEmail", mock.Anything, "anitha@example.com").Return(&model.User{
					ID:           userID,
					Email:        "anitha@example.com",
					PasswordHash: string(hashedPassword),
				}, nil)
				tokenStore.On("StoreRefreshToken", mock.Anything, mock.Anything, userID.String(), "anitha@example.com", mock.Anything).Return(nil)
			},
		},
		{
			name:     "user not found",
			email:    "nobody@example.com",
			password: "password123",
			setupMock: func(userRepo *MockUserRepository, tokenStore *MockTokenStore) {
				userRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "anitha@example.com",
			password: "not-the-password",
			setupMock: func(userRepo *MockUserRepository, tokenStore *MockTokenStore) {
				hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), 10)
				userRepo.On("FindByEmail", mock.Anything, "anitha@example.com").Return(&model.User{
					ID:           uuid.New(),
					Email:        "anitha@example.com",
					PasswordHash: string(hashedPassword),
				}, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepository)
			tokenStore := new(MockTokenStore)
			tt.setupMock(userRepo, tokenStore)

			jwtService := auth.NewJWTService("test-secret")
			service := NewAuthService(userRepo, jwtService, tokenStore, advisor.NewStatic())

			accessToken, refreshToken, user, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Empty(t, accessToken)
				assert.Empty(t, refreshToken)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
				assert.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
			}

			userRepo.AssertExpectations(t)
			tokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	userID := uuid.New()
	email := "anitha@example.com"

	t.Run("valid refresh token yields a new access token", func(t *testing.T) {
		tokenID, refreshToken, err := jwtService.GenerateRefreshToken(userID, email)
		assert.NoError(t, err)

		tokenStore := new(MockTokenStore)
		tokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return(userID.String(), email, nil)

		service := NewAuthService(new(MockUserRepository), jwtService, tokenStore, advisor.NewStatic())
		accessToken, err := service.RefreshToken(context.Background(), refreshToken)

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		tokenStore.AssertExpectations(t)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		tokenID, refreshToken, err := jwtService.GenerateRefreshToken(userID, email)
		assert.NoError(t, err)

		tokenStore := new(MockTokenStore)
		tokenStore.On("GetRefreshToken", mock.Anything, tokenID).Return("", "", assert.AnError)

		service := NewAuthService(new(MockUserRepository), jwtService, tokenStore, advisor.NewStatic())
		_, err = service.RefreshToken(context.Background(), refreshToken)

		assert.Equal(t, ErrInvalidRefreshToken, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		service := NewAuthService(new(MockUserRepository), jwtService, new(MockTokenStore), advisor.NewStatic())
		_, err := service.RefreshToken(context.Background(), "not-a-jwt")
		assert.Equal(t, ErrInvalidRefreshToken, err)
	})
}

func TestAuthService_Logout(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	tokenID, refreshToken, err := jwtService.GenerateRefreshToken(uuid.New(), "anitha@example.com")
	assert.NoError(t, err)

	tokenStore := new(MockTokenStore)
	tokenStore.On("DeleteRefreshToken", mock.Anything, tokenID).Return(nil)

	service := NewAuthService(new(MockUserRepository), jwtService, tokenStore, advisor.NewStatic())
	assert.NoError(t, service.Logout(context.Background(), refreshToken))
	tokenStore.AssertExpectations(t)
}
