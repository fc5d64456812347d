package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"binkeyit_backend/internal/email"
	"binkeyit_backend/internal/models"
	"binkeyit_backend/internal/repositories"
)

// fakeUserRepo - in-memory реализация UserRepository для тестов
type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepo) clone(u *models.User) *models.User {
	cp := *u
	return &cp
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repositories.ErrUserAlreadyExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = r.clone(user)
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return r.clone(u), nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return r.clone(u), nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	r.users[user.ID] = r.clone(user)
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token string, lastLogin *time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.RefreshToken = token
	if lastLogin != nil {
		u.LastLoginAt = lastLogin
	}
	return nil
}

func (r *fakeUserRepo) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	return r.UpdateRefreshToken(ctx, id, "", nil)
}

func (r *fakeUserRepo) VerifyUser(ctx context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.RefreshToken = ""
	return nil
}

func (r *fakeUserRepo) SetForgotPasswordOTP(ctx context.Context, id uuid.UUID, otp string, expiry time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ForgotPasswordOTP = otp
	u.ForgotPasswordOTPExpiry = &expiry
	return nil
}

func (r *fakeUserRepo) ClearForgotPasswordOTP(ctx context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ForgotPasswordOTP = ""
	u.ForgotPasswordOTPExpiry = nil
	return nil
}

func (r *fakeUserRepo) ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	var cleared int64
	for _, u := range r.users {
		if u.ForgotPasswordOTP != "" && u.ForgotPasswordOTPExpiry != nil && u.ForgotPasswordOTPExpiry.Before(now) {
			u.ForgotPasswordOTP = ""
			u.ForgotPasswordOTPExpiry = nil
			cleared++
		}
	}
	return cleared, nil
}

// fakeEmailProvider записывает отправленные письма
type fakeEmailProvider struct {
	verifications []sentVerification
	otps          []sentOTP
	failNext      bool
}

type sentVerification struct {
	to, name, url string
}

type sentOTP struct {
	to, name, otp string
}

var errSMTPDown = errors.New("smtp connection refused")

func (p *fakeEmailProvider) Send(ctx context.Context, msg *email.Message) error {
	return nil
}

func (p *fakeEmailProvider) SendVerification(ctx context.Context, to, name, verifyURL string) error {
	if p.failNext {
		p.failNext = false
		return errSMTPDown
	}
	p.verifications = append(p.verifications, sentVerification{to, name, verifyURL})
	return nil
}

func (p *fakeEmailProvider) SendPasswordResetOTP(ctx context.Context, to, name, otp string) error {
	if p.failNext {
		p.failNext = false
		return errSMTPDown
	}
	p.otps = append(p.otps, sentOTP{to, name, otp})
	return nil
}
