package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/NordCoder/Vidrate/internal/domain/outbox"
	"github.com/NordCoder/Vidrate/internal/domain/user"
	"github.com/NordCoder/Vidrate/internal/obs"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type Config struct {
	Now func() time.Time
}

type Usecase struct {
	users  user.Repo
	hasher domainauth.PasswordHasher
	codec  domainauth.TokenCodec
	store  domainauth.RevocationStore
	outbox outbox.Repository
	tx     outbox.Transactor
	cfg    Config
	log    *zap.Logger

	// digest of a throwaway password, verified against when the username is
	// unknown so both login failures cost one bcrypt comparison
	decoy string
}

type Deps struct {
	Users  user.Repo
	Hasher domainauth.PasswordHasher
	Codec  domainauth.TokenCodec
	Store  domainauth.RevocationStore
	Outbox outbox.Repository
	Tx     outbox.Transactor
	Logger *zap.Logger
}

func NewUseCase(d Deps, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	decoy, err := d.Hasher.Hash(uuid.NewString())
	if err != nil {
		log.Warn("decoy digest unavailable", zap.Error(err))
	}
	return &Usecase{
		users:  d.Users,
		hasher: d.Hasher,
		codec:  d.Codec,
		store:  d.Store,
		outbox: d.Outbox,
		tx:     d.Tx,
		cfg:    cfg,
		log:    log.Named("auth.usecase"),
		decoy:  decoy,
	}
}

type RegisterInput struct {
	Name     string
	Username string
	Password string
}

// Register stores the user and its user.registered event in one transaction.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	digest, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	newUser := &user.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(in.Username),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: digest,
		RegisteredAt: u.cfg.Now(),
	}

	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.users.Create(ctx, newUser); err != nil {
			return err
		}
		data, err := json.Marshal(user.RegisteredEvent{
			UserID:       newUser.ID,
			Username:     newUser.Username,
			RegisteredAt: newUser.RegisteredAt,
		})
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		return u.outbox.Enqueue(ctx, ulid.Make().String(), outbox.KindUserRegistered, data)
	})
	if err != nil {
		return nil, err
	}

	obs.WithTrace(ctx, u.log).Info("user registered",
		zap.String("user_id", newUser.ID), zap.String("username", newUser.Username))
	return newUser, nil
}

type Session struct {
	User  *user.User
	Token domainauth.IssuedToken
}

func (u *Usecase) Login(ctx context.Context, username, password string) (*Session, error) {
	log := obs.WithTrace(ctx, u.log)

	rec, err := u.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return nil, err
		}
		u.hasher.Verify(password, u.decoy)
		log.Info("login failed", zap.String("reason", "unknown username"))
		return nil, domainauth.ErrInvalidCredentials
	}
	if !u.hasher.Verify(password, rec.PasswordHash) {
		log.Info("login failed", zap.String("reason", "password mismatch"), zap.String("user_id", rec.ID))
		return nil, domainauth.ErrInvalidCredentials
	}

	tok, err := u.codec.Issue(domainauth.Identity{UserID: rec.ID, Username: rec.Username})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	log.Info("logged in", zap.String("user_id", rec.ID))
	return &Session{User: rec, Token: tok}, nil
}

// Logout revokes the token that authenticated the request. Errors carry
// ErrStoreUnavailable so the client is told to retry.
func (u *Usecase) Logout(ctx context.Context, id domainauth.Identity, token string) error {
	if err := u.store.Revoke(ctx, token); err != nil {
		return err
	}
	obs.WithTrace(ctx, u.log).Info("logged out", zap.String("user_id", id.UserID))
	return nil
}

func (u *Usecase) Me(ctx context.Context, id domainauth.Identity) (*user.User, error) {
	return u.users.GetByID(ctx, id.UserID)
}
