package auth

import (
	"errors"
	"fmt"
	"time"

	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTokenTTL = 24 * time.Hour

var ErrEmptySecret = errors.New("token signing secret is empty")

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type CodecConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Now    func() time.Time
}

// Codec issues and verifies HS256 access tokens. It is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

var _ domainauth.TokenCodec = (*Codec)(nil)

func NewCodec(cfg CodecConfig) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Codec{
		secret: secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
		parser: jwt.NewParser(opts...),
	}, nil
}

func (c *Codec) TTL() time.Duration { return c.ttl }

func (c *Codec) Issue(id domainauth.Identity) (domainauth.IssuedToken, error) {
	if id.UserID == "" {
		return domainauth.IssuedToken{}, errors.New("issue token: empty user id")
	}
	// NumericDate has second precision; truncating keeps ExpiresAt equal to the exp claim.
	now := c.now().Truncate(time.Second)
	exp := now.Add(c.ttl)

	claims := Claims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return domainauth.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return domainauth.IssuedToken{Token: signed, ExpiresAt: exp}, nil
}

// Verify fails with ErrTokenExpired once now reaches exp and with ErrTokenInvalid
// for anything that does not carry a valid signature.
func (c *Codec) Verify(token string) (domainauth.Identity, error) {
	var claims Claims
	_, err := c.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domainauth.Identity{}, fmt.Errorf("%w: %v", domainauth.ErrTokenExpired, err)
		}
		return domainauth.Identity{}, fmt.Errorf("%w: %v", domainauth.ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return domainauth.Identity{}, fmt.Errorf("%w: missing subject", domainauth.ErrTokenInvalid)
	}
	return domainauth.Identity{UserID: claims.Subject, Username: claims.Username}, nil
}

// ExpiresAt reads the exp claim without checking the signature.
func (c *Codec) ExpiresAt(token string) (time.Time, error) {
	var claims Claims
	if _, _, err := c.parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", domainauth.ErrTokenInvalid, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp", domainauth.ErrTokenInvalid)
	}
	return claims.ExpiresAt.Time, nil
}
