package auth

import (
	"net/http"
	"time"

	coreauth "github.com/NordCoder/Vidrate/internal/auth"
	"github.com/NordCoder/Vidrate/internal/domain/user"
	"github.com/NordCoder/Vidrate/internal/obs"
	"github.com/NordCoder/Vidrate/internal/services/api/httpx"
	"go.uber.org/zap"
)

type Controller struct {
	uc  *Usecase
	log *zap.Logger
}

func NewController(uc *Usecase, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{uc: uc, log: log.Named("auth.http")}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Username string `json:"username" validate:"required,notblank,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Status      string     `json:"status"`
	User        *user.User `json:"user"`
	ID          string     `json:"id"`
	AccessToken string     `json:"accessToken"`
	ExpiresAt   time.Time  `json:"expiresAt"`
}

func (c *Controller) Register(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		c.fail(w, r, err)
		return
	}
	u, err := c.uc.Register(r.Context(), RegisterInput{Name: req.Name, Username: req.Username, Password: req.Password})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (c *Controller) Login(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		c.fail(w, r, err)
		return
	}
	s, err := c.uc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, loginResponse{
		Status:      "logged in",
		User:        s.User,
		ID:          s.User.ID,
		AccessToken: s.Token.Token,
		ExpiresAt:   s.Token.ExpiresAt,
	})
}

func (c *Controller) Logout(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	id, _ := coreauth.IdentityFromContext(r.Context())
	token, _ := coreauth.TokenFromContext(r.Context())
	if err := c.uc.Logout(r.Context(), id, token); err != nil {
		c.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.StatusBody{Status: "logged out"})
}

func (c *Controller) Me(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	id, _ := coreauth.IdentityFromContext(r.Context())
	u, err := c.uc.Me(r.Context(), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (c *Controller) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := httpx.WriteErr(w, err); status >= http.StatusInternalServerError {
		obs.WithTrace(r.Context(), c.log).Error("request failed",
			zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
}
