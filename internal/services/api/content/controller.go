package content

import (
	"net/http"

	coreauth "github.com/NordCoder/Vidrate/internal/auth"
	"github.com/NordCoder/Vidrate/internal/domain/content"
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
	return &Controller{uc: uc, log: log.Named("content.http")}
}

type createRequest struct {
	VideoURL string `json:"videoUrl" validate:"required,url"`
	Comment  string `json:"comment" validate:"required,notblank,max=2000"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
}

type updateRequest struct {
	Comment string `json:"comment" validate:"required,notblank,max=2000"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

type listResponse struct {
	Data []content.Content `json:"data"`
}

type deleteResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	items, err := c.uc.List(r.Context())
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if items == nil {
		items = []content.Content{}
	}
	httpx.WriteJSON(w, http.StatusOK, listResponse{Data: items})
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := httpx.PathInt64(params, "id")
	if err != nil {
		c.fail(w, r, err)
		return
	}
	item, err := c.uc.Get(r.Context(), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, item)
}

func (c *Controller) Create(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req createRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		c.fail(w, r, err)
		return
	}
	by, _ := coreauth.IdentityFromContext(r.Context())
	item, err := c.uc.Create(r.Context(), by, CreateInput{
		VideoURL: req.VideoURL,
		Comment:  req.Comment,
		Rating:   req.Rating,
	})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, item)
}

func (c *Controller) Update(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := httpx.PathInt64(params, "id")
	if err != nil {
		c.fail(w, r, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		c.fail(w, r, err)
		return
	}
	by, _ := coreauth.IdentityFromContext(r.Context())
	item, err := c.uc.Update(r.Context(), by, id, content.Update{Comment: req.Comment, Rating: req.Rating})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, item)
}

func (c *Controller) Delete(w http.ResponseWriter, r *http.Request, params map[string]string) {
	id, err := httpx.PathInt64(params, "id")
	if err != nil {
		c.fail(w, r, err)
		return
	}
	by, _ := coreauth.IdentityFromContext(r.Context())
	if err := c.uc.Delete(r.Context(), by, id); err != nil {
		c.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, deleteResponse{Status: "deleted", ID: id})
}

func (c *Controller) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := httpx.WriteErr(w, err); status >= http.StatusInternalServerError {
		obs.WithTrace(r.Context(), c.log).Error("request failed",
			zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
}
