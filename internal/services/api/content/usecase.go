package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/NordCoder/Vidrate/internal/domain/content"
	"github.com/NordCoder/Vidrate/internal/domain/outbox"
	"github.com/NordCoder/Vidrate/internal/obs"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type Usecase struct {
	repo   content.Repo
	videos content.VideoLookup
	outbox outbox.Repository
	tx     outbox.Transactor
	now    func() time.Time
	log    *zap.Logger
}

func NewUseCase(repo content.Repo, videos content.VideoLookup, ob outbox.Repository, tx outbox.Transactor, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		repo:   repo,
		videos: videos,
		outbox: ob,
		tx:     tx,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log.Named("content.usecase"),
	}
}

type CreateInput struct {
	VideoURL string
	Comment  string
	Rating   int
}

func (u *Usecase) Create(ctx context.Context, by domainauth.Identity, in CreateInput) (*content.Content, error) {
	details, err := u.videos.Details(ctx, in.VideoURL)
	if err != nil {
		if errors.Is(err, content.ErrUnsupportedVideo) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", content.ErrVideoLookup, err)
	}

	c := &content.Content{
		VideoURL:     in.VideoURL,
		Comment:      in.Comment,
		Rating:       in.Rating,
		VideoTitle:   details.Title,
		ThumbnailURL: details.ThumbnailURL,
		CreatorName:  details.CreatorName,
		CreatorURL:   details.CreatorURL,
		UserID:       by.UserID,
	}
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.repo.Create(ctx, c); err != nil {
			return err
		}
		return u.emit(ctx, outbox.KindContentCreated, c)
	})
	if err != nil {
		return nil, err
	}
	obs.WithTrace(ctx, u.log).Info("content created",
		zap.Int64("content_id", c.ID), zap.String("user_id", by.UserID))
	return c, nil
}

func (u *Usecase) List(ctx context.Context) ([]content.Content, error) {
	return u.repo.List(ctx)
}

func (u *Usecase) Get(ctx context.Context, id int64) (*content.Content, error) {
	return u.repo.Get(ctx, id)
}

func (u *Usecase) Update(ctx context.Context, by domainauth.Identity, id int64, upd content.Update) (*content.Content, error) {
	var out *content.Content
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		c, err := u.repo.Update(ctx, id, upd)
		if err != nil {
			return err
		}
		out = c
		return u.emit(ctx, outbox.KindContentUpdated, &content.Content{
			ID: c.ID, UserID: by.UserID, VideoURL: c.VideoURL, Rating: c.Rating,
		})
	})
	if err != nil {
		return nil, err
	}
	obs.WithTrace(ctx, u.log).Info("content updated",
		zap.Int64("content_id", id), zap.String("user_id", by.UserID))
	return out, nil
}

func (u *Usecase) Delete(ctx context.Context, by domainauth.Identity, id int64) error {
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.repo.Delete(ctx, id); err != nil {
			return err
		}
		return u.emit(ctx, outbox.KindContentDeleted, &content.Content{ID: id, UserID: by.UserID})
	})
	if err != nil {
		return err
	}
	obs.WithTrace(ctx, u.log).Info("content deleted",
		zap.Int64("content_id", id), zap.String("user_id", by.UserID))
	return nil
}

// emit must run inside WithTx so the event commits with the row change.
func (u *Usecase) emit(ctx context.Context, kind outbox.Kind, c *content.Content) error {
	data, err := json.Marshal(content.Event{
		ContentID: c.ID,
		UserID:    c.UserID,
		VideoURL:  c.VideoURL,
		Rating:    c.Rating,
		At:        u.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	return u.outbox.Enqueue(ctx, ulid.Make().String(), kind, data)
}
