package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/Vidrate/internal/domain/content"
	"github.com/jackc/pgx/v5"
)

var _ content.Repo = (*ContentRepo)(nil)

type ContentRepo struct {
	db *DB
}

func NewContentRepo(db *DB) *ContentRepo { return &ContentRepo{db: db} }

const contentSelect = `
SELECT c.id, c.video_url, c.comment, c.rating,
       c.video_title, c.thumbnail_url, c.creator_name, c.creator_url,
       c.user_id, c.created_at, c.updated_at,
       u.id, u.username, u.name, u.registered_at`

const (
	qContentInsert = `
WITH c AS (
    INSERT INTO contents (video_url, comment, rating, video_title, thumbnail_url, creator_name, creator_url, user_id)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING *
)` + contentSelect + `
FROM c JOIN users u ON u.id = c.user_id;`

	qContentList = contentSelect + `
FROM contents c JOIN users u ON u.id = c.user_id
ORDER BY c.created_at DESC, c.id DESC;`

	qContentByID = contentSelect + `
FROM contents c JOIN users u ON u.id = c.user_id
WHERE c.id = $1;`

	qContentUpdate = `
WITH c AS (
    UPDATE contents
    SET comment    = $2,
        rating     = $3,
        updated_at = NOW()
    WHERE id = $1
    RETURNING *
)` + contentSelect + `
FROM c JOIN users u ON u.id = c.user_id;`

	qContentDelete = `DELETE FROM contents WHERE id = $1;`
)

func (r *ContentRepo) Create(ctx context.Context, c *content.Content) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qContentInsert,
		c.VideoURL, c.Comment, c.Rating,
		c.VideoTitle, c.ThumbnailURL, c.CreatorName, c.CreatorURL,
		c.UserID,
	)
	if err := scanContent(row, c); err != nil {
		if mapped := mapPgErr(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("content insert: %w", err)
	}
	return nil
}

func (r *ContentRepo) List(ctx context.Context) ([]content.Content, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qContentList)
	if err != nil {
		return nil, fmt.Errorf("content list: %w", err)
	}
	defer rows.Close()

	out := make([]content.Content, 0)
	for rows.Next() {
		var c content.Content
		if err := scanContent(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContentRepo) Get(ctx context.Context, id int64) (*content.Content, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var c content.Content
	if err := scanContent(r.db.execQueryer(ctx).QueryRow(ctx, qContentByID, id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContentRepo) Update(ctx context.Context, id int64, upd content.Update) (*content.Content, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var c content.Content
	row := r.db.execQueryer(ctx).QueryRow(ctx, qContentUpdate, id, upd.Comment, upd.Rating)
	if err := scanContent(row, &c); err != nil {
		if mapped := mapPgErr(err); mapped != err {
			return nil, mapped
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContentRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qContentDelete, id)
	if err != nil {
		return fmt.Errorf("content delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrNotFound
	}
	return nil
}

func scanContent(row pgx.Row, out *content.Content) error {
	var p content.Poster
	if err := row.Scan(
		&out.ID, &out.VideoURL, &out.Comment, &out.Rating,
		&out.VideoTitle, &out.ThumbnailURL, &out.CreatorName, &out.CreatorURL,
		&out.UserID, &out.CreatedAt, &out.UpdatedAt,
		&p.ID, &p.Username, &p.Name, &p.RegisteredAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return content.ErrNotFound
		}
		return fmt.Errorf("scan content: %w", err)
	}
	out.PostedBy = &p
	return nil
}
