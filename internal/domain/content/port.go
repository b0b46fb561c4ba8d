package content

import "context"

type Repo interface {
	Create(ctx context.Context, c *Content) error
	List(ctx context.Context) ([]Content, error)
	Get(ctx context.Context, id int64) (*Content, error)
	Update(ctx context.Context, id int64, upd Update) (*Content, error)
	Delete(ctx context.Context, id int64) error
}

// VideoLookup resolves display metadata for a video URL.
type VideoLookup interface {
	Details(ctx context.Context, videoURL string) (VideoDetails, error)
}
