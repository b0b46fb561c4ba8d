package content

import (
	"errors"
	"time"
)

type Poster struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type Content struct {
	ID           int64     `json:"id"`
	VideoURL     string    `json:"videoUrl"`
	Comment      string    `json:"comment"`
	Rating       int       `json:"rating"`
	VideoTitle   string    `json:"videoTitle"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	CreatorName  string    `json:"creatorName"`
	CreatorURL   string    `json:"creatorUrl"`
	UserID       string    `json:"userId"`
	PostedBy     *Poster   `json:"postedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type VideoDetails struct {
	Title        string
	ThumbnailURL string
	CreatorName  string
	CreatorURL   string
}

type Update struct {
	Comment string
	Rating  int
}

type Event struct {
	ContentID int64     `json:"contentId"`
	UserID    string    `json:"userId"`
	VideoURL  string    `json:"videoUrl,omitempty"`
	Rating    int       `json:"rating,omitempty"`
	At        time.Time `json:"at"`
}

var (
	ErrNotFound         = errors.New("content not found")
	ErrUnsupportedVideo = errors.New("unsupported video url")
	ErrVideoLookup      = errors.New("video provider unavailable")
)
