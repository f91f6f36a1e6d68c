package forum

import "time"

// PostSummary is the list/suggestion projection of a forum post, with the
// author and game references flattened in.
type PostSummary struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	PostType     string    `json:"post_type"`
	AuthorID     int64     `json:"author_id"`
	Author       string    `json:"author"`
	GameID       *int64    `json:"game_id"`
	CreatedAt    time.Time `json:"created_at"`
	LikeCount    int       `json:"like_count"`
	DislikeCount int       `json:"dislike_count"`
	CommentCount int       `json:"comment_count"`
	Views        int       `json:"views"`
}
