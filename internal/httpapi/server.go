// Package httpapi exposes the search and catalog services over JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gamehub-dev/gamehub/internal/catalog"
	"github.com/gamehub-dev/gamehub/internal/forum"
	"github.com/gamehub-dev/gamehub/internal/search"
)

// MaxPages caps the page count reported to clients. Deep pagination past this
// point is never rendered by the frontend and only invites crawlers.
const MaxPages = 500

// Server wires the domain services into gin handlers. Similar is optional;
// when nil the similar-games endpoint serves empty lists.
type Server struct {
	Games   *catalog.Searcher
	Catalog *catalog.Store
	Posts   *forum.Searcher
	Similar SimilarService
}

// SimilarService is the nearest-neighbor lookup the /similar endpoint needs.
type SimilarService interface {
	SimilarGames(ctx context.Context, gameID int64, limit int) ([]catalog.GameSummary, error)
}

// Router builds the HTTP routing table.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/games", s.listGames)
	api.GET("/games/top-rated", s.topRated)
	api.GET("/games/suggestions", s.gameSuggestions)
	api.GET("/games/:slug", s.gameDetail)
	api.GET("/games/:slug/similar", s.similarGames)
	api.GET("/posts", s.listPosts)
	api.GET("/posts/suggestions", s.postSuggestions)
	api.GET("/suggestions", s.combinedSuggestions)
	return r
}

// queryText reverses the frontend's URL encoding, which joins words with
// hyphens instead of percent-encoded spaces.
func queryText(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "-", " "))
}

func actorID(c *gin.Context) int64 {
	id, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func capPages(pages int) int {
	if pages > MaxPages {
		return MaxPages
	}
	return pages
}

func (s *Server) listGames(c *gin.Context) {
	out, err := s.Games.List(c.Request.Context(),
		queryText(c.Query("q")),
		c.DefaultQuery("s", search.SortRelevance),
		c.DefaultQuery("g", catalog.AllGenres),
		search.ParsePage(c.Query("p")),
	)
	if err != nil {
		serverError(c, err, "game search failed")
		return
	}
	if len(out.Items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No Games Found"})
		return
	}

	genres, err := s.Catalog.Genres(c.Request.Context())
	if err != nil {
		log.Warn().Err(err).Msg("genre listing failed; serving games without genres")
		genres = []catalog.Genre{}
	}

	c.JSON(http.StatusOK, gin.H{
		"games":  out.Items,
		"pages":  capPages(out.Pages),
		"genres": genres,
	})
}

func (s *Server) topRated(c *gin.Context) {
	games, err := s.Catalog.TopRated(c.Request.Context())
	if err != nil {
		serverError(c, err, "top-rated listing failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (s *Server) gameSuggestions(c *gin.Context) {
	games, err := s.Games.Suggest(c.Request.Context(), queryText(c.Query("q")))
	if err != nil {
		serverError(c, err, "game suggestions failed")
		return
	}
	if len(games) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No Games Found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (s *Server) gameDetail(c *gin.Context) {
	game, videos, screenshots, err := s.Catalog.GameBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No Games Found"})
			return
		}
		serverError(c, err, "game detail failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"game":        game,
		"videos":      videos,
		"screenshots": screenshots,
	})
}

func (s *Server) similarGames(c *gin.Context) {
	game, _, _, err := s.Catalog.GameBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No Games Found"})
			return
		}
		serverError(c, err, "game detail failed")
		return
	}

	games := []catalog.GameSummary{}
	if s.Similar != nil {
		games, err = s.Similar.SimilarGames(c.Request.Context(), game.ID, 0)
		if err != nil {
			serverError(c, err, "similar games failed")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (s *Server) listPosts(c *gin.Context) {
	out, err := s.Posts.List(c.Request.Context(),
		queryText(c.Query("q")),
		c.DefaultQuery("s", search.SortRelevance),
		c.Query("t"),
		search.ParsePage(c.Query("p")),
		actorID(c),
	)
	if err != nil {
		serverError(c, err, "post search failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"posts": out.Items,
		"pages": capPages(out.Pages),
	})
}

func (s *Server) postSuggestions(c *gin.Context) {
	posts, err := s.Posts.Suggest(c.Request.Context(), queryText(c.Query("q")))
	if err != nil {
		serverError(c, err, "post suggestions failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// combinedSuggestions fans out to both suggesters concurrently and merges the
// results into one payload for the site-wide search box.
func (s *Server) combinedSuggestions(c *gin.Context) {
	text := queryText(c.Query("q"))

	var (
		games []catalog.GameSummary
		posts []forum.PostSummary
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		games, err = s.Games.Suggest(ctx, text)
		return err
	})
	g.Go(func() error {
		var err error
		posts, err = s.Posts.Suggest(ctx, text)
		return err
	})
	if err := g.Wait(); err != nil {
		serverError(c, err, "combined suggestions failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games, "posts": posts})
}

func serverError(c *gin.Context, err error, msg string) {
	log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
}
