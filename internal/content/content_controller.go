package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"portfolio-site/internal/api"
	"portfolio-site/internal/database"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/listing"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/metrics"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Api defines the public portfolio endpoints.
//
// @Summary Public content API
type Api interface {
	GetPosts(c *gin.Context)
	GetPostBySlug(c *gin.Context)
	GetProjects(c *gin.Context)
	GetProjectById(c *gin.Context)
	GetCtfs(c *gin.Context)
	GetCtfBySlug(c *gin.Context)
	GetTags(c *gin.Context)
	GetAbout(c *gin.Context)
}

// ResponseCache keeps serialized responses by request key.
// SetContent drops the body when the cache was cleared after generation was read.
type ResponseCache interface {
	Generation() uint64
	GetContent(ctx context.Context, key string) ([]byte, bool)
	SetContent(ctx context.Context, key string, body []byte, generation uint64) (bool, error)
}

type Controller struct {
	*environment.Env
	*ContentService
	Cache ResponseCache
}

// ensure Controller implements Api
var _ Api = &Controller{}

// cacheKey identifies a request by path and its query parameters in sorted order
func cacheKey(c *gin.Context) string {
	return c.Request.URL.Path + "?" + c.Request.URL.Query().Encode()
}

// serve answers from the cache, or runs load and caches the successful response
func (cc *Controller) serve(c *gin.Context, load func(ctx context.Context) (string, any, error)) {
	key := cacheKey(c)
	var generation uint64
	if cc.Cache != nil {
		generation = cc.Cache.Generation()
		body, hit := cc.Cache.GetContent(c.Request.Context(), key)
		metrics.ObserveCacheLookup(hit)
		if hit {
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		}
	}

	message, data, err := load(c.Request.Context())
	if errors.Is(err, database.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, api.NewErrorResponse("not found"))
		return
	}
	if err != nil {
		cc.LogErrorf(logging.GetLogTypeContent(), "%s failed: %v", c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("Error fetching content"))
		return
	}

	body, err := json.Marshal(api.NewGenericResponse(api.Success, message, data))
	if err != nil {
		cc.LogErrorf(logging.GetLogTypeContent(), "encoding %s failed: %v", c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("Error encoding content"))
		return
	}

	if cc.Cache != nil {
		stored, err := cc.Cache.SetContent(c.Request.Context(), key, body, generation)
		if err != nil {
			cc.LogWarnf(logging.GetLogTypeContent(), "caching %s failed: %v", key, err)
		} else if !stored {
			cc.LogDebugf(logging.GetLogTypeContent(), "content changed while loading %s; response not cached", key)
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// queryOf reads the q, tag, featured and limit parameters of a list request
func queryOf(c *gin.Context) (listing.Query, bool) {
	q := listing.Query{Term: c.Query("q"), Tag: c.Query("tag")}

	if featured := c.Query("featured"); len(featured) > 0 {
		value, err := strconv.ParseBool(featured)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, api.NewErrorResponsef("invalid featured %q", featured))
			return q, false
		}
		q.FeaturedOnly = value
	}

	if limit := c.Query("limit"); len(limit) > 0 {
		value, err := strconv.Atoi(limit)
		if err != nil || value < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, api.NewErrorResponsef("invalid limit %q", limit))
			return q, false
		}
		q.Limit = value
	}
	return q, true
}

func listMessage(n int) string {
	if n == 0 {
		return api.NoResults
	}
	return ""
}

// GetPosts
//
// @ID getPosts
// @Summary Blog posts, newest first
// @Tags content
// @Router /api/blog-posts/ [get]
// @Param q query string false "Search term (title or excerpt)"
// @Param tag query string false "Tag name; All disables the filter"
// @Param limit query int false "Keep the first n matches"
// @Success 200 {object} api.RestJsonResponse{data=List[models.Post]}
func (cc *Controller) GetPosts(c *gin.Context) {
	q, ok := queryOf(c)
	if !ok {
		return
	}
	cc.serve(c, func(ctx context.Context) (string, any, error) {
		posts, err := cc.Posts(ctx, q)
		return listMessage(len(posts.Items)), posts, err
	})
}

// GetPostBySlug
//
// @ID getPostBySlug
// @Tags content
// @Router /api/blog-posts/{slug}/ [get]
// @Param slug path string true "Post slug"
// @Success 200 {object} api.RestJsonResponse{data=models.Post}
// @Failure 404 {object} api.RestJsonResponse{data=string}
func (cc *Controller) GetPostBySlug(c *gin.Context) {
	slug := c.Param("slug")
	cc.serve(c, func(ctx context.Context) (string, any, error) {
		post, err := cc.Post(ctx, slug)
		return "", post, err
	})
}

// GetProjects
//
// @ID getProjects
// @Tags content
// @Router /api/projects/ [get]
// @Param q query string false "Search term (title or description)"
// @Param tag query string false "Tag name; All disables the filter"
// @Param featured query bool false "Featured projects only"
// @Param limit query int false "Keep the first n matches"
// @Success 200 {object} api.RestJsonResponse{data=List[models.Project]}
func (cc *Controller) GetProjects(c *gin.Context) {
	q, ok := queryOf(c)
	if !ok {
		return
	}
	cc.serve(c, func(ctx context.Context) (string, any, error) {
		projects, err := cc.Projects(ctx, q)
		return listMessage(len(projects.Items)), projects, err
	})
}

// GetProjectById
//
// @ID getProjectById
// @Tags content
// @Router /api/projects/{id}/ [get]
// @Param id path int true "Project id"
// @Success 200 {object} api.RestJsonResponse{data=models.Project}
// @Failure 404 {object} api.RestJsonResponse{data=string}
func (cc *Controller) GetProjectById(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewErrorResponsef("invalid id %q", c.Param("id")))
		return
	}
	cc.serve(c, func(ctx context.Context) (string, any, error) {
		project, err := cc.Project(ctx, uint(id))
		return "", project, err
	})
}

// GetCtfs
//
// @ID getCtfs
// @Tags content
// @Router /api/ctfs/ [get]
// @Param q query string false "Search term (event name or description)"
// @Param featured query bool false "Featured entries only"
// @Param limit query int false "Keep the first n matches"
// @Success 200 {object} api.RestJsonResponse{data=List[models.Ctf]}
func (cc *Controller) GetCtfs(c *gin.Context) {
	q, ok := queryOf(c)
	if !ok {
		return
	}
	cc.serve(c, func(ctx context.Context) (string, any, error) {
		ctfs, err := cc.Ctfs(ctx, q)
		return listMessage(len(ctfs.Items)), ctfs, err
	})
}

// GetCtfBySlug
//
// @ID getCtfBySlug
// @Tags content
// @Router /api/ctfs/{slug}/ [get]
// @Param slug path string true "Competition log slug"
// @Success 200 {object} api.RestJsonResponse{data=models.Ctf}
// @Failure 404 {object} api.RestJsonResponse{data=string}
func (cc *Controller) GetCtfBySlug(c *gin.Context) {
	slug := c.Param("slug")
	cc.serve(c, func(ctx context.Context) (string, any, error) {
		ctf, err := cc.Ctf(ctx, slug)
		return "", ctf, err
	})
}

// GetTags
//
// @ID getTags
// @Tags content
// @Router /api/tags/ [get]
// @Param category query bool false "Navigation categories only"
// @Success 200 {object} api.RestJsonResponse{data=[]models.Tag}
func (cc *Controller) GetTags(c *gin.Context) {
	categoriesOnly, _ := strconv.ParseBool(c.Query("category"))
	cc.serve(c, func(ctx context.Context) (string, any, error) {
		tags, err := cc.Tags(ctx, categoriesOnly)
		return listMessage(len(tags)), tags, err
	})
}

// GetAbout
//
// @ID getAbout
// @Tags content
// @Router /api/about/ [get]
// @Success 200 {object} api.RestJsonResponse{data=models.About}
// @Failure 404 {object} api.RestJsonResponse{data=string}
func (cc *Controller) GetAbout(c *gin.Context) {
	cc.serve(c, func(ctx context.Context) (string, any, error) {
		about, err := cc.About(ctx)
		return "", about, err
	})
}
