package controller

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"fablefeed-backend/internal/repository"
	"fablefeed-backend/internal/service"
	"fablefeed-backend/pkg/middleware"
	"fablefeed-backend/utilities"
)

type BookController struct {
	BookService service.BookService
	TagRepo     repository.TagRepository
}

func NewBookController(bookService service.BookService, tagRepo repository.TagRepository) *BookController {
	return &BookController{BookService: bookService, TagRepo: tagRepo}
}

// List handles GET /books. The type parameter switches between the plain
// catalogue, related_books, book_progress and completed_books listings.
func (bc *BookController) List(c *gin.Context) {
	identity := middleware.ResolveIdentity(c, c.Query("guest_id"))

	tagNames, err := bc.resolveTagNames(c.Request.Context(), c.QueryArray("tags"))
	if err != nil {
		fail(c, err)
		return
	}

	q := service.BookListQuery{
		Search:     strings.TrimSpace(c.Query("search")),
		Author:     strings.TrimSpace(c.Query("author")),
		CategoryID: uintQuery(c, "category_id"),
		SortBy:     c.Query("sort_by"),
		SortAsc:    c.Query("sort_dir") == "asc",
		Page:       intQuery(c, "page", 1),
		PerPage:    intQuery(c, "per_page", 20),
		Type:       c.Query("type"),
		TagNames:   tagNames,
	}

	list, err := bc.BookService.List(c.Request.Context(), identity, q)
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "books", list)
}

func (bc *BookController) Details(c *gin.Context) {
	bookID := uintParam(c, "id")
	if bookID == 0 {
		utilities.Fail(c, http.StatusBadRequest, "invalid book id")
		return
	}
	identity := middleware.ResolveIdentity(c, c.Query("guest_id"))
	details, err := bc.BookService.GetDetails(c.Request.Context(), identity, bookID)
	if err != nil {
		fail(c, err)
		return
	}
	utilities.OK(c, "book", details)
}

// resolveTagNames accepts either numeric tag ids or raw names.
func (bc *BookController) resolveTagNames(ctx context.Context, raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(raw))
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			ids = append(ids, uint(id))
		} else {
			names = append(names, v)
		}
	}
	if len(ids) > 0 {
		tags, err := bc.TagRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			names = append(names, t.Name)
		}
	}
	return names, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func uintQuery(c *gin.Context, key string) uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func uintParam(c *gin.Context, key string) uint {
	v, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
