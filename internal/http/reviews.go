package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/database/books"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/database/reviews"
	"github.com/mrlokans/bookclub/internal/entities"
	"github.com/mrlokans/bookclub/internal/logging"
)

// ReviewNotifier tells the friends of a reviewer about a new review.
// Implemented by the task queue client and by tasks.InlineNotifier.
type ReviewNotifier interface {
	NotifyReview(ctx context.Context, authorID, bookID uint) error
}

// ReviewsController handles the /review endpoints.
type ReviewsController struct {
	reviews  *reviews.Repository
	books    *books.Repository
	notifier ReviewNotifier
	log      *logging.Logger
}

func NewReviewsController(repo *reviews.Repository, bookRepo *books.Repository, notifier ReviewNotifier, log *logging.Logger) *ReviewsController {
	return &ReviewsController{reviews: repo, books: bookRepo, notifier: notifier, log: log}
}

type reviewPayload struct {
	Title   string `json:"title" binding:"required,max=140"`
	Content string `json:"content" binding:"max=2000"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
}

// updateReviewPayload lets admins moderate a review; Disabled hides it from
// the public listings when true and restores it when false.
type updateReviewPayload struct {
	reviewPayload
	Disabled *bool `json:"disabled"`
}

type createReviewPayload struct {
	reviewPayload
	BookID uint `json:"book_id" binding:"required"`
}

func (controller *ReviewsController) List(c *gin.Context) {
	list, err := controller.reviews.List(c.Request.Context(), crud.Query{Preloads: []string{"User", "Book"}})
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (controller *ReviewsController) LastSevenDays(c *gin.Context) {
	report, err := controller.reviews.LastSevenDays(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// FriendsReviews lists what the caller's friends have reviewed.
func (controller *ReviewsController) FriendsReviews(c *gin.Context) {
	list, err := controller.reviews.FriendsReviews(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (controller *ReviewsController) ByBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "book_id")
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	list, err := controller.reviews.ByBook(c.Request.Context(), bookID, limit)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (controller *ReviewsController) ByUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	list, err := controller.reviews.ByUser(c.Request.Context(), userID)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (controller *ReviewsController) Get(c *gin.Context) {
	review, ok := controller.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, review)
}

// Create stores a review by the caller and notifies their friends.
func (controller *ReviewsController) Create(c *gin.Context) {
	var req createReviewPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	ctx := c.Request.Context()

	if exists, err := controller.books.Exists(ctx, crud.Eq("id", req.BookID)); err != nil {
		respondDatabaseError(c, err)
		return
	} else if !exists {
		respondValidationError(c, books.ErrUnknownReference)
		return
	}

	userID := auth.GetUserID(c)
	review := &entities.Review{
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
		Rating:  req.Rating,
		BookID:  req.BookID,
		UserID:  userID,
	}
	if err := controller.reviews.Insert(ctx, review, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}

	if controller.notifier != nil {
		if err := controller.notifier.NotifyReview(ctx, userID, review.BookID); err != nil {
			controller.log.Warn("failed to notify friends of review", "review_id", review.ID, "error", err)
		}
	}
	c.JSON(http.StatusCreated, review)
}

func (controller *ReviewsController) Update(c *gin.Context) {
	review, ok := controller.find(c)
	if !ok {
		return
	}
	var req updateReviewPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	actor := auth.Actor(c)
	changes := map[string]interface{}{
		"title":   strings.TrimSpace(req.Title),
		"content": req.Content,
		"rating":  req.Rating,
	}
	switch {
	case req.Disabled == nil:
	case *req.Disabled:
		changes["disabled"] = true
		changes["disabled_at"] = time.Now()
		changes["disabled_by"] = actor
	default:
		changes["disabled"] = false
		changes["disabled_at"] = nil
		changes["disabled_by"] = nil
	}
	if err := controller.reviews.Update(c.Request.Context(), review, changes, actor); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (controller *ReviewsController) Enable(c *gin.Context) {
	review, ok := controller.find(c)
	if !ok {
		return
	}
	if err := controller.reviews.Enable(c.Request.Context(), review, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (controller *ReviewsController) Disable(c *gin.Context) {
	review, ok := controller.find(c)
	if !ok {
		return
	}
	if err := controller.reviews.Disable(c.Request.Context(), review, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (controller *ReviewsController) find(c *gin.Context) (*entities.Review, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	review, err := controller.reviews.Find(c.Request.Context(), id, "User", "Book")
	if err != nil {
		respondFindError(c, err, "review")
		return nil, false
	}
	return review, true
}
