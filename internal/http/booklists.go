package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/database/booklists"
	"github.com/mrlokans/bookclub/internal/database/books"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/entities"
)

// BookListsController handles the /book-list endpoints.
type BookListsController struct {
	lists *booklists.Repository
	books *books.Repository
}

func NewBookListsController(listRepo *booklists.Repository, bookRepo *books.Repository) *BookListsController {
	return &BookListsController{lists: listRepo, books: bookRepo}
}

type bookListPayload struct {
	Name string `json:"name" binding:"required,max=140"`
}

func (controller *BookListsController) Create(c *gin.Context) {
	var req bookListPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	list := &entities.BookList{
		Name:   strings.TrimSpace(req.Name),
		UserID: auth.GetUserID(c),
		Books:  []*entities.Book{},
	}
	if err := controller.lists.Insert(c.Request.Context(), list, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// Mine lists the caller's active book lists.
func (controller *BookListsController) Mine(c *gin.Context) {
	lists, err := controller.lists.ForUser(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

// Get is public. Deleted lists are reported as missing.
func (controller *BookListsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	list, err := controller.lists.Get(c.Request.Context(), id)
	if err == nil && list.Disabled {
		err = crud.ErrNotFound
	}
	if err != nil {
		respondFindError(c, err, "book list")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (controller *BookListsController) AddBook(c *gin.Context) {
	list, book, ok := controller.ownedListAndBook(c)
	if !ok {
		return
	}
	if err := controller.lists.AddBook(c.Request.Context(), list, book, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (controller *BookListsController) RemoveBook(c *gin.Context) {
	list, book, ok := controller.ownedListAndBook(c)
	if !ok {
		return
	}
	if err := controller.lists.RemoveBook(c.Request.Context(), list, book, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Delete soft-deletes the list and drops its books.
func (controller *BookListsController) Delete(c *gin.Context) {
	list, ok := controller.ownedList(c)
	if !ok {
		return
	}
	if err := controller.lists.Disable(c.Request.Context(), list, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ownedList loads :id and answers 403 unless it exists, is active and
// belongs to the caller.
func (controller *BookListsController) ownedList(c *gin.Context) (*entities.BookList, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	list, err := controller.lists.Get(c.Request.Context(), id)
	if err != nil && !errors.Is(err, crud.ErrNotFound) {
		respondDatabaseError(c, err)
		return nil, false
	}
	if err != nil || list.Disabled || list.UserID != auth.GetUserID(c) {
		respondForbidden(c)
		return nil, false
	}
	return list, true
}

func (controller *BookListsController) ownedListAndBook(c *gin.Context) (*entities.BookList, *entities.Book, bool) {
	list, ok := controller.ownedList(c)
	if !ok {
		return nil, nil, false
	}
	bookID, ok := parseIDParam(c, "book_id")
	if !ok {
		return nil, nil, false
	}
	book, err := controller.books.Find(c.Request.Context(), bookID)
	if err != nil {
		respondFindError(c, err, "book")
		return nil, nil, false
	}
	return list, book, true
}
