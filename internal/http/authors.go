package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookclub/internal/database/books"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/entities"
)

// AuthorsController handles the /author endpoints.
type AuthorsController struct {
	*CatalogueController[entities.Author, *entities.Author, authorPayload]
	books *books.Repository
}

func NewAuthorsController(repo *crud.Repository[entities.Author, *entities.Author], bookRepo *books.Repository) *AuthorsController {
	return &AuthorsController{
		CatalogueController: NewCatalogueController[entities.Author, *entities.Author, authorPayload](repo, "author"),
		books:               bookRepo,
	}
}

// Books lists the enabled books written by the author.
func (controller *AuthorsController) Books(c *gin.Context) {
	author, ok := controller.find(c)
	if !ok {
		return
	}
	list, err := controller.books.ByAuthor(c.Request.Context(), author.ID)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
