package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/database/books"
	"github.com/mrlokans/bookclub/internal/entities"
	"github.com/mrlokans/bookclub/internal/storage"
)

const (
	coverPrefix = "cover_images"
	// maxCoverSize bounds multipart cover uploads.
	maxCoverSize = 10 << 20
)

// BooksController handles the /book endpoints.
type BooksController struct {
	books   *books.Repository
	storage storage.Client
}

// NewBooksController creates the controller. A nil storage client disables
// cover uploads.
func NewBooksController(repo *books.Repository, store storage.Client) *BooksController {
	return &BooksController{books: repo, storage: store}
}

type bookPayload struct {
	Title            string              `json:"title" binding:"required,max=140"`
	Overview         string              `json:"overview" binding:"max=1200"`
	ISBN             string              `json:"isbn" binding:"max=20"`
	PublicationYear  int                 `json:"publication_year" binding:"gte=0"`
	Pages            int                 `json:"pages" binding:"gte=0"`
	Cover            string              `json:"cover" binding:"max=2048"`
	Language         string              `json:"language" binding:"max=30"`
	Status           entities.BookStatus `json:"status"`
	AuthorIDs        []uint              `json:"author_ids" binding:"required,min=1"`
	MainGenreID      uint                `json:"main_genre_id" binding:"required"`
	SecondaryGenreID *uint               `json:"secondary_genre_id"`
	PublisherID      *uint               `json:"publisher_id"`
}

func (p bookPayload) validate() error {
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("invalid status %q", p.Status)
	}
	return nil
}

func (p bookPayload) links() books.Links {
	genres := []uint{p.MainGenreID}
	if p.SecondaryGenreID != nil && *p.SecondaryGenreID != 0 {
		genres = append(genres, *p.SecondaryGenreID)
	}
	return books.Links{AuthorIDs: p.AuthorIDs, GenreIDs: genres, PublisherID: p.PublisherID}
}

func (p bookPayload) status() entities.BookStatus {
	if p.Status == "" {
		return entities.BookStatusPending
	}
	return p.Status
}

// changes lists the columns an update writes. The cover belongs to
// UploadImage, and an omitted status keeps the current one.
func (p bookPayload) changes() map[string]interface{} {
	changes := map[string]interface{}{
		"title":            strings.TrimSpace(p.Title),
		"overview":         p.Overview,
		"isbn":             p.ISBN,
		"publication_year": p.PublicationYear,
		"pages":            p.Pages,
		"language":         p.Language,
	}
	if p.Status != "" {
		changes["status"] = p.Status
	}
	return changes
}

func (controller *BooksController) bind(c *gin.Context) (*bookPayload, bool) {
	var req bookPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return nil, false
	}
	if err := req.validate(); err != nil {
		respondValidationError(c, err)
		return nil, false
	}
	return &req, true
}

// respondWriteError maps unknown author, genre or publisher ids to 422.
func respondWriteError(c *gin.Context, err error) {
	if errors.Is(err, books.ErrUnknownReference) {
		respondValidationError(c, err)
		return
	}
	respondDatabaseError(c, err)
}

// List returns every book, pending ones first.
func (controller *BooksController) List(c *gin.Context) {
	list, err := controller.books.ListAll(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (controller *BooksController) Pending(c *gin.Context) {
	list, err := controller.books.Pending(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (controller *BooksController) LastSevenDays(c *gin.Context) {
	report, err := controller.books.LastSevenDays(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (controller *BooksController) Random(c *gin.Context) {
	book, err := controller.books.Random(c.Request.Context())
	if err != nil {
		respondFindError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) Get(c *gin.Context) {
	book, ok := controller.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) Authors(c *gin.Context) {
	book, ok := controller.find(c)
	if !ok {
		return
	}
	authors, err := controller.books.Authors(c.Request.Context(), book.ID)
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, authors)
}

func (controller *BooksController) Create(c *gin.Context) {
	req, ok := controller.bind(c)
	if !ok {
		return
	}
	book := &entities.Book{
		Title:           strings.TrimSpace(req.Title),
		Overview:        req.Overview,
		ISBN:            req.ISBN,
		PublicationYear: req.PublicationYear,
		Pages:           req.Pages,
		Cover:           req.Cover,
		Language:        req.Language,
		Status:          req.status(),
	}
	if err := controller.books.CreateWithLinks(c.Request.Context(), book, req.links(), auth.Actor(c)); err != nil {
		respondWriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

// Update replaces the columns, authors, genres and publisher of a book.
func (controller *BooksController) Update(c *gin.Context) {
	book, ok := controller.find(c)
	if !ok {
		return
	}
	req, ok := controller.bind(c)
	if !ok {
		return
	}
	if err := controller.books.Replace(c.Request.Context(), book, req.changes(), req.links(), auth.Actor(c)); err != nil {
		respondWriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// UploadImage stores a multipart "file" as the only object under the
// book's cover prefix and saves its public URL as the cover.
func (controller *BooksController) UploadImage(c *gin.Context) {
	if controller.storage == nil {
		respondError(c, http.StatusServiceUnavailable, "cover storage is not configured")
		return
	}
	book, ok := controller.find(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondValidationError(c, err)
		return
	}
	if header.Size > maxCoverSize {
		respondValidationError(c, fmt.Errorf("file exceeds %d bytes", maxCoverSize))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondValidationError(c, err)
		return
	}
	defer file.Close()

	prefix := fmt.Sprintf("%s/%d/", coverPrefix, book.ID)
	url, err := storage.ReplacePrefix(c.Request.Context(), controller.storage, prefix, header.Filename, file, header.Size)
	if err != nil {
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "An error occurred while uploading the image: "+err.Error())
		return
	}
	if err := controller.books.SetCover(c.Request.Context(), book, url, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) Enable(c *gin.Context) {
	book, ok := controller.find(c)
	if !ok {
		return
	}
	if err := controller.books.Enable(c.Request.Context(), book, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) Disable(c *gin.Context) {
	book, ok := controller.find(c)
	if !ok {
		return
	}
	if err := controller.books.Disable(c.Request.Context(), book, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) find(c *gin.Context) (*entities.Book, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	book, err := controller.books.Get(c.Request.Context(), id)
	if err != nil {
		respondFindError(c, err, "book")
		return nil, false
	}
	return book, true
}
