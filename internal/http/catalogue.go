package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/entities"
)

// cataloguePayload is a request body that can create a record of T or
// describe a full replacement of its columns.
type cataloguePayload[T any] interface {
	record() (*T, error)
	changes() (map[string]interface{}, error)
}

// CatalogueController serves the admin CRUD endpoints shared by authors,
// genres and publishers.
type CatalogueController[T any, P crud.Record[T], R cataloguePayload[T]] struct {
	repo     *crud.Repository[T, P]
	resource string
	orderBy  string
}

func NewCatalogueController[T any, P crud.Record[T], R cataloguePayload[T]](repo *crud.Repository[T, P], resource string) *CatalogueController[T, P, R] {
	return &CatalogueController[T, P, R]{repo: repo, resource: resource, orderBy: "name"}
}

// List returns enabled records ordered by name.
func (controller *CatalogueController[T, P, R]) List(c *gin.Context) {
	list, err := controller.repo.List(c.Request.Context(), crud.Query{
		Conds:   []crud.Cond{crud.NotDisabled()},
		OrderBy: controller.orderBy,
	})
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (controller *CatalogueController[T, P, R]) Get(c *gin.Context) {
	record, ok := controller.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record)
}

func (controller *CatalogueController[T, P, R]) Create(c *gin.Context) {
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	record, err := req.record()
	if err != nil {
		respondValidationError(c, err)
		return
	}
	if err := controller.repo.Insert(c.Request.Context(), P(record), auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Update replaces every editable column of the record.
func (controller *CatalogueController[T, P, R]) Update(c *gin.Context) {
	record, ok := controller.find(c)
	if !ok {
		return
	}
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	changes, err := req.changes()
	if err != nil {
		respondValidationError(c, err)
		return
	}
	if err := controller.repo.Update(c.Request.Context(), record, changes, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (controller *CatalogueController[T, P, R]) Enable(c *gin.Context) {
	record, ok := controller.find(c)
	if !ok {
		return
	}
	if err := controller.repo.Enable(c.Request.Context(), record, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (controller *CatalogueController[T, P, R]) Disable(c *gin.Context) {
	record, ok := controller.find(c)
	if !ok {
		return
	}
	if err := controller.repo.Disable(c.Request.Context(), record, auth.Actor(c)); err != nil {
		respondDatabaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (controller *CatalogueController[T, P, R]) find(c *gin.Context) (P, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	record, err := controller.repo.Find(c.Request.Context(), id)
	if err != nil {
		respondFindError(c, err, controller.resource)
		return nil, false
	}
	return record, true
}

// --- Payloads ---

type genrePayload struct {
	Name        string `json:"name" binding:"required,max=60"`
	Description string `json:"description" binding:"max=500"`
}

func (p genrePayload) record() (*entities.Genre, error) {
	return &entities.Genre{Name: strings.TrimSpace(p.Name), Description: p.Description}, nil
}

func (p genrePayload) changes() (map[string]interface{}, error) {
	return map[string]interface{}{
		"name":        strings.TrimSpace(p.Name),
		"description": p.Description,
	}, nil
}

type publisherPayload struct {
	Name string `json:"name" binding:"required,max=100"`
}

func (p publisherPayload) record() (*entities.Publisher, error) {
	return &entities.Publisher{Name: strings.TrimSpace(p.Name)}, nil
}

func (p publisherPayload) changes() (map[string]interface{}, error) {
	return map[string]interface{}{"name": strings.TrimSpace(p.Name)}, nil
}

type authorPayload struct {
	Name           string `json:"name" binding:"required,max=60"`
	FirstLastName  string `json:"first_last_name" binding:"max=60"`
	SecondLastName string `json:"second_last_name" binding:"max=60"`
	DateOfBirth    string `json:"date_of_birth"`
	Country        string `json:"country" binding:"max=60"`
	City           string `json:"city" binding:"max=60"`
	Biography      string `json:"biography" binding:"max=1200"`
	Picture        string `json:"picture" binding:"max=2048"`
}

func (p authorPayload) record() (*entities.Author, error) {
	dob, err := entities.ParseDate(p.DateOfBirth)
	if err != nil {
		return nil, err
	}
	return &entities.Author{
		Name:           strings.TrimSpace(p.Name),
		FirstLastName:  p.FirstLastName,
		SecondLastName: p.SecondLastName,
		DateOfBirth:    dob,
		Country:        p.Country,
		City:           p.City,
		Biography:      p.Biography,
		Picture:        p.Picture,
	}, nil
}

func (p authorPayload) changes() (map[string]interface{}, error) {
	dob, err := entities.ParseDate(p.DateOfBirth)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"name":             strings.TrimSpace(p.Name),
		"first_last_name":  p.FirstLastName,
		"second_last_name": p.SecondLastName,
		"date_of_birth":    dob,
		"country":          p.Country,
		"city":             p.City,
		"biography":        p.Biography,
		"picture":          p.Picture,
	}, nil
}

type (
	GenresController     = CatalogueController[entities.Genre, *entities.Genre, genrePayload]
	PublishersController = CatalogueController[entities.Publisher, *entities.Publisher, publisherPayload]
)

func NewGenresController(repo *crud.Repository[entities.Genre, *entities.Genre]) *GenresController {
	return NewCatalogueController[entities.Genre, *entities.Genre, genrePayload](repo, "genre")
}

func NewPublishersController(repo *crud.Repository[entities.Publisher, *entities.Publisher]) *PublishersController {
	return NewCatalogueController[entities.Publisher, *entities.Publisher, publisherPayload](repo, "publisher")
}
