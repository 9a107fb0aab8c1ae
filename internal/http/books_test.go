package http

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookclub/internal/entities"
	"github.com/mrlokans/bookclub/internal/storage"
	"github.com/mrlokans/bookclub/internal/storage/mocks"
)

func TestBooksController_CreateAndGet(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	_, userToken := api.createUser(entities.RoleUser, "user@example.com")
	author, genre, publisher := api.seedCatalogue()

	w := api.do(http.MethodPost, "/api/book", adminToken, map[string]any{
		"title":            "The Left Hand of Darkness",
		"isbn":             "9780441478125",
		"publication_year": 1969,
		"pages":            304,
		"author_ids":       []uint{author.ID},
		"main_genre_id":    genre.ID,
		"publisher_id":     publisher.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[entities.Book](t, w)
	assert.Equal(t, entities.BookStatusPending, created.Status)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/book/%d", created.ID), userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	book := decode[entities.Book](t, w)
	require.Len(t, book.Authors, 1)
	assert.Equal(t, "Ursula", book.Authors[0].Name)
	require.Len(t, book.Genres, 1)
	require.NotNil(t, book.Publisher)
	assert.Equal(t, "Parnassus", book.Publisher.Name)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/book/%d/authors", created.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Author](t, w), 1)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/book/999", userToken, nil).Code)
}

func TestBooksController_CreateValidation(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	author, genre, _ := api.seedCatalogue()

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing title", body: map[string]any{"author_ids": []uint{author.ID}, "main_genre_id": genre.ID}},
		{name: "no authors", body: map[string]any{"title": "T", "author_ids": []uint{}, "main_genre_id": genre.ID}},
		{name: "unknown author", body: map[string]any{"title": "T", "author_ids": []uint{999}, "main_genre_id": genre.ID}},
		{name: "unknown genre", body: map[string]any{"title": "T", "author_ids": []uint{author.ID}, "main_genre_id": 999}},
		{name: "unknown secondary genre", body: map[string]any{"title": "T", "author_ids": []uint{author.ID}, "main_genre_id": genre.ID, "secondary_genre_id": 998}},
		{name: "unknown publisher", body: map[string]any{"title": "T", "author_ids": []uint{author.ID}, "main_genre_id": genre.ID, "publisher_id": 999}},
		{name: "bad status", body: map[string]any{"title": "T", "author_ids": []uint{author.ID}, "main_genre_id": genre.ID, "status": "LOST"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPost, "/api/book", adminToken, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		})
	}

	var n int64
	require.NoError(t, api.db.Model(&entities.Book{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestBooksController_UpdateReplacesLinks(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	author, genre, _ := api.seedCatalogue()

	second := &entities.Genre{Name: "Science Fiction"}
	require.NoError(t, api.db.Create(second).Error)
	coAuthor := &entities.Author{Name: "Vonda", FirstLastName: "McIntyre"}
	require.NoError(t, api.db.Create(coAuthor).Error)

	w := api.do(http.MethodPost, "/api/book", adminToken, map[string]any{
		"title": "Draft", "author_ids": []uint{author.ID}, "main_genre_id": genre.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[entities.Book](t, w).ID

	w = api.do(http.MethodPut, fmt.Sprintf("/api/book/%d", id), adminToken, map[string]any{
		"title":              "Final",
		"status":             "ACTIVE",
		"author_ids":         []uint{coAuthor.ID},
		"main_genre_id":      genre.ID,
		"secondary_genre_id": second.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[entities.Book](t, w)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, entities.BookStatusActive, updated.Status)
	require.Len(t, updated.Authors, 1)
	assert.Equal(t, "Vonda", updated.Authors[0].Name)
	assert.Len(t, updated.Genres, 2)
}

func TestBooksController_UpdateKeepsCoverAndStatus(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	author, genre, _ := api.seedCatalogue()

	const cover = "https://cdn.example/cover_images/1/a.png"
	book := api.createBook("Dune", entities.BookStatusActive)
	require.NoError(t, api.db.Model(book).Update("cover", cover).Error)

	w := api.do(http.MethodPut, fmt.Sprintf("/api/book/%d", book.ID), adminToken, map[string]any{
		"title":         "Dune Messiah",
		"cover":         "https://elsewhere.example/x.png",
		"author_ids":    []uint{author.ID},
		"main_genre_id": genre.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored entities.Book
	require.NoError(t, api.db.First(&stored, book.ID).Error)
	assert.Equal(t, "Dune Messiah", stored.Title)
	assert.Equal(t, entities.BookStatusActive, stored.Status)
	assert.Equal(t, cover, stored.Cover)

	w = api.do(http.MethodPut, fmt.Sprintf("/api/book/%d", book.ID), adminToken, map[string]any{
		"title":         "Dune Messiah",
		"status":        "PENDING",
		"author_ids":    []uint{author.ID},
		"main_genre_id": genre.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, api.db.First(&stored, book.ID).Error)
	assert.Equal(t, entities.BookStatusPending, stored.Status)
	assert.Equal(t, cover, stored.Cover)
}

func TestBooksController_PendingAndListing(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	api.createBook("Active", entities.BookStatusActive)
	api.createBook("Waiting", entities.BookStatusPending)

	list := decode[[]entities.Book](t, api.do(http.MethodGet, "/api/book", adminToken, nil))
	require.Len(t, list, 2)
	assert.Equal(t, "Waiting", list[0].Title)

	pending := decode[[]entities.Book](t, api.do(http.MethodGet, "/api/book/pending-books", adminToken, nil))
	require.Len(t, pending, 1)
	assert.Equal(t, "Waiting", pending[0].Title)

	w := api.do(http.MethodGet, "/api/book/books-last-seven-days", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_past_week":0`)
}

func TestBooksController_Random(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/book/random", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	hidden := api.createBook("Hidden", entities.BookStatusActive)
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, fmt.Sprintf("/api/book/%d/disable", hidden.ID), adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/book/random", "", nil).Code)

	api.createBook("Visible", entities.BookStatusActive)
	for i := 0; i < 5; i++ {
		w = api.do(http.MethodGet, "/api/book/random", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Visible", decode[entities.Book](t, w).Title)
	}
}

func uploadRequest(t *testing.T, path, token, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPatch, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestBooksController_UploadImage(t *testing.T) {
	store := &mocks.MockClient{}
	api := newTestAPI(t, withStorage(store))
	_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
	book := api.createBook("Covered", entities.BookStatusActive)

	prefix := fmt.Sprintf("cover_images/%d/", book.ID)
	key := prefix + "front.png"
	url := "https://cdn.example.com/bookclub/" + key

	store.On("List", mock.Anything, prefix).Return([]storage.ObjectInfo{{Key: prefix + "old.jpg"}}, nil)
	store.On("Delete", mock.Anything, prefix+"old.jpg").Return(nil)
	store.On("Upload", mock.Anything, key, mock.Anything, int64(4), "image/png").Return(nil)
	store.On("PublicURL", key).Return(url)

	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, uploadRequest(t, fmt.Sprintf("/api/book/upload-image/%d", book.ID), adminToken, "front.png", []byte("\x89PNG")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, url, decode[entities.Book](t, w).Cover)
	store.AssertExpectations(t)

	var stored entities.Book
	require.NoError(t, api.db.First(&stored, book.ID).Error)
	assert.Equal(t, url, stored.Cover)
}

func TestBooksController_UploadImageFailures(t *testing.T) {
	t.Run("storage not configured", func(t *testing.T) {
		api := newTestAPI(t)
		_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
		book := api.createBook("Covered", entities.BookStatusActive)

		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, uploadRequest(t, fmt.Sprintf("/api/book/upload-image/%d", book.ID), adminToken, "a.png", []byte("x")))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("upload error", func(t *testing.T) {
		store := &mocks.MockClient{}
		api := newTestAPI(t, withStorage(store))
		_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")
		book := api.createBook("Covered", entities.BookStatusActive)

		store.On("List", mock.Anything, mock.Anything).Return([]storage.ObjectInfo{}, nil)
		store.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket unavailable"))

		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, uploadRequest(t, fmt.Sprintf("/api/book/upload-image/%d", book.ID), adminToken, "a.png", []byte("x")))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "bucket unavailable")

		var stored entities.Book
		require.NoError(t, api.db.First(&stored, book.ID).Error)
		assert.Empty(t, stored.Cover)
	})

	t.Run("missing book", func(t *testing.T) {
		api := newTestAPI(t, withStorage(&mocks.MockClient{}))
		_, adminToken := api.createUser(entities.RoleAdmin, "admin@example.com")

		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, uploadRequest(t, "/api/book/upload-image/77", adminToken, "a.png", []byte("x")))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
