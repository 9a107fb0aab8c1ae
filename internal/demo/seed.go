// Package demo seeds a public-domain sample catalogue and guards a
// read-only demo deployment.
package demo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookclub/internal/auth"
	"github.com/mrlokans/bookclub/internal/database/booklists"
	"github.com/mrlokans/bookclub/internal/database/books"
	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/database/reviews"
	"github.com/mrlokans/bookclub/internal/database/users"
	"github.com/mrlokans/bookclub/internal/entities"
)

// ErrNotEmpty is returned when the target database already holds books.
var ErrNotEmpty = errors.New("demo data needs an empty catalogue")

// Accounts created by Seed. All share the password passed to it.
const (
	AdminEmail  = "admin@demo.local"
	ReaderEmail = "ada@demo.local"
	FriendEmail = "ben@demo.local"
)

// Summary counts what Seed created.
type Summary struct {
	Authors int
	Books   int
	Users   int
	Reviews int
}

type sampleBook struct {
	Title    string
	Author   string
	Country  string
	Year     int
	Genre    string
	Overview string
	Reviews  []sampleReview
}

type sampleReview struct {
	By      string
	Rating  int
	Title   string
	Content string
}

func sampleBooks() []sampleBook {
	return []sampleBook{
		{
			Title: "Meditations", Author: "Marcus Aurelius", Country: "Italy", Year: 180, Genre: "Philosophy",
			Overview: "Private notes on Stoic practice written by a Roman emperor.",
			Reviews: []sampleReview{
				{By: ReaderEmail, Rating: 5, Title: "A daily companion", Content: "You have power over your mind, not outside events."},
				{By: FriendEmail, Rating: 4, Title: "Short and sharp", Content: "Waste no more time arguing about what a good man should be. Be one."},
			},
		},
		{
			Title: "Letters from a Stoic", Author: "Seneca", Country: "Spain", Year: 65, Genre: "Philosophy",
			Overview: "Moral letters to Lucilius on time, friendship and fear.",
			Reviews: []sampleReview{
				{By: FriendEmail, Rating: 5, Title: "On the shortness of life", Content: "We suffer more often in imagination than in reality."},
			},
		},
		{
			Title: "On the Origin of Species", Author: "Charles Darwin", Country: "United Kingdom", Year: 1859, Genre: "Science",
			Overview: "The argument for evolution by natural selection.",
		},
		{
			Title: "Pride and Prejudice", Author: "Jane Austen", Country: "United Kingdom", Year: 1813, Genre: "Fiction",
			Overview: "Elizabeth Bennet and Mr Darcy misjudge each other.",
			Reviews: []sampleReview{
				{By: ReaderEmail, Rating: 4, Title: "Still funny", Content: "A truth universally acknowledged, and then gently taken apart."},
			},
		},
		{
			Title: "Crime and Punishment", Author: "Fyodor Dostoevsky", Country: "Russia", Year: 1866, Genre: "Fiction",
			Overview: "A former student in St Petersburg commits a murder and unravels.",
		},
		{
			Title: "Frankenstein", Author: "Mary Shelley", Country: "United Kingdom", Year: 1818, Genre: "Fiction",
			Overview: "A scientist creates life and abandons it.",
			Reviews: []sampleReview{
				{By: FriendEmail, Rating: 3, Title: "Slow start", Content: "The frame story drags but the creature's chapters are superb."},
			},
		},
		{
			Title: "The Republic", Author: "Plato", Country: "Greece", Year: -375, Genre: "Philosophy",
			Overview: "Socratic dialogue on justice and the ideal city.",
		},
	}
}

// Seed fills an empty, migrated database with sample genres, authors,
// books, accounts, a friendship, reviews and a book list.
func Seed(ctx context.Context, db *gorm.DB, password string, bcryptCost int) (*Summary, error) {
	bookRepo := books.NewRepository(db)
	if n, err := bookRepo.Count(ctx); err != nil {
		return nil, err
	} else if n > 0 {
		return nil, ErrNotEmpty
	}

	hash, err := auth.HashPassword(password, bcryptCost)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	userRepo := users.NewRepository(db)
	accounts := map[string]*entities.User{}
	for _, account := range []struct {
		email, name string
		role        entities.UserRole
	}{
		{AdminEmail, "Demo Admin", entities.RoleAdmin},
		{ReaderEmail, "Ada", entities.RoleUser},
		{FriendEmail, "Ben", entities.RoleUser},
	} {
		user := &entities.User{Email: account.email, Password: hash, Name: account.name, UserRole: account.role}
		if err := userRepo.Insert(ctx, user, nil); err != nil {
			return nil, fmt.Errorf("create %s: %w", account.email, err)
		}
		accounts[account.email] = user
		summary.Users++
	}
	admin := entities.Actor(accounts[AdminEmail].ID)

	if err := userRepo.AddFriend(ctx, accounts[ReaderEmail].ID, accounts[FriendEmail].ID); err != nil {
		return nil, err
	}

	publisher := &entities.Publisher{Name: "Public Domain Press"}
	if err := crud.New[entities.Publisher](db).Insert(ctx, publisher, admin); err != nil {
		return nil, err
	}

	genreRepo := crud.New[entities.Genre](db)
	authorRepo := crud.New[entities.Author](db)
	reviewRepo := reviews.NewRepository(db)
	genres := map[string]uint{}
	authors := map[string]uint{}
	var created []*entities.Book

	for _, sample := range sampleBooks() {
		if _, ok := genres[sample.Genre]; !ok {
			genre := &entities.Genre{Name: sample.Genre}
			if err := genreRepo.Insert(ctx, genre, admin); err != nil {
				return nil, err
			}
			genres[sample.Genre] = genre.ID
		}
		if _, ok := authors[sample.Author]; !ok {
			author := &entities.Author{Name: sample.Author, Country: sample.Country}
			if err := authorRepo.Insert(ctx, author, admin); err != nil {
				return nil, err
			}
			authors[sample.Author] = author.ID
			summary.Authors++
		}

		book := &entities.Book{
			Title:           sample.Title,
			Overview:        sample.Overview,
			PublicationYear: sample.Year,
			Language:        "English",
			Status:          entities.BookStatusActive,
		}
		links := books.Links{
			AuthorIDs:   []uint{authors[sample.Author]},
			GenreIDs:    []uint{genres[sample.Genre]},
			PublisherID: &publisher.ID,
		}
		if err := bookRepo.CreateWithLinks(ctx, book, links, admin); err != nil {
			return nil, fmt.Errorf("create %q: %w", sample.Title, err)
		}
		created = append(created, book)
		summary.Books++

		for _, r := range sample.Reviews {
			reviewer := accounts[r.By]
			review := &entities.Review{Title: r.Title, Content: r.Content, Rating: r.Rating, BookID: book.ID, UserID: reviewer.ID}
			if err := reviewRepo.Insert(ctx, review, entities.Actor(reviewer.ID)); err != nil {
				return nil, err
			}
			summary.Reviews++
		}
	}

	reader := accounts[ReaderEmail]
	listRepo := booklists.NewRepository(db)
	list := &entities.BookList{Name: "Classics to revisit", UserID: reader.ID}
	if err := listRepo.Insert(ctx, list, entities.Actor(reader.ID)); err != nil {
		return nil, err
	}
	for _, book := range created[:3] {
		if err := listRepo.AddBook(ctx, list, book, entities.Actor(reader.ID)); err != nil {
			return nil, err
		}
	}

	return summary, nil
}
