// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages built on
// the generic crud repository:
//
//	database/
//	├── database.go      # Driver selection, migrations, ping
//	├── logger.go        # GORM logger backed by zap
//	├── crud/            # Generic audited Repository[T] and Commit
//	├── users/           # Accounts, friendships, login bookkeeping
//	├── books/           # Books, author/genre/publisher links, random pick
//	├── reviews/         # Reviews by book, user and friends
//	├── booklists/       # User book lists
//	├── notifications/   # Friendship and review notifications
//	└── tokens/          # Issued access tokens
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database, log)
//	usersRepo := users.NewRepository(db.DB)
//	user, err := usersRepo.FindByEmail(ctx, "a@example.com")
//
// Catalogue entities without custom queries (authors, genres, publishers)
// use crud.New directly.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Embed *crud.Repository[entities.X, *entities.X] in a Repository struct
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
