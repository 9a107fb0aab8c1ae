// Package users provides database operations for accounts and friendships.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindByLogin(ctx, "alice")
package users

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookclub/internal/database/crud"
	"github.com/mrlokans/bookclub/internal/entities"
)

const friendshipsTable = "friendships"

var ErrSelfFriendship = errors.New("users cannot befriend themselves")

// Repository handles all user database operations.
type Repository struct {
	*crud.Repository[entities.User, *entities.User]
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: crud.New[entities.User](db), db: db}
}

// WithTx returns a repository whose writes join tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Repository: r.Repository.WithTx(tx), db: tx}
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.FindBy(ctx, crud.Eq("email", email))
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.FindBy(ctx, crud.Eq("username", username))
}

// FindByLogin matches either the email or the username.
func (r *Repository) FindByLogin(ctx context.Context, login string) (*entities.User, error) {
	return r.FindBy(ctx, crud.Where("email = ? OR username = ?", login, login))
}

func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.Exists(ctx, crud.Eq("email", email))
}

func (r *Repository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.Exists(ctx, crud.Eq("username", username))
}

// ListAll returns every account, the ones awaiting activation first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.User, error) {
	return r.List(ctx, crud.Query{PendingFirst: true, Preloads: []string{"Author"}})
}

// CreateWithAuthor inserts user and, when author is not nil, the linked
// author profile in the same transaction.
func (r *Repository) CreateWithAuthor(ctx context.Context, user *entities.User, author *entities.Author) error {
	return crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		if author != nil {
			if err := tx.Create(author).Error; err != nil {
				return err
			}
			user.AuthorID = &author.ID
		}
		if err := tx.Omit("Author").Create(user).Error; err != nil {
			return err
		}
		if author != nil {
			return tx.Model(author).Updates(map[string]interface{}{
				"created_by":  user.ID,
				"modified_by": user.ID,
			}).Error
		}
		return nil
	})
}

// RecordLogin bumps the login counter and clears lockout state.
func (r *Repository) RecordLogin(ctx context.Context, user *entities.User, at time.Time) error {
	err := r.db.WithContext(ctx).Model(user).UpdateColumns(map[string]interface{}{
		"login_count":        gorm.Expr("login_count + 1"),
		"logged_at":          at,
		"failed_login_count":    0,
		"first_failed_login_at": nil,
		"locked_until":          nil,
	}).Error
	if err != nil {
		return err
	}
	user.LoginCount++
	user.LoggedAt = &at
	user.FailedLoginCount = 0
	user.FirstFailedLoginAt = nil
	user.LockedUntil = nil
	return nil
}

// LockoutPolicy bounds failed logins: MaxAttempts failures inside Window
// lock the account for Lockout.
type LockoutPolicy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// RecordFailedLogin increments the failure counter and locks the account
// once MaxAttempts is reached. The count starts over after an expired
// lockout or when the first counted failure fell out of the window.
// It reports whether the account is now locked.
func (r *Repository) RecordFailedLogin(ctx context.Context, user *entities.User, policy LockoutPolicy, now time.Time) (bool, error) {
	expiredLock := user.LockedUntil != nil && !now.Before(*user.LockedUntil)
	staleWindow := policy.Window > 0 && user.FirstFailedLoginAt != nil && now.Sub(*user.FirstFailedLoginAt) > policy.Window
	if expiredLock || staleWindow || user.FirstFailedLoginAt == nil {
		user.FailedLoginCount = 0
		user.LockedUntil = nil
		first := now
		user.FirstFailedLoginAt = &first
	}
	user.FailedLoginCount++

	updates := map[string]interface{}{
		"failed_login_count":    user.FailedLoginCount,
		"first_failed_login_at": *user.FirstFailedLoginAt,
		"locked_until":          nil,
	}
	locked := policy.MaxAttempts > 0 && user.FailedLoginCount >= policy.MaxAttempts
	if locked {
		until := now.Add(policy.Lockout)
		user.LockedUntil = &until
		updates["locked_until"] = until
	}
	return locked, r.db.WithContext(ctx).Model(user).UpdateColumns(updates).Error
}

func (r *Repository) SetPassword(ctx context.Context, user *entities.User, hash string, actor *uint) error {
	return r.Update(ctx, user, map[string]interface{}{"password": hash}, actor)
}

// Friends lists the users befriended by userID.
func (r *Repository) Friends(ctx context.Context, userID uint) ([]entities.User, error) {
	friends := []entities.User{}
	err := r.db.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Order("users.id").
		Find(&friends).Error
	return friends, err
}

func (r *Repository) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Table(friendshipsTable).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}

func (r *Repository) AreFriends(ctx context.Context, userID, friendID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table(friendshipsTable).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&n).Error
	return n > 0, err
}

// AddFriend stores the friendship in both directions. Re-adding is a no-op.
func (r *Repository) AddFriend(ctx context.Context, userID, friendID uint) error {
	if userID == friendID {
		return ErrSelfFriendship
	}
	rows := []map[string]interface{}{
		{"user_id": userID, "friend_id": friendID},
		{"user_id": friendID, "friend_id": userID},
	}
	return crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Table(friendshipsTable).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&rows).Error
	})
}

func (r *Repository) RemoveFriend(ctx context.Context, userID, friendID uint) error {
	return crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Exec("DELETE FROM friendships WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).Error
	})
}

// DeleteUser hard-deletes user with reviews, notifications, book lists,
// tokens and both directions of every friendship.
func (r *Repository) DeleteUser(ctx context.Context, user *entities.User) error {
	return crud.Commit(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM friendships WHERE friend_id = ?", user.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("friend_id = ?", user.ID).Delete(&entities.Notification{}).Error; err != nil {
			return err
		}
		return tx.Select(clause.Associations).Delete(user).Error
	})
}
