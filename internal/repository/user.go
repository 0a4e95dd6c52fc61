// Package repository implements the data access layer for the social graph.
//
// Users and thoughts are independent rows; the reference lists between them
// (user.thoughts, user.friends) are JSON array columns, so a single list
// mutation is one atomic row update. Operations that touch two rows (creating
// or deleting a thought, the user-delete cascade) are composed of independent
// single-row writes with no cross-row transaction: a crash between the two
// steps can leave a dangling reference. That gap is accepted; reads tolerate
// dangling ids by dropping them during the populate join.
package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"headspace/internal/cache"
	"headspace/internal/middleware"
	"headspace/internal/models"

	"gorm.io/gorm"
)

// UserPatch carries a partial update; nil fields are preserved.
type UserPatch struct {
	Username *string
	Email    *string
}

// UserRepository defines persistence operations for users and friend edges.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uint, patch UserPatch) (*models.User, error)
	Delete(ctx context.Context, id uint) error
	AddFriend(ctx context.Context, userID, friendID uint) (*models.User, error)
	RemoveFriend(ctx context.Context, userID, friendID uint) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Username or email already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.populate(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range users {
		if err := r.populate(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id uint, patch UserPatch) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}

	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Save(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.NewValidationError("Username or email already in use")
		}
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return &user, nil
}

// Delete removes the user and cascades to every thought listed under it.
// The cascade is a second, independent write: if it fails the user row is
// already gone and the listed thoughts are orphaned. Not rolled back.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("User", id)
		}
		return models.NewInternalError(err)
	}

	if err := r.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)

	if len(user.ThoughtIDs) > 0 {
		ids := []uint(user.ThoughtIDs)
		if err := r.db.WithContext(ctx).Delete(&models.Thought{}, ids).Error; err != nil {
			middleware.Logger.WarnContext(ctx, "user delete cascade incomplete, thoughts orphaned",
				slog.Uint64("user_id", uint64(id)),
				slog.Int("thought_count", len(ids)),
				slog.String("error", err.Error()),
			)
			return models.NewInternalError(err)
		}
		for _, tid := range ids {
			cache.InvalidateThought(ctx, tid)
		}
	}
	return nil
}

func (r *userRepository) AddFriend(ctx context.Context, userID, friendID uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", userID)
		}
		return nil, models.NewInternalError(err)
	}

	// Set insert: adding a friend twice is a no-op. The friend id itself is
	// not checked for existence; dangling ids are dropped at read time.
	for _, fid := range user.FriendIDs {
		if fid == friendID {
			return &user, nil
		}
	}
	user.FriendIDs = append(user.FriendIDs, friendID)

	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("friends", user.FriendIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return &user, nil
}

func (r *userRepository) RemoveFriend(ctx context.Context, userID, friendID uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", userID)
		}
		return nil, models.NewInternalError(err)
	}

	kept := user.FriendIDs[:0:0]
	for _, fid := range user.FriendIDs {
		if fid != friendID {
			kept = append(kept, fid)
		}
	}
	// Removing an absent id is a no-op.
	if len(kept) == len(user.FriendIDs) {
		return &user, nil
	}
	user.FriendIDs = kept

	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("friends", user.FriendIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, userID)
	return &user, nil
}

// populate resolves the user's thought and friend id lists to full records,
// preserving list order. Ids that no longer resolve are dropped silently:
// dangling references are tolerated, not repaired.
func (r *userRepository) populate(ctx context.Context, user *models.User) error {
	user.Thoughts = []models.Thought{}
	user.Friends = []models.User{}

	if len(user.ThoughtIDs) > 0 {
		var thoughts []models.Thought
		if err := r.db.WithContext(ctx).Where("id IN ?", []uint(user.ThoughtIDs)).
			Find(&thoughts).Error; err != nil {
			return models.NewInternalError(err)
		}
		byID := make(map[uint]models.Thought, len(thoughts))
		for _, t := range thoughts {
			byID[t.ID] = t
		}
		for _, id := range user.ThoughtIDs {
			if t, ok := byID[id]; ok {
				user.Thoughts = append(user.Thoughts, t)
			}
		}
	}

	if len(user.FriendIDs) > 0 {
		var friends []models.User
		if err := r.db.WithContext(ctx).Where("id IN ?", []uint(user.FriendIDs)).
			Find(&friends).Error; err != nil {
			return models.NewInternalError(err)
		}
		byID := make(map[uint]models.User, len(friends))
		for _, f := range friends {
			byID[f.ID] = f
		}
		for _, id := range user.FriendIDs {
			if f, ok := byID[id]; ok {
				user.Friends = append(user.Friends, f)
			}
		}
	}

	return nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; SQLite reports
	// "UNIQUE constraint failed".
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
