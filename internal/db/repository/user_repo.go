package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/casnerano/snippet-war/internal/question"
)

// UserRepository resolves user identities from external numeric ids.
type UserRepository struct {
	db DBTX
}

var _ question.UserStore = (*UserRepository)(nil)

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreateByExternalID creates the user on first sight and returns the
// existing row afterwards. A single conditional upsert guarded by the
// unique constraint on external_user_id, so two concurrent first requests
// from the same external id cannot race into a duplicate-creation error.
func (r *UserRepository) GetOrCreateByExternalID(ctx context.Context, externalID int64) (question.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, external_user_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (external_user_id) DO UPDATE SET external_user_id = EXCLUDED.external_user_id
		RETURNING id, external_user_id, created_at`,
		uuid.New(), externalID,
	)

	var user question.User
	if err := row.Scan(&user.ID, &user.ExternalID, &user.CreatedAt); err != nil {
		return question.User{}, fmt.Errorf("get or create user: %w", err)
	}
	return user, nil
}
