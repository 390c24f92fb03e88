package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestViolationClassifiers(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	foreignKey := &pgconn.PgError{Code: "23503"}
	other := &pgconn.PgError{Code: "42601"}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(foreignKey))

	assert.True(t, IsForeignKeyViolation(foreignKey))
	assert.False(t, IsForeignKeyViolation(unique))

	assert.False(t, IsUniqueViolation(other))
	assert.False(t, IsForeignKeyViolation(other))
	assert.False(t, IsForeignKeyViolation(errors.New("not a pg error")))
	assert.False(t, IsForeignKeyViolation(nil))
}

func TestViolationClassifiers_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("postgres: insert failed: %w", &pgconn.PgError{Code: "23503"})
	assert.True(t, IsForeignKeyViolation(wrapped))
}
