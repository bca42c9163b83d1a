package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	notFound := NewDomainError(CodeNotFound, "Integration not found")

	reworded := notFound.WithMessage("Project link not found")
	assert.ErrorIs(t, reworded, notFound)
	assert.Equal(t, "Project link not found", reworded.Error())
	assert.Equal(t, "Integration not found", notFound.Message)

	wrapped := fmt.Errorf("load: %w", reworded)
	assert.ErrorIs(t, wrapped, notFound)

	assert.NotErrorIs(t, NewDomainError(CodeInvalidInput, "bad"), notFound)
	assert.NotErrorIs(t, errors.New("Integration not found"), notFound)
}

func TestNewBaseEntity(t *testing.T) {
	e := NewBaseEntity()
	assert.NotEqual(t, e.ID.String(), NewBaseEntity().ID.String())
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)

	before := e.UpdatedAt
	e.Touch()
	assert.False(t, e.UpdatedAt.Before(before))
	assert.Equal(t, before, e.CreatedAt)
}
