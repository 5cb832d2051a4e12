package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches sentinel with the same code", func(t *testing.T) {
		err := NewForbiddenError("Access denied for resource CUSTOMER with action CREATE")
		assert.True(t, errors.Is(err, ErrForbidden))
		assert.False(t, errors.Is(err, ErrNotFound))
		assert.Equal(t, "Access denied for resource CUSTOMER with action CREATE", err.Error())
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("update customer: %w", NewNotFoundError("Customer 42 not found"))
		assert.ErrorIs(t, err, ErrNotFound)

		var domainErr *DomainError
		assert.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})

	t.Run("does not match foreign errors", func(t *testing.T) {
		assert.False(t, ErrForbidden.Is(errors.New("FORBIDDEN")))
	})
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("find: %w", NewNotFoundError("Customer 1 not found"))))
	assert.False(t, IsNotFound(ErrForbidden))
	assert.True(t, IsForbidden(NewForbiddenError("no")))
	assert.False(t, IsForbidden(nil))
}
