package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTaskTitle(t *testing.T) {
	assert.NoError(t, ValidateTaskTitle("Логотип для кофейни", 100))
	assert.NoError(t, ValidateTaskTitle(strings.Repeat("я", 100), 100))
	assert.Error(t, ValidateTaskTitle("", 100))
	assert.Error(t, ValidateTaskTitle("   ", 100))
	assert.Error(t, ValidateTaskTitle(strings.Repeat("a", 101), 100))
	assert.Error(t, ValidateTaskTitle("bad\x00title", 100))
}

func TestValidateTaskDescription(t *testing.T) {
	assert.NoError(t, ValidateTaskDescription("", 1000))
	assert.NoError(t, ValidateTaskDescription("строка\nвторая", 1000))
	assert.Error(t, ValidateTaskDescription(strings.Repeat("a", 1001), 1000))
}

func TestValidateTaskCategory(t *testing.T) {
	assert.NoError(t, ValidateTaskCategory("design", 50))
	assert.Error(t, ValidateTaskCategory("", 50))
	assert.Error(t, ValidateTaskCategory(strings.Repeat("c", 51), 50))
}

func TestValidateSubmissionRef(t *testing.T) {
	assert.NoError(t, ValidateSubmissionRef("ipfs://bafy", 255))
	assert.Error(t, ValidateSubmissionRef("", 255))
	assert.Error(t, ValidateSubmissionRef(strings.Repeat("r", 256), 255))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("User.Name+tag@Example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("no-at-sign"))
	assert.Error(t, ValidateEmail("a@b"))
	assert.Error(t, ValidateEmail("a@@b.com"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Secret123"))
	assert.Error(t, ValidatePassword("short1A"))
	assert.Error(t, ValidatePassword("alllower123"))
	assert.Error(t, ValidatePassword("ALLUPPER123"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
	assert.Error(t, ValidatePassword("Aa1"+strings.Repeat("x", 70)))
}
