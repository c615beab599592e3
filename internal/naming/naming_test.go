package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Tags", Capitalize("tags"))
	assert.Equal(t, "UserID", Capitalize("userID"))
	assert.Equal(t, "", Capitalize(""))
}

func TestCamelCase(t *testing.T) {
	tests := map[string]string{
		"Name":      "name",
		"UserID":    "userId",
		"URL":       "url",
		"createdAt": "createdAt",
		"snake_key": "snakeKey",
	}
	for in, want := range tests {
		assert.Equal(t, want, CamelCase(in), in)
	}
}

func TestStorageNameAvoidsKeywords(t *testing.T) {
	assert.Equal(t, "type_", StorageName("Type"))
	assert.Equal(t, "range_", StorageName("Range"))
	assert.Equal(t, "next_", StorageName("Next"))
	assert.Equal(t, "email", StorageName("Email"))
}

func TestExported(t *testing.T) {
	assert.Equal(t, "NewPerson", Exported("newPerson", true))
	assert.Equal(t, "newPerson", Exported("NewPerson", false))
}
