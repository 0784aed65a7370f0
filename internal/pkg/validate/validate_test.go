package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type usernameInput struct {
	Name string `validate:"required,min=3,max=20,roblox_username"`
}

func TestStruct_RobloxUsername(t *testing.T) {
	valid := []string{"Builderman", "abc", "user_123", "A1B2C3D4E5F6G7H8I9J0"}
	for _, name := range valid {
		assert.NoError(t, Struct(usernameInput{Name: name}), name)
	}

	invalid := []string{"", "ab", "_lead", "trail_", "two__under", "a_b_c", "has space", "toolongusername123456"}
	for _, name := range invalid {
		assert.Error(t, Struct(usernameInput{Name: name}), name)
	}
}

func TestStruct_MessageNamesFieldAndTag(t *testing.T) {
	err := Struct(usernameInput{})
	assert.EqualError(t, err, "field 'Name' failed 'required'")
}
