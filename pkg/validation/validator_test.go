package validation

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerBody struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,pwd"`
	Phone    *string `json:"phone_number" binding:"omitempty,phone"`
}

func TestToDetails_FieldMessages(t *testing.T) {
	Init()
	phone := "12"
	err := binding.Validator.ValidateStruct(&registerBody{Email: "nope", Password: "123", Phone: &phone})
	require.Error(t, err)

	d := ToDetails(err)
	assert.Equal(t, "must be a valid email", d["email"])
	assert.Equal(t, "must be at least 6 characters long", d["password"])
	assert.Equal(t, "must be a valid phone number", d["phone_number"])
}

func TestToDetails_Valid(t *testing.T) {
	Init()
	err := binding.Validator.ValidateStruct(&registerBody{Email: "a@example.com", Password: "123456"})
	assert.NoError(t, err)
	assert.Nil(t, ToDetails(nil))
}

func TestToDetails_Fallback(t *testing.T) {
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("eof")))
}
