package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

func strptr(s string) *string { return &s }

func TestAccountPatch_IsEmpty(t *testing.T) {
	assert.True(t, AccountPatch{}.IsEmpty())
	assert.False(t, AccountPatch{GitHub: Some(strptr("octocat"))}.IsEmpty())
	assert.False(t, AccountPatch{Name: Some[*string](nil)}.IsEmpty())
}

func TestAccountPatch_Apply(t *testing.T) {
	a := &entity.Account{
		Name:     strptr("old"),
		LinkedIn: strptr("in/old"),
		Status:   entity.StatusPending,
	}
	AccountPatch{
		Name:     Some(strptr("new")),
		LinkedIn: Some[*string](nil),
		Avatar:   Some(&entity.Avatar{Large: "l", Medium: "m", Small: "s"}),
		Status:   Some(entity.StatusActive),
	}.Apply(a)

	assert.Equal(t, "new", *a.Name)
	assert.Nil(t, a.LinkedIn)
	assert.Nil(t, a.GitHub)
	assert.Equal(t, "m", a.Avatar.Medium)
	assert.True(t, a.IsActive())
}

func TestAccountView_OmitsSecrets(t *testing.T) {
	a := &entity.Account{ID: "1", Email: "a@b.c", PasswordHash: "hash", Avatar: &entity.Avatar{Large: "x"}}
	v := a.View()
	assert.Equal(t, "1", v.ID)
	assert.Equal(t, "x", v.Avatar.Large)

	a.Avatar.Large = "changed"
	assert.Equal(t, "x", v.Avatar.Large)
}
