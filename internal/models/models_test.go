package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usersvc/internal/models"
)

func TestRoleSet_JSON(t *testing.T) {
	var s models.RoleSet
	require.NoError(t, json.Unmarshal([]byte(`["user","Admin","USER"]`), &s))
	assert.Len(t, s, 2)
	assert.True(t, s.Has(models.RoleAdmin))
	assert.True(t, s.Has(models.RoleUser))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["ADMIN","USER"]`, string(out))
}

func TestRoleSet_Known(t *testing.T) {
	assert.True(t, models.NewRoleSet(models.RoleEditor).Known())
	assert.True(t, models.RoleSet{}.Known())
	assert.False(t, models.NewRoleSet(models.RoleUser, "ROOT").Known())
}

func TestRoleSet_ColumnRoundTrip(t *testing.T) {
	v, err := models.NewRoleSet(models.RoleUser, models.RoleAdmin).Value()
	require.NoError(t, err)
	assert.Equal(t, "ADMIN,USER", v)

	var s models.RoleSet
	require.NoError(t, s.Scan([]byte("ADMIN,USER")))
	assert.True(t, s.HasAny(models.RoleAdmin))

	require.NoError(t, s.Scan(""))
	assert.Empty(t, s)
}

func TestDate_JSON(t *testing.T) {
	var d models.Date
	require.NoError(t, json.Unmarshal([]byte(`"1990-05-17"`), &d))
	assert.Equal(t, models.NewDate(1990, time.May, 17), d)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1990-05-17"`, string(out))

	out, err = json.Marshal(models.Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	assert.Error(t, json.Unmarshal([]byte(`"17.05.1990"`), &d))
}

func TestDate_Scan(t *testing.T) {
	var d models.Date
	require.NoError(t, d.Scan("1990-05-17 00:00:00+00:00"))
	assert.Equal(t, "1990-05-17", d.String())

	require.NoError(t, d.Scan(time.Date(2001, time.March, 2, 13, 4, 0, 0, time.UTC)))
	assert.Equal(t, "2001-03-02", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
}

func TestAccount_CloneIsDeep(t *testing.T) {
	petID := "pet-1"
	a := models.Account{
		Roles: models.NewRoleSet(models.RoleUser),
		PetID: &petID,
		Pet:   &models.Pet{ID: petID, Name: "Rex"},
	}
	c := a.Clone()
	c.Roles[models.RoleAdmin] = struct{}{}
	*c.PetID = "other"
	c.Pet.Name = "Tom"

	assert.False(t, a.Roles.Has(models.RoleAdmin))
	assert.Equal(t, "pet-1", *a.PetID)
	assert.Equal(t, "Rex", a.Pet.Name)
}

func TestAccountRequest_ToAccount(t *testing.T) {
	empty := ""
	acc := models.AccountRequest{Username: "karl", Password: "secret", PetID: &empty}.ToAccount()
	assert.Equal(t, "secret", acc.Secret)
	assert.NotNil(t, acc.Roles)
	assert.False(t, acc.HasPet())
}
