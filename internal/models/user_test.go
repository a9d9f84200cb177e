package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownTestUsers = []User{
	{Email: "admin@jne.co.id", Name: "Administrator", Role: RoleAdmin, Password: "admin123"},
	{Email: "ops1@jne.co.id", Name: "Ops Staff 1", Role: RoleUser, Password: "jne2024"},
}

func TestMergeUsersAdoptsRemotePassword(t *testing.T) {
	remote := []User{
		{Email: "OPS1@jne.co.id", Name: "Renamed Remotely", Role: RoleAdmin, Password: "rotated"},
	}

	merged := MergeUsers(knownTestUsers, remote)
	require.Len(t, merged, 2)

	assert.Equal(t, "rotated", merged[1].Password)
	assert.Equal(t, "Ops Staff 1", merged[1].Name, "name and role stay local")
	assert.Equal(t, RoleUser, merged[1].Role)
	assert.Equal(t, "admin123", merged[0].Password, "absent remotely keeps the known password")
}

func TestMergeUsersAdoptsEmptyRemotePassword(t *testing.T) {
	remote := []User{{Email: "ops1@jne.co.id", Password: ""}}

	merged := MergeUsers(knownTestUsers, remote)
	assert.Empty(t, merged[1].Password, "a present remote record is authoritative even when its password is blank")
}

func TestMergeUsersExcludesUnknownEmails(t *testing.T) {
	remote := []User{
		{Email: "ghost@jne.co.id", Name: "Ghost", Password: "x"},
		{Email: "admin@jne.co.id", Password: "admin123"},
	}

	merged := MergeUsers(knownTestUsers, remote)
	require.Len(t, merged, 2)
	for _, u := range merged {
		assert.NotEqual(t, "ghost@jne.co.id", u.Email)
	}
}

func TestFindUserCaseInsensitive(t *testing.T) {
	user, ok := FindUser(knownTestUsers, "Admin@JNE.co.id")
	require.True(t, ok)
	assert.Equal(t, "admin@jne.co.id", user.Email)

	_, ok = FindUser(knownTestUsers, "nobody@jne.co.id")
	assert.False(t, ok)
}
