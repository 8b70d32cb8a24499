package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/gophauth/internal/client/guard"
)

func TestRouter_Replace(t *testing.T) {
	r := NewRouter(guard.SignInPath)
	assert.Equal(t, guard.SignInPath, r.Current())
	assert.Empty(t, r.Replacements())

	r.Replace(guard.DashboardPath)
	r.Replace(guard.SignInPath)

	assert.Equal(t, guard.SignInPath, r.Current())
	assert.Equal(t, []string{guard.DashboardPath, guard.SignInPath}, r.Replacements())
}
