package web

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamNav(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, teamNav([]string{"platform", "R&D <core>"}).Render(context.Background(), &buf))

	assert.Equal(t,
		`<nav><ul><li><a href="/teams/platform">platform</a></li>`+
			`<li><a href="/teams/R&amp;D%20%3Ccore%3E">R&amp;D &lt;core&gt;</a></li></ul></nav>`,
		buf.String())
}

func TestTeamNav_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, teamNav(nil).Render(context.Background(), &buf))
	assert.Empty(t, buf.String())
}

func TestRefreshForm(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, refreshForm("platform", `tok"en`, true).Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, `<form method="post" action="/teams/platform/refresh">`)
	assert.Contains(t, out, `<input type="hidden" name="csrf_token" value="tok&#34;en">`)
	assert.Contains(t, out, `<button type="submit">Refresh now</button></form>`)
	assert.Contains(t, out, `<a href="/">All teams</a>`)
}

func TestRefreshForm_Disabled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, refreshForm("platform", "token", false).Render(context.Background(), &buf))
	assert.Equal(t, `<p><a href="/">All teams</a></p>`, buf.String())
}
