package prompt

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillOrder(t *testing.T) {
	in := strings.NewReader(" http://nb:8000 \ntok\nadmin\n  secret")
	out := &bytes.Buffer{}
	p := New(in, out)

	var url, token, user, pass string
	for _, f := range []struct {
		dst   *string
		label string
	}{
		{&url, LabelNetboxURL},
		{&token, LabelNetboxToken},
		{&user, LabelSSHUsername},
		{&pass, LabelSSHPassword},
	} {
		require.NoError(t, p.Fill(f.dst, f.label))
	}

	assert.Equal(t, "http://nb:8000", url)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "secret", pass)
	assert.Equal(t, LabelNetboxURL+LabelNetboxToken+LabelSSHUsername+LabelSSHPassword, out.String())
}

func TestFillSkipsPreset(t *testing.T) {
	out := &bytes.Buffer{}
	p := New(strings.NewReader("bob\n"), out)

	token := "preset"
	require.NoError(t, p.Fill(&token, LabelNetboxToken))

	user := ""
	require.NoError(t, p.Fill(&user, LabelSSHUsername))

	assert.Equal(t, "preset", token)
	assert.Equal(t, "bob", user)
	assert.Equal(t, LabelSSHUsername, out.String())
}

func TestAskEOF(t *testing.T) {
	p := New(strings.NewReader(""), io.Discard)

	_, err := p.Ask(LabelSSHPassword)
	assert.ErrorIs(t, err, io.EOF)
}

func TestAskEmptyLine(t *testing.T) {
	p := New(strings.NewReader("\n"), io.Discard)

	v, err := p.Ask(LabelSSHUsername)
	require.NoError(t, err)
	assert.Empty(t, v)
}
