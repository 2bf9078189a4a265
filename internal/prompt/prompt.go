package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	LabelNetboxURL   = "NetBox URL (e.g. http://10.0.0.100:8000): "
	LabelNetboxToken = "NetBox token: "
	LabelSSHUsername = "SSH username: "
	LabelSSHPassword = "SSH password: "
)

// Prompter asks free-text questions on a console. Input is echoed and not validated.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints label and returns the trimmed answer.
// A final line without a newline is accepted; EOF before any input is an error.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprint(p.out, label)

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", errors.Wrap(err, "read "+strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":")))
	}

	return strings.TrimSpace(line), nil
}

// Fill asks label only when *dst is empty.
func (p *Prompter) Fill(dst *string, label string) error {
	if *dst != "" {
		return nil
	}

	v, err := p.Ask(label)
	if err != nil {
		return err
	}

	*dst = v

	return nil
}
