// Package term реализует интерактивный ввод в терминале: запрос
// токена без эха и подтверждения действий.
package term

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/xerrors"
)

// Terminal обеспечивает интерактивный ввод через терминал.
type Terminal struct {
	in      *bufio.Reader
	out     io.Writer
	stdinfd int
}

// NewTerminal создает новый экземпляр Terminal на стандартных потоках.
func NewTerminal() *Terminal {
	return &Terminal{
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		stdinfd: int(os.Stdin.Fd()),
	}
}

// IsInteractive сообщает, подключен ли ввод к терминалу.
func (t *Terminal) IsInteractive() bool {
	return term.IsTerminal(t.stdinfd)
}

// PromptToken запрашивает токен Discord. В интерактивном терминале
// ввод идет без эха, чтобы токен не остался в прокрутке.
func (t *Terminal) PromptToken() (string, error) {
	fmt.Fprint(t.out, "Enter Discord token: ")

	var token string
	if t.IsInteractive() {
		raw, err := term.ReadPassword(t.stdinfd)
		if err != nil {
			return "", xerrors.Errorf("failed to read token: %w", err)
		}
		fmt.Fprintln(t.out)
		token = string(raw)
	} else {
		line, err := t.in.ReadString('\n')
		if err != nil && line == "" {
			return "", xerrors.Errorf("failed to read token: %w", err)
		}
		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", xerrors.New("token is empty")
	}
	return token, nil
}

// Confirm задает вопрос с ответом да или нет. Пустой ввод считается
// отказом.
func (t *Terminal) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(t.out, "%s [y/N]: ", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return false, xerrors.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
