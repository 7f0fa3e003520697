package internal

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

type promptValidator func(string) (bool, string)

type promptConfig struct {
	tries     int
	validator promptValidator
}

type PromptOption func(*promptConfig)

func WithValidator(v promptValidator) PromptOption {
	return func(cfg *promptConfig) {
		cfg.validator = v
	}
}

func WithMaxTries(i int) PromptOption {
	return func(cfg *promptConfig) {
		cfg.tries = i
	}
}

// Prompter reads line-oriented answers from a connection. It owns the
// buffered reader, so input buffered past one answer is not lost between
// prompts.
type Prompter struct {
	r *bufio.Reader
	w io.Writer
}

func NewPrompter(rw io.ReadWriter) *Prompter {
	return &Prompter{
		r: bufio.NewReader(rw),
		w: rw,
	}
}

// ReadLine reads one line without prompting, trimmed of the line ending.
func (p *Prompter) ReadLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Prompt writes the prompt and reads one trimmed line, re-asking while a
// validator rejects the answer.
func (p *Prompter) Prompt(prompt string, opts ...PromptOption) (string, error) {
	config := &promptConfig{}
	for _, opt := range opts {
		opt(config)
	}

	tries := 0
	for {
		if _, err := p.w.Write([]byte(prompt)); err != nil {
			return "", err
		}

		line, err := p.r.ReadString('\n')
		if err != nil {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")

		if config.validator != nil {
			ok, msg := config.validator(line)
			if !ok {
				p.w.Write([]byte(msg))

				tries++
				if config.tries > 0 && config.tries == tries {
					p.w.Write([]byte("Too many tries.\n"))
					return "", fmt.Errorf("too many tries")
				}

				continue
			}
		}

		return line, nil
	}
}

// PromptYN asks a yes/no question.
func (p *Prompter) PromptYN(prompt string) (bool, error) {
	str, err := p.Prompt(prompt, WithValidator(
		func(str string) (bool, string) {
			switch strings.ToLower(str) {
			case "y", "yes", "n", "no":
				return true, ""
			default:
				return false, "Enter 'yes' or 'no'.\n"
			}
		},
	))
	if err != nil {
		return false, err
	}

	switch strings.ToLower(str) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
