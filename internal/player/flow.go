package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/thornvale/mud/internal"
	"github.com/thornvale/mud/internal/display"
	"github.com/thornvale/mud/internal/game"
	"github.com/thornvale/mud/internal/storage"
)

const maxPasswordTries = 3

// loginFlow walks a fresh connection through account login or creation and
// character selection, ending with the character the player will enter the
// world as.
type loginFlow struct {
	store *storage.Store
}

func (f *loginFlow) Run(ctx context.Context, rw io.ReadWriter, p *internal.Prompter) (*storage.CharacterRecord, error) {
	rw.Write([]byte("Welcome to Thornvale!\n"))

	acct, err := f.login(ctx, rw, p)
	if err != nil {
		return nil, err
	}

	return f.selectCharacter(ctx, rw, p, acct)
}

func (f *loginFlow) login(ctx context.Context, rw io.ReadWriter, p *internal.Prompter) (*storage.Account, error) {
	for {
		username, err := p.Prompt("Account name: ", internal.WithValidator(validName))
		if err != nil {
			return nil, err
		}

		exists, err := f.store.HasAccount(ctx, username)
		if err != nil {
			return nil, err
		}

		if !exists {
			acct, err := f.newAccount(ctx, rw, p, username)
			if err != nil {
				return nil, err
			}
			if acct == nil {
				continue
			}
			return acct, nil
		}

		tries := 0
		for {
			password, err := p.Prompt("Password: ")
			if err != nil {
				return nil, err
			}
			acct, err := f.store.Authenticate(ctx, username, password)
			if err == nil {
				return acct, nil
			}
			if !errors.Is(err, storage.ErrBadCredentials) {
				return nil, err
			}
			tries++
			if tries >= maxPasswordTries {
				rw.Write([]byte("Too many tries.\n"))
				return nil, fmt.Errorf("too many password tries")
			}
			rw.Write([]byte("Wrong password.\n"))
		}
	}
}

func (f *loginFlow) newAccount(ctx context.Context, rw io.ReadWriter, p *internal.Prompter, username string) (*storage.Account, error) {
	ok, err := p.PromptYN(fmt.Sprintf("Did I get that right, %s (Y/N)? ", username))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	for {
		passOne, err := p.Prompt(fmt.Sprintf("Give me a password for %s: ", username), internal.WithValidator(
			func(str string) (bool, string) {
				if len(str) == 0 || strings.EqualFold(str, username) {
					return false, "Illegal password.\n"
				}
				return true, ""
			},
		))
		if err != nil {
			return nil, err
		}

		passTwo, err := p.Prompt("Please retype password: ")
		if err != nil {
			return nil, err
		}

		if passOne != passTwo {
			rw.Write([]byte("Passwords don't match... start over.\n"))
			continue
		}

		id, err := f.store.CreateAccount(ctx, username, passOne)
		if errors.Is(err, storage.ErrUsernameTaken) {
			rw.Write([]byte("That account name was just taken.\n"))
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &storage.Account{Id: id, Username: username}, nil
	}
}

func (f *loginFlow) selectCharacter(ctx context.Context, rw io.ReadWriter, p *internal.Prompter, acct *storage.Account) (*storage.CharacterRecord, error) {
	for {
		chars, err := f.store.CharactersFor(ctx, acct.Id)
		if err != nil {
			return nil, err
		}

		if len(chars) == 0 {
			rec, err := f.newCharacter(ctx, rw, p, acct)
			if err != nil {
				return nil, err
			}
			if rec == nil {
				continue
			}
			return rec, nil
		}

		rw.Write([]byte("Your characters:\n"))
		for i, c := range chars {
			rw.Write([]byte(fmt.Sprintf("%2d. %s the %s %s\n", i+1, c.Name,
				display.Capitalize(c.Race), display.Capitalize(c.Class))))
		}
		rw.Write([]byte(" n. Create a new character\n"))

		sel, err := p.Prompt("Make your selection: ", internal.WithValidator(
			func(str string) (bool, string) {
				if strings.EqualFold(str, "n") {
					return true, ""
				}
				i, err := strconv.Atoi(str)
				if err != nil || i < 1 || i > len(chars) {
					return false, "Invalid selection!\n"
				}
				return true, ""
			},
		))
		if err != nil {
			return nil, err
		}

		if strings.EqualFold(sel, "n") {
			rec, err := f.newCharacter(ctx, rw, p, acct)
			if err != nil {
				return nil, err
			}
			if rec == nil {
				continue
			}
			return rec, nil
		}

		i, _ := strconv.Atoi(sel)
		return &chars[i-1], nil
	}
}

func (f *loginFlow) newCharacter(ctx context.Context, rw io.ReadWriter, p *internal.Prompter, acct *storage.Account) (*storage.CharacterRecord, error) {
	name, err := p.Prompt("By what name will your character be known? ", internal.WithValidator(validName))
	if err != nil {
		return nil, err
	}
	name = display.TitleName(name)

	class, err := promptChoice(p, "Choose a class", game.Classes)
	if err != nil {
		return nil, err
	}
	race, err := promptChoice(p, "Choose a race", game.Races)
	if err != nil {
		return nil, err
	}

	ch, err := game.NewCharacter(name, class, race)
	if err != nil {
		return nil, err
	}

	id, err := f.store.CreateCharacter(ctx, acct.Id, ch.Name, ch.Class, ch.Race, ch.Health, ch.Stamina, ch.BaseAttack)
	if errors.Is(err, storage.ErrNameTaken) {
		rw.Write([]byte("That name is already taken.\n"))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &storage.CharacterRecord{
		Id:         id,
		AccountId:  acct.Id,
		Name:       ch.Name,
		Class:      ch.Class,
		Race:       ch.Race,
		Health:     ch.Health,
		Stamina:    ch.Stamina,
		BaseAttack: ch.BaseAttack,
	}, nil
}

func promptChoice(p *internal.Prompter, prompt string, options map[string]game.StatModifiers) (string, error) {
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)

	return p.Prompt(fmt.Sprintf("%s (%s): ", prompt, strings.Join(names, ", ")), internal.WithValidator(
		func(str string) (bool, string) {
			if _, ok := options[strings.ToLower(str)]; !ok {
				return false, "Invalid choice!\n"
			}
			return true, ""
		},
	))
}

func validName(str string) (bool, string) {
	if len(str) == 0 {
		return false, "Invalid name, please try another.\n"
	}
	for _, r := range str {
		if !unicode.IsLetter(r) {
			return false, "Invalid name, please try another.\n"
		}
	}
	return true, ""
}
