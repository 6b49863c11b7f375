package accounts

import (
	"bufio"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrebq/mailroom/auth"
	"github.com/andrebq/mailroom/credstore"
	"github.com/andrebq/mailroom/internal/cmdflags"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	dataDir := "./mailroom-data"
	return &cli.Command{
		Name:  "accounts",
		Usage: "Manage identities without going through the HTTP API",
		Flags: []cli.Flag{
			cmdflags.DataDir(&dataDir),
		},
		Subcommands: []*cli.Command{
			registerCmd(&dataDir),
		},
	}
}

func registerCmd(dataDir *string) *cli.Command {
	var email string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new identity (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Email of the identity to register",
				Destination: &email,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				return sc.Err()
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			store, err := credstore.Open(filepath.Join(*dataDir, "identities.log"))
			if err != nil {
				return err
			}
			defer store.Close()
			return auth.Register(ctx.Context, store, email, auth.PlainText(password), rand.Reader)
		},
	}
}
