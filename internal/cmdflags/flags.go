package cmdflags

import (
	"github.com/urfave/cli/v2"
)

func DataDir(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "data-dir",
		Aliases:     []string{"d"},
		Usage:       "Directory holding the identity log, the application log and the resume store",
		Destination: out,
		Value:       *out,
	}
}

func Bind(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "bind",
		Usage:       "Address to bind the intake service",
		Destination: out,
		Value:       *out,
	}
}

func InsecureCookie(out *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "insecure-cookie",
		Usage:       "Allow the session cookie over plain HTTP (local development only)",
		Destination: out,
		Value:       *out,
	}
}
