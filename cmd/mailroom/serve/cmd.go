package serve

import (
	"path/filepath"

	"github.com/andrebq/mailroom/artifacts"
	"github.com/andrebq/mailroom/auth"
	authapi "github.com/andrebq/mailroom/auth/api"
	"github.com/andrebq/mailroom/credstore"
	"github.com/andrebq/mailroom/internal/cmdflags"
	"github.com/andrebq/mailroom/internal/httpserver"
	"github.com/andrebq/mailroom/internal/luaconf"
	"github.com/andrebq/mailroom/recorder"
	"github.com/andrebq/mailroom/webapi"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:7080"
	dataDir := "./mailroom-data"
	insecureCookie := false
	configFile := ""
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the intake service",
		Flags: []cli.Flag{
			cmdflags.Bind(&bindAddr),
			cmdflags.DataDir(&dataDir),
			cmdflags.InsecureCookie(&insecureCookie),
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Optional lua config file, flags above win over values from the file defaults",
				Destination: &configFile,
			},
		},
		Action: func(ctx *cli.Context) error {
			if configFile != "" {
				conf, err := luaconf.Load(configFile)
				if err != nil {
					return err
				}
				if !ctx.IsSet("bind") && conf.Bind != "" {
					bindAddr = conf.Bind
				}
				if !ctx.IsSet("data-dir") && conf.DataDir != "" {
					dataDir = conf.DataDir
				}
				if !ctx.IsSet("insecure-cookie") {
					insecureCookie = conf.InsecureCookie
				}
			}
			creds, err := credstore.Open(filepath.Join(dataDir, "identities.log"))
			if err != nil {
				return err
			}
			defer creds.Close()
			apps, err := recorder.Open(filepath.Join(dataDir, "applications.log"))
			if err != nil {
				return err
			}
			defer apps.Close()
			files, err := artifacts.Open(ctx.Context, filepath.Join(dataDir, "resumes"))
			if err != nil {
				return err
			}
			defer files.Close()
			// sessions are process-lifetime only, a restart logs everyone out
			tokens := auth.InMemoryTokenStore()
			handler := webapi.AsHandler(ctx.Context, &webapi.Server{
				Realm:  authapi.NewRealm(tokens, "/login", insecureCookie),
				Creds:  creds,
				Tokens: tokens,
				Apps:   apps,
				Files:  files,
			})
			return httpserver.Serve(ctx.Context, bindAddr, handler)
		},
	}
}
