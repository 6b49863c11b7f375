// Package luaconf loads the optional serve configuration from a lua file.
// The file must return a table, eg:
//
//	return {
//		bind = "localhost:7080",
//		data_dir = "/var/lib/mailroom",
//		insecure_cookie = true,
//	}
package luaconf

import (
	"fmt"

	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"
)

type (
	Config struct {
		Bind           string
		DataDir        string
		InsecureCookie bool
	}
)

func Load(path string) (*Config, error) {
	L := lua.NewState()
	defer L.Close()
	err := L.DoFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to run config file %v, cause %w", path, err)
	}
	tbl, ok := L.Get(-1).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("config file %v must return a table", path)
	}
	var c Config
	err = gluamapper.Map(tbl, &c)
	if err != nil {
		return nil, fmt.Errorf("unable to map config file %v, cause %w", path, err)
	}
	return &c, nil
}
