// Command commentsctl runs operational tasks against the comments database:
// schema migrations, importing the legacy comments table and minting admin
// session tokens.
package main

import (
	"os"
	"time"

	"github.com/noah-isme/comics-comments-api/internal/config"
	"github.com/noah-isme/comics-comments-api/internal/database"
)

func main() {
	env := cliEnv{
		loadConfig: config.Load,
		openDB:     database.ConnectPostgres,
		now:        time.Now,
	}
	if err := newRootCommand(env).Execute(); err != nil {
		os.Exit(1)
	}
}
