// Command nakama builds the matchday Nakama runtime plugin:
//
//	go build -buildmode=plugin -trimpath -o matchday.so ./cmd/nakama
package main

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"github.com/okian/matchday/internal/adapters/nakama"
)

// InitModule proxies Nakama initialization to the nakama adapter package.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	return nakama.InitModule(ctx, logger, db, nk, initializer)
}

// main is never called when loaded as a plugin; it lets `go build ./...` link the package.
func main() {}
