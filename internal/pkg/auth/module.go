package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/catalogsync/internal/config"
)

// Module provides the admin guard primitives via fx.
var Module = fx.Options(
	fx.Provide(newPasswordHasher),
	fx.Provide(newKeyVerifier),
)

func newPasswordHasher() PasswordHasher {
	return NewBcryptHasher(0)
}

type verifierParams struct {
	fx.In

	Config *config.Config
	Hasher PasswordHasher
}

func newKeyVerifier(p verifierParams) KeyVerifier {
	return NewAdminKey(p.Config.AdminKeyHash, p.Hasher)
}
