package repository

import (
	"github.com/foxseedlab/standupbot/internal/config"
	"github.com/foxseedlab/standupbot/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewJSONFileRepository(cfg.DataDir), nil
	})
}
