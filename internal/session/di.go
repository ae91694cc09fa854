package session

import (
	"github.com/foxseedlab/koetsuki/internal/audio"
	"github.com/foxseedlab/koetsuki/internal/config"
	"github.com/foxseedlab/koetsuki/internal/discord"
	"github.com/foxseedlab/koetsuki/internal/metrics"
	"github.com/foxseedlab/koetsuki/internal/repository"
	"github.com/foxseedlab/koetsuki/internal/transport"
	"github.com/foxseedlab/koetsuki/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Controller, error) {
		cfg := do.MustInvoke[*config.Config](i)
		tc := do.MustInvoke[transport.Client](i)
		src := do.MustInvoke[audio.Source](i)
		repo := do.MustInvoke[repository.Repository](i)
		wh := do.MustInvoke[webhook.Sender](i)
		dc := do.MustInvoke[discord.Client](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return NewController(cfg, tc, src, repo, wh, dc, m), nil
	})
}
