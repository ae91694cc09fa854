package metrics

import (
	"github.com/foxseedlab/koetsuki/internal/metrics"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*metrics.Metrics, error) {
		return metrics.NewMetrics(), nil
	})
}
