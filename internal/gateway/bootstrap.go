package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/nulzo/prism-local/internal/cli"
	"go.uber.org/zap"
)

// Bootstrap reports what the proxy sees at startup: how many models are
// installed and whether the runtime answers. Neither result blocks startup
// since both are re-evaluated on every request.
func Bootstrap(ctx context.Context, svc Service, runtimeURL string, log *zap.Logger) int {
	models := svc.ListModels(ctx)
	if len(models) == 0 {
		log.Warn(fmt.Sprintf("%s %s", cli.WarningSign(), cli.Style("No installed models found", cli.Yellow)))
	}

	for _, m := range models {
		log.Info(fmt.Sprintf("%s %s", cli.CheckMark(), cli.Style(m.ID, cli.Bold)),
			zap.String("engine", m.Engine),
		)
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := svc.RuntimeHealth(healthCtx); err != nil {
		log.Warn(fmt.Sprintf("%s %s", cli.CrossMark(), cli.Style("Inference runtime not reachable yet", cli.Yellow)),
			zap.String("url", runtimeURL),
			zap.Error(err),
		)
	} else {
		log.Info(fmt.Sprintf("%s %s", cli.Arrow(), "Inference runtime reachable"), zap.String("url", runtimeURL))
	}

	return len(models)
}
