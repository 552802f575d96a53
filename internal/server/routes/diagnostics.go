package routes

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/any-hub/pkgstore/internal/metrics"
	"github.com/any-hub/pkgstore/internal/registry"
)

// SourceLister 返回 fallback 链上的全部注册表，通常由 registry.Chain 提供。
type SourceLister interface {
	Sources(ctx context.Context) ([]registry.SourceRef, error)
}

// DiagnosticsOptions 汇总 /-/ 诊断接口依赖；Metrics 为 nil 时不注册 /-/metrics。
type DiagnosticsOptions struct {
	Sources SourceLister
	Metrics *metrics.Recorder
	Version string
}

// RegisterDiagnosticRoutes 暴露 /-/sources、/-/metrics 与 /-/version，供运维排查 fallback 链与指标。
func RegisterDiagnosticRoutes(app *fiber.App, opts DiagnosticsOptions) {
	if app == nil {
		return
	}

	if opts.Sources != nil {
		app.Get("/-/sources", func(c fiber.Ctx) error {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			refs, err := opts.Sources.Sources(ctx)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "fallback_resolution_failed",
					"message": err.Error(),
				})
			}
			return c.JSON(fiber.Map{"sources": encodeSources(refs)})
		})
	}

	if opts.Metrics != nil {
		app.Get("/-/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))
	}

	app.Get("/-/version", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"version": opts.Version})
	})
}

type sourcePayload struct {
	Position int    `json:"position"`
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Primary  bool   `json:"primary"`
}

func encodeSources(refs []registry.SourceRef) []sourcePayload {
	result := make([]sourcePayload, 0, len(refs))
	for i, ref := range refs {
		result = append(result, sourcePayload{
			Position: i,
			Kind:     string(ref.Kind),
			Path:     ref.Path,
			Primary:  i == 0,
		})
	}
	return result
}
