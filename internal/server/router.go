package server

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/pkgstore/internal/logging"
	"github.com/any-hub/pkgstore/internal/pkgmodel"
	"github.com/any-hub/pkgstore/internal/registry"
)

// Resolver 描述只读查询能力，通常由 registry.Chain 提供。
type Resolver interface {
	Query(ctx context.Context, req pkgmodel.PackageReq) ([]pkgmodel.Manifest, registry.SourceRef, error)
	Download(ctx context.Context, id pkgmodel.PackageId) (pkgmodel.PackageContents, registry.SourceRef, error)
}

// Publisher 描述写入能力，通常由主注册表的 registry.FSStore 提供。
type Publisher interface {
	Publish(ctx context.Context, manifest pkgmodel.Manifest, contents pkgmodel.PackageContents) error
}

// AppOptions 控制 Fiber 应用的依赖与限制。
type AppOptions struct {
	Logger       *logrus.Logger
	Resolver     Resolver
	Publisher    Publisher
	AllowPublish bool
	BodyLimit    int
	ReadTimeout  time.Duration
}

const (
	contextKeyRequestID = "_pkgstore_request_id"
	contextKeySource    = "_pkgstore_source"

	headerRequestID = "X-Request-ID"
	headerSource    = "X-Pkgstore-Source"
)

// NewApp 构建带请求 ID、请求日志与 JSON 错误响应的 Fiber 应用。
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if opts.AllowPublish && opts.Publisher == nil {
		return nil, errors.New("publisher is required when publishing is allowed")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		BodyLimit:     opts.BodyLimit,
		ReadTimeout:   opts.ReadTimeout,
		JSONEncoder:   sonic.Marshal,
		JSONDecoder:   sonic.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts.Logger))

	h := &packageHandlers{opts: opts}
	app.Get("/v1/package-metadata/:scope/:name", h.metadata)
	app.Get("/v1/package-contents/:scope/:name/:version", h.contents)
	app.Post("/v1/publish", h.publish)

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID，并在请求结束后输出一条结构化日志。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set(headerRequestID, reqID)

		started := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		fields := logging.RequestFields(reqID, c.Method(), c.Path(), status, sourceFromContext(c))
		fields["duration_ms"] = time.Since(started).Milliseconds()
		entry := logger.WithFields(fields)
		if err != nil {
			entry.WithError(err).Error("request failed")
			return err
		}
		if status >= fiber.StatusInternalServerError {
			entry.Warn("request completed with server error")
			return nil
		}
		entry.Info("request completed")
		return nil
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func setSource(c fiber.Ctx, ref registry.SourceRef) {
	c.Locals(contextKeySource, ref.String())
	c.Set(headerSource, ref.String())
}

func sourceFromContext(c fiber.Ctx) string {
	if value := c.Locals(contextKeySource); value != nil {
		if ref, ok := value.(string); ok {
			return ref
		}
	}
	return ""
}

func requestContext(c fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}
