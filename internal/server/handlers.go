package server

import (
	"errors"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/pkgstore/internal/pkgmodel"
	"github.com/any-hub/pkgstore/internal/registry"
)

type packageHandlers struct {
	opts AppOptions
}

// metadataResponse 是 /v1/package-metadata 的响应体。
type metadataResponse struct {
	Versions []pkgmodel.Manifest `json:"versions"`
}

// publishRequest 是 /v1/publish 的请求体，contents 为 base64 编码的原始字节。
type publishRequest struct {
	Manifest pkgmodel.Manifest `json:"manifest"`
	Contents []byte            `json:"contents"`
}

func (h *packageHandlers) metadata(c fiber.Ctx) error {
	name, err := pkgmodel.NewPackageName(c.Params("scope"), c.Params("name"))
	if err != nil {
		return renderError(c, err)
	}
	req, err := pkgmodel.NewPackageReq(name, c.Query("range"))
	if err != nil {
		return renderBadRequest(c, "invalid_range", err)
	}

	manifests, from, err := h.opts.Resolver.Query(requestContext(c), req)
	if err != nil {
		return renderError(c, err)
	}
	setSource(c, from)
	return c.JSON(metadataResponse{Versions: manifests})
}

func (h *packageHandlers) contents(c fiber.Ctx) error {
	name, err := pkgmodel.NewPackageName(c.Params("scope"), c.Params("name"))
	if err != nil {
		return renderError(c, err)
	}
	version, err := pkgmodel.ParseVersion(c.Params("version"))
	if err != nil {
		return renderError(c, err)
	}

	data, from, err := h.opts.Resolver.Download(requestContext(c), pkgmodel.NewPackageId(name, version))
	if err != nil {
		return renderError(c, err)
	}
	setSource(c, from)
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(data.Bytes())
}

func (h *packageHandlers) publish(c fiber.Ctx) error {
	if !h.opts.AllowPublish {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "publish_disabled"})
	}

	var body publishRequest
	if err := sonic.Unmarshal(c.Body(), &body); err != nil {
		return renderBadRequest(c, "invalid_body", err)
	}
	if err := body.Manifest.Validate(); err != nil {
		return renderError(c, err)
	}

	if err := h.opts.Publisher.Publish(requestContext(c), body.Manifest, pkgmodel.ContentsFromBytes(body.Contents)); err != nil {
		return renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"package": body.Manifest.ID().String(),
	})
}

// renderError 将存储层错误映射为 HTTP 状态码与稳定的错误码。
func renderError(c fiber.Ctx, err error) error {
	var parseErr *registry.ParseError
	switch {
	case errors.Is(err, registry.ErrPackageNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "package_not_found", "message": err.Error()})
	case errors.Is(err, registry.ErrContentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "content_not_found", "message": err.Error()})
	case errors.Is(err, pkgmodel.ErrInvalidName):
		return renderBadRequest(c, "invalid_package_name", err)
	case errors.Is(err, pkgmodel.ErrInvalidVersion):
		return renderBadRequest(c, "invalid_version", err)
	case errors.Is(err, pkgmodel.ErrInvalidManifest):
		return renderBadRequest(c, "invalid_manifest", err)
	case errors.As(err, &parseErr):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "index_corrupt", "message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": err.Error()})
	}
}

func renderBadRequest(c fiber.Ctx, code string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": code, "message": err.Error()})
}
