package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"strings"

	"boutique/internal/apperrors"
	"boutique/internal/media"
	"boutique/internal/normalize"
	"boutique/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
	uploads *media.Gateway
}

// NewProductHandler creates a new ProductHandler. A nil gateway rejects file
// uploads.
func NewProductHandler(service *services.ProductService, uploads *media.Gateway) *ProductHandler {
	return &ProductHandler{service: service, uploads: uploads}
}

// RegisterRoutes registers the product routes. Mutations and the low stock
// report run behind adminAPI.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, adminAPI fiber.Handler) {
	products := router.Group("/products")
	products.Get("/", h.HandleListProducts)
	products.Get("/low-stock", adminAPI, h.HandleLowStock)
	products.Get("/:id", h.HandleGetProduct)
	products.Post("/", adminAPI, h.HandleCreateProduct)
	products.Put("/:id", adminAPI, h.HandleUpdateProduct)
	products.Delete("/:id", adminAPI, h.HandleDeleteProduct)
}

// HandleListProducts lists the catalog, optionally filtered by category or section.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext(), services.ProductFilter{
		Category: c.Query("category"),
		Section:  c.Query("section"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

// HandleLowStock lists products at or below their low stock threshold.
func (h *ProductHandler) HandleLowStock(c *fiber.Ctx) error {
	products, err := h.service.ListLowStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product from a multipart form or JSON body.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	ctx := c.UserContext()
	in, uploaded, err := h.readProduct(c)
	if err != nil {
		return writeError(c, err)
	}
	product, err := h.service.CreateProduct(ctx, in)
	if err != nil {
		h.discard(ctx, uploaded)
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct merges the supplied fields into an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	ctx := c.UserContext()
	in, uploaded, err := h.readProduct(c)
	if err != nil {
		return writeError(c, err)
	}
	product, err := h.service.UpdateProduct(ctx, c.Params("id"), in)
	if err != nil {
		h.discard(ctx, uploaded)
		return writeError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// readProduct normalizes the request fields, stores any attached files and
// merges their URLs into the input. Uploaded files replace URL fields of the
// same name.
func (h *ProductHandler) readProduct(c *fiber.Ctx) (normalize.ProductInput, media.Uploaded, error) {
	raw, files, err := h.payload(c)
	if err != nil {
		return normalize.ProductInput{}, media.Uploaded{}, err
	}
	in, err := normalize.Product(raw)
	if err != nil {
		return normalize.ProductInput{}, media.Uploaded{}, err
	}
	if len(files) == 0 {
		return in, media.Uploaded{}, nil
	}
	if h.uploads == nil {
		return normalize.ProductInput{}, media.Uploaded{}, apperrors.Validation(files[0].Field, "file uploads are not enabled")
	}

	uploaded, err := h.uploads.Upload(c.UserContext(), files)
	if err != nil {
		return normalize.ProductInput{}, media.Uploaded{}, err
	}
	if uploaded.CoverImage != nil {
		in.CoverImage = uploaded.CoverImage
	}
	if uploaded.OtherImages != nil {
		in.OtherImages = uploaded.OtherImages
	}
	if uploaded.Video != nil {
		in.Video = uploaded.Video
	}
	return in, uploaded, nil
}

func (h *ProductHandler) payload(c *fiber.Ctx) (normalize.Payload, []media.Attachment, error) {
	contentType := strings.ToLower(string(c.Request().Header.ContentType()))
	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, nil, badBody(err)
		}
		return normalize.FromForm(form.Value), attachments(form.File), nil
	case strings.HasPrefix(contentType, fiber.MIMEApplicationForm):
		values := make(map[string][]string)
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			values[string(k)] = append(values[string(k)], string(v))
		})
		return normalize.FromForm(values), nil, nil
	default:
		p, err := normalize.FromJSON(c.Body())
		return p, nil, err
	}
}

func attachments(files map[string][]*multipart.FileHeader) []media.Attachment {
	var out []media.Attachment
	for _, field := range []string{media.FieldCoverImage, media.FieldOtherImages, media.FieldVideo} {
		for _, fh := range files[field] {
			out = append(out, fileAttachment(field, fh))
		}
	}
	// Unknown file fields are passed through so the gateway can reject them.
	for field, headers := range files {
		switch field {
		case media.FieldCoverImage, media.FieldOtherImages, media.FieldVideo:
			continue
		}
		for _, fh := range headers {
			out = append(out, fileAttachment(field, fh))
		}
	}
	return out
}

func fileAttachment(field string, fh *multipart.FileHeader) media.Attachment {
	return media.Attachment{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func (h *ProductHandler) discard(ctx context.Context, uploaded media.Uploaded) {
	if h.uploads != nil && !uploaded.Empty() {
		h.uploads.Discard(context.WithoutCancel(ctx), uploaded)
	}
}
