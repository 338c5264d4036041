package product

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/handlers"
	"unimerch_back_end/internal/inventory"
	"unimerch_back_end/internal/middleware"
	"unimerch_back_end/internal/services"
)

type Handler struct {
	inventory *inventory.Service
}

func NewHandler(inv *inventory.Service) *Handler {
	return &Handler{inventory: inv}
}

// ListProducts returns a page of products priced for the caller.
func (h *Handler) ListProducts(c *gin.Context) {
	limit, offset := handlers.Page(c)
	products, err := h.inventory.ListProducts(c.Request.Context(), middleware.UserID(c), limit, offset)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "", gin.H{"products": products, "total": len(products)})
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.inventory.GetProduct(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "", p)
}

func (h *Handler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	hits, err := h.inventory.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if hits == nil {
		hits = []services.ProductDocument{}
	}
	handlers.RespondOK(c, http.StatusOK, "", gin.H{"results": hits, "total": len(hits)})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var in inventory.ProductInput
	if !handlers.BindJSON(c, &in) {
		return
	}
	p, err := h.inventory.CreateProduct(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusCreated, "product created", p)
}

func (h *Handler) CreateVariant(c *gin.Context) {
	productID, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	var in inventory.VariantInput
	if !handlers.BindJSON(c, &in) {
		return
	}
	v, err := h.inventory.CreateVariant(c.Request.Context(), middleware.Actor(c), productID, in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusCreated, "variant created", v)
}

func (h *Handler) UpdateVariant(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	var in inventory.VariantInput
	if !handlers.BindJSON(c, &in) {
		return
	}
	v, err := h.inventory.UpdateVariant(c.Request.Context(), middleware.Actor(c), id, in)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "variant updated", v)
}

func (h *Handler) DeleteVariant(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.inventory.DeleteVariant(c.Request.Context(), middleware.Actor(c), id); err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "variant deleted", nil)
}

// UploadImage takes a multipart "image" field.
func (h *Handler) UploadImage(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxImageSize+1<<20)
	header, err := c.FormFile("image")
	if err != nil {
		handlers.RespondError(c, apperr.Field("image", "image file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		handlers.RespondError(c, apperr.Field("image", "unreadable file"))
		return
	}
	defer file.Close()

	url, err := h.inventory.UploadImage(c.Request.Context(), middleware.Actor(c), id, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusCreated, "image uploaded", gin.H{"url": url})
}
