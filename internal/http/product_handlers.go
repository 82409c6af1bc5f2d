package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arshitcc/rablo-api/internal/domain"
)

type productReq struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Company    string  `json:"company"`
	IsFeatured bool    `json:"isFeatured"`
	Rating     float64 `json:"rating"`
}

func validProduct(in productReq) string {
	if strings.TrimSpace(in.Name) == "" {
		return "name is required"
	}
	if strings.TrimSpace(in.Company) == "" {
		return "company is required"
	}
	if in.Price <= 0 {
		return "price must be positive"
	}
	if in.Rating < 0 || in.Rating > 5 {
		return "rating must be between 0 and 5"
	}
	return ""
}

// AddProduct godoc
// @Summary Add product
// @Tags products
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body productReq true "product"
// @Success 201 {object} apiResponse
// @Failure 403 {object} apiResponse
// @Router /api/v1/products [post]
func (h *Handler) AddProduct(c *gin.Context) {
	var in productReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	if msg := validProduct(in); msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}
	p := &domain.Product{
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price,
		Company:    strings.TrimSpace(in.Company),
		IsFeatured: in.IsFeatured,
		Rating:     in.Rating,
	}
	if err := h.Products.Create(c.Request.Context(), p); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, "product added", p)
}

type productUpdateReq struct {
	Name       *string  `json:"name"`
	Price      *float64 `json:"price"`
	Company    *string  `json:"company"`
	IsFeatured *bool    `json:"isFeatured"`
	Rating     *float64 `json:"rating"`
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid product id")
		return
	}
	var in productUpdateReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Price != nil && *in.Price <= 0 {
		fail(c, http.StatusBadRequest, "price must be positive")
		return
	}
	if in.Rating != nil && (*in.Rating < 0 || *in.Rating > 5) {
		fail(c, http.StatusBadRequest, "rating must be between 0 and 5")
		return
	}
	p, err := h.Products.Update(c.Request.Context(), id, domain.ProductUpdate{
		Name:       in.Name,
		Price:      in.Price,
		Company:    in.Company,
		IsFeatured: in.IsFeatured,
		Rating:     in.Rating,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "product updated", p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.Products.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "product deleted", nil)
}

// ListProducts godoc
// @Summary List products
// @Tags products
// @Security BearerAuth
// @Produce json
// @Param page query int false "page (1-based)"
// @Param offset query int false "page size"
// @Param isFeatured query bool false "featured only"
// @Param maxPrice query number false "price ceiling"
// @Param rating query number false "rating floor"
// @Success 200 {object} apiResponse
// @Router /api/v1/products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	var f domain.ProductFilter
	if v := c.Query("isFeatured"); v != "" {
		b := v == "true"
		f.Featured = &b
	}
	if v := c.Query("maxPrice"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid maxPrice")
			return
		}
		f.MaxPrice = &p
	}
	if v := c.Query("rating"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, "invalid rating")
			return
		}
		f.MinRating = &r
	}
	h.listWith(c, f)
}

func (h *Handler) FeaturedProducts(c *gin.Context) {
	featured := true
	h.listWith(c, domain.ProductFilter{Featured: &featured})
}

func (h *Handler) ProductsByPrice(c *gin.Context) {
	p, err := strconv.ParseFloat(c.Query("maxPrice"), 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid maxPrice")
		return
	}
	h.listWith(c, domain.ProductFilter{MaxPrice: &p})
}

func (h *Handler) ProductsByRating(c *gin.Context) {
	r, err := strconv.ParseFloat(c.Query("rating"), 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid rating")
		return
	}
	h.listWith(c, domain.ProductFilter{MinRating: &r})
}

func (h *Handler) listWith(c *gin.Context, f domain.ProductFilter) {
	page := domain.PageRequest{
		Page:   parseInt64(c.Query("page"), 1),
		Offset: parseInt64(c.Query("offset"), 10),
	}
	products, err := h.Products.List(c.Request.Context(), f, page)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, "products fetched", products)
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 1 {
		return def
	}
	return v
}
