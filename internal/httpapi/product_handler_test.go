package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/VedantBankewar/payment-gateway/internal/catalog"
	"github.com/VedantBankewar/payment-gateway/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRouter() chi.Router {
	h := NewProductHandler(catalog.NewMemoryStore(), 5*time.Second)
	r := chi.NewRouter()
	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)
	return r
}

func TestListProducts(t *testing.T) {
	r := productRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var products []domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&products))
	assert.Len(t, products, 6)
}

func TestGetProduct(t *testing.T) {
	r := productRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/4", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var product domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&product))
	assert.Equal(t, "Mechanical Gaming Keyboard", product.Name)
	assert.Equal(t, int64(499900), product.Price)
}

func TestGetProduct_NotFound(t *testing.T) {
	r := productRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/999", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProduct_BadID(t *testing.T) {
	r := productRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/zero", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
