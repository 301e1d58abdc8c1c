package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	adminsvc "github.com/angelmondragon/storefront-backend/internal/admin"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// stubService embeds Service so each test overrides only what it calls.
type stubService struct {
	Service

	productInput  adminsvc.ProductInput
	productPatch  adminsvc.ProductPatch
	deleteConfirm *bool
	listStatus    *enums.OrderStatus
	listParams    pagination.Params
}

func (s *stubService) CreateProduct(_ context.Context, input adminsvc.ProductInput) (*catalog.ProductDTO, error) {
	s.productInput = input
	return &catalog.ProductDTO{ID: uuid.New(), Name: input.Name, Price: input.Price}, nil
}

func (s *stubService) UpdateProduct(_ context.Context, id uuid.UUID, patch adminsvc.ProductPatch) (*catalog.ProductDTO, error) {
	s.productPatch = patch
	return &catalog.ProductDTO{ID: id}, nil
}

func (s *stubService) DeleteProduct(_ context.Context, _ uuid.UUID, confirmed bool) error {
	s.deleteConfirm = &confirmed
	return adminsvc.RequireConfirmation(confirmed)
}

func (s *stubService) DeleteCategory(_ context.Context, _ uuid.UUID, confirmed bool) (*adminsvc.CategoryDeleteResult, error) {
	if err := adminsvc.RequireConfirmation(confirmed); err != nil {
		return nil, err
	}
	return &adminsvc.CategoryDeleteResult{DetachedProducts: 3}, nil
}

func (s *stubService) ListOrders(_ context.Context, params pagination.Params, status *enums.OrderStatus) (*orders.OrderList, error) {
	s.listParams = params
	s.listStatus = status
	return &orders.OrderList{Orders: []orders.OrderDTO{}}, nil
}

func (s *stubService) CompleteOrder(_ context.Context, id uuid.UUID) (*orders.OrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

type stubAuth struct {
	revoked string
	err     error
}

func (a *stubAuth) Login(_ context.Context, password string) (*adminsvc.LoginResult, error) {
	if password != "admin123" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid password")
	}
	return &adminsvc.LoginResult{AccessToken: "token", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (a *stubAuth) Logout(_ context.Context, accessID string) error {
	a.revoked = accessID
	return a.err
}

func request(t *testing.T, method, target string, body any, params map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range params {
			routeCtx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}
	return req
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error.Message
}

func TestLogin(t *testing.T) {
	auth := &stubAuth{}

	rec := httptest.NewRecorder()
	Login(auth, logger.Nop())(rec, request(t, http.MethodPost, "/auth/login", map[string]string{"password": "admin123"}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token":"token"`)

	rec = httptest.NewRecorder()
	Login(auth, logger.Nop())(rec, request(t, http.MethodPost, "/auth/login", map[string]string{"password": "wrong"}, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	Login(auth, logger.Nop())(rec, request(t, http.MethodPost, "/auth/login", map[string]string{}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutRevokesAccessID(t *testing.T) {
	auth := &stubAuth{}
	req := request(t, http.MethodPost, "/auth/logout", nil, nil)
	req = req.WithContext(middleware.WithAccessID(req.Context(), "jti-1"))

	rec := httptest.NewRecorder()
	Logout(auth, logger.Nop())(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "jti-1", auth.revoked)
}

func TestCreateProductDecodesPrice(t *testing.T) {
	svc := &stubService{}

	rec := httptest.NewRecorder()
	CreateProduct(svc, logger.Nop())(rec, request(t, http.MethodPost, "/products", map[string]any{
		"name":  "Non",
		"price": "12.50",
	}, nil))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Non", svc.productInput.Name)
	assert.True(t, svc.productInput.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Nil(t, svc.productInput.CategoryID)
}

func TestCreateProductRejectsUnknownFields(t *testing.T) {
	rec := httptest.NewRecorder()
	CreateProduct(&stubService{}, logger.Nop())(rec, request(t, http.MethodPost, "/products", map[string]any{
		"name":  "Non",
		"price": "1",
		"sku":   "x",
	}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProductDistinguishesNullFromAbsent(t *testing.T) {
	svc := &stubService{}
	id := uuid.New()

	rec := httptest.NewRecorder()
	UpdateProduct(svc, logger.Nop())(rec, request(t, http.MethodPatch, "/products/"+id.String(),
		json.RawMessage(`{"category_id":null,"in_stock":false}`), map[string]string{"productId": id.String()}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, svc.productPatch.CategoryID.Valid)
	assert.Nil(t, svc.productPatch.CategoryID.Value)
	assert.False(t, svc.productPatch.BriefDescription.Valid)
	require.NotNil(t, svc.productPatch.InStock)
	assert.False(t, *svc.productPatch.InStock)
	assert.Nil(t, svc.productPatch.Name)
}

func TestDeleteProductRequiresConfirmation(t *testing.T) {
	svc := &stubService{}
	id := uuid.New()

	rec := httptest.NewRecorder()
	DeleteProduct(svc, logger.Nop())(rec, request(t, http.MethodDelete, "/products/"+id.String(), nil, map[string]string{"productId": id.String()}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "confirmation required", errorMessage(t, rec))

	rec = httptest.NewRecorder()
	DeleteProduct(svc, logger.Nop())(rec, request(t, http.MethodDelete, "/products/"+id.String()+"?confirm=true", nil, map[string]string{"productId": id.String()}))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, svc.deleteConfirm)
	assert.True(t, *svc.deleteConfirm)

	rec = httptest.NewRecorder()
	DeleteProduct(svc, logger.Nop())(rec, request(t, http.MethodDelete, "/products/"+id.String()+"?confirm=maybe", nil, map[string]string{"productId": id.String()}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCategoryReportsDetachedProducts(t *testing.T) {
	id := uuid.New()

	rec := httptest.NewRecorder()
	DeleteCategory(&stubService{}, logger.Nop())(rec, request(t, http.MethodDelete, "/categories/"+id.String()+"?confirm=true", nil, map[string]string{"categoryId": id.String()}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"detached_products":3`)
}

func TestListOrdersParsesFilters(t *testing.T) {
	svc := &stubService{}

	rec := httptest.NewRecorder()
	ListOrders(svc, logger.Nop())(rec, request(t, http.MethodGet, "/orders?status=pending&limit=5&cursor=abc", nil, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.listStatus)
	assert.Equal(t, enums.OrderStatusPending, *svc.listStatus)
	assert.Equal(t, 5, svc.listParams.Limit)
	assert.Equal(t, "abc", svc.listParams.Cursor)

	rec = httptest.NewRecorder()
	ListOrders(svc, logger.Nop())(rec, request(t, http.MethodGet, "/orders?status=shipped", nil, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid status", errorMessage(t, rec))
}

func TestCompleteOrderNotFound(t *testing.T) {
	id := uuid.New()

	rec := httptest.NewRecorder()
	CompleteOrder(&stubService{}, logger.Nop())(rec, request(t, http.MethodPost, "/orders/"+id.String()+"/complete", nil, map[string]string{"orderId": id.String()}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
