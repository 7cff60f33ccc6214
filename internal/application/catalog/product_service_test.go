package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/domain/shared"
	"github.com/tierhub/backend/internal/testutil"
	"go.uber.org/zap"
)

func TestProductService_Create(t *testing.T) {
	repo := new(testutil.MockProductRepository)
	svc := NewProductService(repo, zap.NewNop())
	repo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

	product, err := svc.Create(context.Background(), catalog.ProductSpec{
		Name:        "  Editor ",
		FrontendURL: "https://editor.example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "Editor", product.Name)
	repo.AssertExpectations(t)
}

func TestProductService_CreateRejectsRelativeFrontend(t *testing.T) {
	repo := new(testutil.MockProductRepository)
	svc := NewProductService(repo, zap.NewNop())

	_, err := svc.Create(context.Background(), catalog.ProductSpec{Name: "Editor", FrontendURL: "/editor"})

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_FRONTEND_URL", de.Code)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_UpdateNotFound(t *testing.T) {
	repo := new(testutil.MockProductRepository)
	svc := NewProductService(repo, zap.NewNop())
	id := testutil.NewTestUUID("missing")
	repo.On("FindByID", mock.Anything, id).Return(nil, catalog.ErrProductNotFound)

	_, err := svc.Update(context.Background(), id, catalog.ProductSpec{Name: "x"})

	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestProductService_Update(t *testing.T) {
	repo := new(testutil.MockProductRepository)
	svc := NewProductService(repo, zap.NewNop())
	existing := testutil.NewTestProduct(t, "Editor", "https://editor.example.com")
	repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	repo.On("Save", mock.Anything, existing).Return(nil)

	updated, err := svc.Update(context.Background(), existing.ID, catalog.ProductSpec{
		Name:        "Editor Pro",
		FrontendURL: "https://pro.example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "Editor Pro", updated.Name)
	assert.Equal(t, "https://pro.example.com", updated.FrontendURL)
}
