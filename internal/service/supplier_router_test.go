package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repairhq/fieldservice/internal/domain/model"
)

func supplierEmail(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", ".") + "@suppliers.example.com"
}

func seedSuppliers(t *testing.T, repo *memSupplierRepo, names ...string) {
	t.Helper()
	for _, name := range names {
		email := supplierEmail(name)
		_, err := repo.Create(context.Background(), &model.CreateSupplierRequest{Name: name, Email: &email})
		require.NoError(t, err)
	}
}

func TestRouterBrandGroupOverrideWins(t *testing.T) {
	repo := newMemSupplierRepo()
	seedSuppliers(t, repo, "Whirlpool Parts Direct", "EuroSpare Logistics")

	router := NewSupplierRouter(SupplierRouterOptions{
		Suppliers:               repo,
		BrandGroupManufacturers: []string{"Whirlpool", "Bauknecht", "Ignis"},
		BrandGroupSupplier:      "EuroSpare Logistics",
	})

	// The generic similarly-named supplier exists, but the brand group routes
	// to the dedicated one regardless.
	got, err := router.Resolve(context.Background(), &model.PartOrder{
		Manufacturer: strPtr("whirlpool"),
		SupplierName: strPtr("Whirlpool Parts Direct"),
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "EuroSpare Logistics", got.Name)
}

func TestRouterExactMatchCaseInsensitive(t *testing.T) {
	repo := newMemSupplierRepo()
	seedSuppliers(t, repo, "ACME Parts")

	router := NewSupplierRouter(SupplierRouterOptions{Suppliers: repo})

	got, err := router.Resolve(context.Background(), &model.PartOrder{SupplierName: strPtr("acme parts")})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ACME Parts", got.Name)
}

func TestRouterTokenOverlapPartialMatch(t *testing.T) {
	repo := newMemSupplierRepo()
	seedSuppliers(t, repo, "bosch-spares")

	router := NewSupplierRouter(SupplierRouterOptions{Suppliers: repo})

	got, err := router.Resolve(context.Background(), &model.PartOrder{SupplierName: strPtr("Bosch Service GmbH")})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "bosch-spares", got.Name)
}

func TestRouterFallsBackToManufacturerName(t *testing.T) {
	repo := newMemSupplierRepo()
	seedSuppliers(t, repo, "Miele Center")

	router := NewSupplierRouter(SupplierRouterOptions{Suppliers: repo})

	got, err := router.Resolve(context.Background(), &model.PartOrder{Manufacturer: strPtr("Miele")})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Miele Center", got.Name)
}

func TestRouterUnresolved(t *testing.T) {
	repo := newMemSupplierRepo()
	seedSuppliers(t, repo, "ACME Parts")

	router := NewSupplierRouter(SupplierRouterOptions{Suppliers: repo})

	got, err := router.Resolve(context.Background(), &model.PartOrder{SupplierName: strPtr("Totally Unrelated")})
	require.NoError(t, err)
	assert.Nil(t, got, "unresolved routing is not an error")

	got, err = router.Resolve(context.Background(), &model.PartOrder{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"bosch", "service", "gmbh"}, tokenize("Bosch Service GmbH"))
	assert.Equal(t, []string{"bosch", "spares"}, tokenize("bosch-spares"))
	assert.True(t, tokensOverlap(tokenize("electro parts co"), tokenize("ElectroParts")))
	assert.False(t, tokensOverlap(tokenize("acme"), tokenize("zenith")))
}
