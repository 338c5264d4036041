package permissions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Equal(t, All(), catalog["ADMIN"])
	assert.True(t, catalog["ORDER_MANAGER"].HasAll(OrdersRead, OrdersUpdate, OrdersDelete))
	assert.False(t, catalog["ANALYST"].Has(OrdersUpdate))
	assert.True(t, catalog["INVENTORY_MANAGER"].Has(InventoryCreate))
}

func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog([]byte(`
roles:
  - name: cashier
    capabilities: [orders.canRead, orders.canUpdate]
  - name: auditor
    capabilities: ["reports.*"]
`))
	require.NoError(t, err)

	assert.True(t, catalog.Known("CASHIER"))
	assert.True(t, catalog.Known("cashier"))
	assert.Equal(t, NewSet(OrdersRead, OrdersUpdate), catalog["CASHIER"])
	assert.Equal(t, NewSet(ReportsRead, ReportsCreate, ReportsUpdate, ReportsDelete), catalog["AUDITOR"])
}

func TestParseCatalogErrors(t *testing.T) {
	tests := map[string]string{
		"bad capability": "roles:\n  - name: x\n    capabilities: [orders.canFly]\n",
		"bad resource":   "roles:\n  - name: x\n    capabilities: [\"cars.*\"]\n",
		"missing name":   "roles:\n  - capabilities: [orders.canRead]\n",
		"duplicate":      "roles:\n  - name: x\n  - name: X\n",
		"not yaml":       "roles: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  - name: viewer\n    capabilities: [dashboard.canRead]\n"), 0o644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, NewSet(DashboardRead), catalog["VIEWER"])

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	embedded, err := LoadCatalog("")
	require.NoError(t, err)
	assert.True(t, embedded.Known("ADMIN"))
}

func TestCatalogEffectiveUnionsRoles(t *testing.T) {
	catalog := DefaultCatalog()

	set := catalog.Effective("SUPPORT", "inventory_manager", "UNKNOWN")

	assert.True(t, set.HasAll(MessagesUpdate, InventoryUpdate, UsersRead))
	assert.False(t, set.Has(UsersUpdate))
}
