package domain

import (
	"testing"

	"whatdose/testutil"
)

// TestDomainDoesNotImportInternal keeps the domain layer free of
// implementation packages and storage drivers.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must not import internal packages")
	testutil.AssertNoDirectImports(t, ".", testutil.DriverImportForbidden, "domain must not import storage or transport drivers")
}
