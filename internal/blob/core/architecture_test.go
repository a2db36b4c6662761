package core

import (
	"testing"

	"whatdose/testutil"
)

func TestBlobContractIndependentOfDomain(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.DomainImportForbidden, "blob contracts carry bytes and metadata, not engine entities")
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "blob contracts are imported by every backend")
}
