package mongostore_test

import (
	"testing"

	"github.com/pkordes/trip-manager/internal/docstore/mongostore"
	"github.com/pkordes/trip-manager/internal/repo"
	"github.com/pkordes/trip-manager/internal/repo/repotest"
	"github.com/pkordes/trip-manager/testutil"
)

func TestStore_Conformance(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repo.Store {
		return mongostore.New(testutil.NewMongoDatabase(t, "trip_manager_test"))
	})
}
