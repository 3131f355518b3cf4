package memstore

import (
	"testing"

	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/app/repositories/storetest"
)

func TestMemstoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) *repositories.Repositories {
		repos, _ := NewRepositories()
		return repos
	})
}
