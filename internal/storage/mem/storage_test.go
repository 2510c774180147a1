package mem

import (
	"testing"

	"github.com/goserg/rankings/internal/storage"
	"github.com/goserg/rankings/internal/storage/storagetest"
)

func TestStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return New()
	})
}
