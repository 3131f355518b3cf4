package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "001", Version("001_init.sql"))
	assert.Equal(t, "002", Version("sql/002_refresh_tokens.sql"))
	assert.Equal(t, "003", Version("003"))
}

func TestList_SortsAndFiltersSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql":  {Data: []byte("SELECT 2;")},
		"001_a.sql":  {Data: []byte("SELECT 1;")},
		"README.md":  {Data: []byte("docs")},
		"sub/3_.sql": {Data: []byte("SELECT 3;")},
	}

	files, err := List(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)
}

func TestEmbedded_ContainsSchema(t *testing.T) {
	files, err := List(Embedded())
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_init.sql", files[0])
}
