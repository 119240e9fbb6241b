package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Storage {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sections.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenInitializes(t *testing.T) {
	db := openTestDB(t)

	modified, err := db.GetModified()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), modified, time.Minute)

	names, err := db.SectionNames()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.PutSection(Section{Name: "appSettings", Value: "<appSettings/>"}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	sec, err := db.GetSection("appSettings")
	require.NoError(t, err)
	assert.Equal(t, "<appSettings/>", sec.Value)
}

func TestSectionCRUD(t *testing.T) {
	db := openTestDB(t)

	sec := Section{
		Name:      "connectionStrings",
		Value:     "<EncryptedData>abc=</EncryptedData>",
		Protected: true,
		Provider:  "SymmetricProvider",
	}
	require.NoError(t, db.PutSection(sec))

	got, err := db.GetSection("connectionStrings")
	require.NoError(t, err)
	assert.Equal(t, sec.Value, got.Value)
	assert.True(t, got.Protected)
	assert.Equal(t, "SymmetricProvider", got.Provider)
	assert.False(t, got.Modified.IsZero())

	require.NoError(t, db.PutSection(Section{Name: "appSettings", Value: "<appSettings/>"}))
	names, err := db.SectionNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"appSettings", "connectionStrings"}, names)

	require.NoError(t, db.DeleteSection("connectionStrings"))
	_, err = db.GetSection("connectionStrings")
	assert.ErrorIs(t, err, ErrSectionNotFound)
	assert.ErrorIs(t, db.DeleteSection("connectionStrings"), ErrSectionNotFound)
}

func TestPutSectionRequiresName(t *testing.T) {
	db := openTestDB(t)
	assert.Error(t, db.PutSection(Section{Value: "<x/>"}))
}

func TestCompact(t *testing.T) {
	db := openTestDB(t)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, db.PutSection(Section{Name: name, Value: "<" + name + "/>"}))
	}
	require.NoError(t, db.DeleteSection("b"))

	require.NoError(t, db.Compact())

	names, err := db.SectionNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestDeleteSectionUpdatesModified(t *testing.T) {
	db := openTestDB(t)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.PutSection(Section{Name: "a", Value: "<a/>", Modified: past}))

	modified, err := db.GetModified()
	require.NoError(t, err)
	assert.WithinDuration(t, past, modified, time.Second)

	require.NoError(t, db.DeleteSection("a"))
	modified, err = db.GetModified()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), modified, time.Minute)
}

func TestCompactKeepsStoreOpenOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.PutSection(Section{Name: "a", Value: "<a/>"}))

	// a non-empty directory where the backup goes makes the first rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(path+".backup", "keep"), 0700))

	require.Error(t, db.Compact())

	sec, err := db.GetSection("a")
	require.NoError(t, err)
	assert.Equal(t, "<a/>", sec.Value)
	require.NoError(t, db.PutSection(Section{Name: "b", Value: "<b/>"}))

	_, err = os.Stat(path + ".compact")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.RemoveAll(path+".backup"))
	require.NoError(t, db.Compact())
	names, err := db.SectionNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestCompactConcurrentReads(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.PutSection(Section{Name: "appSettings", Value: "<appSettings/>"}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			assert.NoError(t, db.Compact())
		}
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				sec, err := db.GetSection("appSettings")
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, "<appSettings/>", sec.Value)
			}
		}()
	}
	wg.Wait()
}
