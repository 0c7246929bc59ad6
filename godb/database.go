package godb

import (
	"os"
	"path/filepath"
)

// database.go bundles a Catalog, BufferPool, and Logger into the single
// handle a CLI or test harness opens once per data directory. Named as a
// collaborator by §1/§6 ("a catalog... is assumed to exist") but not part
// of the core storage/locking engine; included here per SPEC_FULL.md C12
// as the minimal glue that lets cmd/godb and query.go open a database
// without wiring HeapFile/BufferPool/FileLog by hand. Grounded on the
// teacher's main.go, which performs this wiring inline in func main.
type Database struct {
	Catalog    *Catalog
	BufferPool *BufferPool
	Log        Logger
	dir        string
}

// Open creates (or reopens) a database rooted at dir, with a buffer pool
// sized to bufferPages and its write-ahead log at dir/wal.log.
func Open(dir string, bufferPages int) (*Database, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, NewGoDBError(IOError, err.Error())
	}

	catalog := NewCatalog()
	logFile, err := NewFileLog(filepath.Join(dir, "wal.log"))
	if err != nil {
		return nil, NewGoDBError(IOError, err.Error())
	}
	bp, err := NewBufferPool(bufferPages, logFile)
	if err != nil {
		return nil, err
	}

	return &Database{
		Catalog:    catalog,
		BufferPool: bp,
		Log:        logFile,
		dir:        dir,
	}, nil
}

// CreateTable registers a new heap-backed table named name with schema
// td, backed by a file under the database's directory.
func (d *Database) CreateTable(name string, td *TupleDesc) (*HeapFile, error) {
	path := filepath.Join(d.dir, name+".dat")
	hf, err := NewHeapFile(path, td, d.BufferPool)
	if err != nil {
		return nil, err
	}
	d.Catalog.AddTable(name, hf)
	return hf, nil
}
