package godb

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// HeapFile is an unordered collection of tuples, stored as a sequence of
// fixed-size pages starting at offset 0 (§4.1). Grounded on the teacher's
// godb/heap_file.go.
type HeapFile struct {
	td          *TupleDesc
	backingFile string
	tableId     int
	bufPool     *BufferPool
	mu          sync.Mutex
}

// NewHeapFile creates (or reopens) a HeapFile backed by fromFile.
func NewHeapFile(fromFile string, td *TupleDesc, bp *BufferPool) (*HeapFile, error) {
	f, err := os.OpenFile(fromFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tableId, err := TableIdFromPath(fromFile)
	if err != nil {
		return nil, err
	}

	return &HeapFile{
		td:          td,
		backingFile: fromFile,
		tableId:     tableId,
		bufPool:     bp,
	}, nil
}

// BackingFile returns the name of the backing file.
func (f *HeapFile) BackingFile() string {
	return f.backingFile
}

// TableId implements DBFile.
func (f *HeapFile) TableId() int {
	return f.tableId
}

// NumPages returns floor(fileLength / PageSize) (§4.1, fixing §9 bug (a):
// the source sometimes uses ceil, which silently accepts a partial tail
// page). A non-zero remainder is an on-disk corruption, not a page to
// round up to: numPagesOrErr reports it as an IOError, and NumPages,
// which has no error result, returns 0 in that case (and when the file
// cannot be stat'd).
func (f *HeapFile) NumPages() int {
	n, err := f.numPagesOrErr()
	if err != nil {
		return 0
	}
	return n
}

func (f *HeapFile) numPagesOrErr() (int, error) {
	fi, err := os.Stat(f.backingFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, NewGoDBError(IOError, err.Error())
	}
	size := fi.Size()
	if size%int64(PageSize) != 0 {
		return 0, NewGoDBError(IOError, fmt.Sprintf("heap file %s has a partial tail page (length %d is not a multiple of page size %d)", f.backingFile, size, PageSize))
	}
	return int(size / int64(PageSize)), nil
}

// LoadFromCSV loads rows from a CSV file into this HeapFile, one
// transaction per row so the buffer pool doesn't fill with dirty pages
// mid-load. Grounded on the teacher's LoadFromCSV.
func (f *HeapFile) LoadFromCSV(file *os.File, hasHeader bool, sep string, skipLastField bool) error {
	scanner := bufio.NewScanner(file)
	cnt := 0
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Split(line, sep)
		if skipLastField {
			fields = fields[0 : len(fields)-1]
		}
		cnt++

		desc := f.Descriptor()
		if desc == nil || desc.Fields == nil {
			return NewGoDBError(MalformedDataError, "descriptor was nil")
		}
		if len(fields) != len(desc.Fields) {
			return NewGoDBError(MalformedDataError, fmt.Sprintf("LoadFromCSV: line %d (%s) does not have expected number of fields (expected %d, got %d)", cnt, line, len(desc.Fields), len(fields)))
		}
		if cnt == 1 && hasHeader {
			continue
		}

		var newFields []DBValue
		for fno, field := range fields {
			switch desc.Fields[fno].Ftype {
			case IntType:
				field = strings.TrimSpace(field)
				floatVal, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return NewGoDBError(TypeMismatchError, fmt.Sprintf("LoadFromCSV: couldn't convert value %s to int, tuple %d", field, cnt))
				}
				newFields = append(newFields, IntField{int64(floatVal)})
			case StringType:
				if len(field) > StringLength {
					field = field[0:StringLength]
				}
				newFields = append(newFields, StringField{field})
			}
		}

		newT := Tuple{Desc: *desc, Fields: newFields}
		tid := NewTID()
		if err := f.insertTuple(&newT, tid); err != nil {
			return err
		}
		f.bufPool.TransactionComplete(tid, true)
	}
	return scanner.Err()
}

// ReadPage implements DBFile: reads exactly PageSize bytes at
// pageNo*PageSize and parses them into a heapPage.
func (f *HeapFile) ReadPage(pageNo int) (Page, error) {
	return f.readPage(pageNo)
}

func (f *HeapFile) readPage(pageNo int) (Page, error) {
	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return nil, NewGoDBError(IOError, err.Error())
	}
	defer file.Close()

	b := make([]byte, PageSize)
	n, err := file.ReadAt(b, int64(pageNo)*int64(PageSize))
	if err != nil || n != PageSize {
		msg := "short read"
		if err != nil {
			msg = err.Error()
		}
		return nil, NewGoDBError(IOError, fmt.Sprintf("readPage(%d): %s", pageNo, msg))
	}

	pg, err := newHeapPage(f.Descriptor(), pageNo, f)
	if err != nil {
		return nil, err
	}
	if err := pg.initFromBuffer(bytes.NewBuffer(b)); err != nil {
		return nil, err
	}
	return pg, nil
}

// insertTuple implements §4.1's insert algorithm: scan existing pages
// under a READ lock looking for room, upgrade to WRITE on the first page
// that has it; if none do, allocate and flush a fresh page to reserve the
// file slot before inserting into it through the buffer pool.
func (f *HeapFile) insertTuple(t *Tuple, tid TransactionId) error {
	f.mu.Lock()
	numPages, err := f.numPagesOrErr()
	f.mu.Unlock()
	if err != nil {
		return err
	}

	for p := 0; p < numPages; p++ {
		pid := PageId{TableId: f.tableId, PageNumber: p}
		heldBefore := f.bufPool.locks.Holds(tid, pid)
		pg, err := f.bufPool.GetPage(f, p, tid, ReadOnly)
		if err != nil {
			return err
		}
		if pg.(*heapPage).getNumEmptySlots() == 0 {
			if !heldBefore {
				f.bufPool.UnsafeReleasePage(tid, pid)
			}
			continue
		}

		pg, err = f.bufPool.GetPage(f, p, tid, ReadWrite)
		if err != nil {
			return err
		}
		hp := pg.(*heapPage)
		if _, err := hp.insertTuple(t); err != nil {
			if err == ErrPageFull {
				continue
			}
			return err
		}
		hp.SetDirty(tid, true)
		return nil
	}

	// No existing page had room: allocate page numPages, write it
	// immediately to reserve the file slot (§4.1), then insert into the
	// buffer pool's copy.
	f.mu.Lock()
	newPageNo := numPages
	newPage, err := newHeapPage(f.td, newPageNo, f)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	if err := f.FlushPage(newPage); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	pg, err := f.bufPool.GetPage(f, newPageNo, tid, ReadWrite)
	if err != nil {
		return err
	}
	hp := pg.(*heapPage)
	if _, err := hp.insertTuple(t); err != nil {
		return err
	}
	hp.SetDirty(tid, true)
	return nil
}

// deleteTuple implements §4.1's delete: acquire WRITE on the tuple's page
// and clear its slot.
func (f *HeapFile) deleteTuple(t *Tuple, tid TransactionId) error {
	if t.Rid == nil {
		return NewGoDBError(TupleNotFoundError, "provided tuple has no RecordId, cannot delete")
	}
	rid := *t.Rid
	if rid.Pid.TableId != f.tableId {
		return NewGoDBError(TupleNotFoundError, "tuple not in this table")
	}
	if rid.Pid.PageNumber < 0 || rid.Pid.PageNumber >= f.NumPages() {
		return NewGoDBError(TupleNotFoundError, "provided tuple references a page that does not exist")
	}

	pg, err := f.bufPool.GetPage(f, rid.Pid.PageNumber, tid, ReadWrite)
	if err != nil {
		return err
	}
	hp, ok := pg.(*heapPage)
	if !ok {
		return NewGoDBError(IncompatibleTypesError, "buffer pool returned non-heap page when heap page expected")
	}
	if err := hp.deleteTuple(rid); err != nil {
		return err
	}
	hp.SetDirty(tid, true)
	return nil
}

// FlushPage implements DBFile: writes p back to its offset in the backing
// file.
func (f *HeapFile) FlushPage(p Page) error {
	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return NewGoDBError(IOError, err.Error())
	}
	defer file.Close()

	hp, ok := p.(*heapPage)
	if !ok {
		return NewGoDBError(IncompatibleTypesError, "flushPage given a non-heap page")
	}
	buf, err := hp.ToBuffer()
	if err != nil {
		return err
	}
	if _, err := file.WriteAt(buf, int64(hp.pageNo)*int64(PageSize)); err != nil {
		return NewGoDBError(IOError, err.Error())
	}
	return nil
}

// Descriptor implements DBFile/Operator.
func (f *HeapFile) Descriptor() *TupleDesc {
	return f.td
}

// Iterator implements Operator: yields every tuple in the file, page by
// page, never holding more than one page's lookahead (§4.1, §9 Design
// Note). Restartable: each call to HeapFile.Iterator starts fresh at page
// 0.
func (f *HeapFile) Iterator(tid TransactionId) (func() (*Tuple, error), error) {
	nPages := f.NumPages()
	pgNo := 0
	var pgIter func() (*Tuple, error)
	return func() (*Tuple, error) {
		for {
			if pgIter == nil {
				if pgNo >= nPages {
					return nil, nil
				}
				p, err := f.bufPool.GetPage(f, pgNo, tid, ReadOnly)
				if err != nil {
					return nil, err
				}
				pgIter = p.(*heapPage).tupleIter()
				pgNo++
			}
			next, err := pgIter()
			if err != nil {
				return nil, err
			}
			if next == nil {
				pgIter = nil
				continue
			}
			return &Tuple{Desc: *f.td, Fields: next.Fields, Rid: next.Rid}, nil
		}
	}, nil
}
