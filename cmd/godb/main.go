// Command godb is an interactive REPL over a godb database directory:
// point it at a directory and type SQL statements, one per line.
// Grounded on the teacher's go.mod declaring chzyer/readline as the CLI's
// line editor (the teacher's own main.go, which would have wired it up,
// wasn't part of the retrieved source tree).
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/chzyer/readline"

	"github.com/csc560/storagelab/godb"
)

func main() {
	dir := flag.String("dir", "./data", "database directory")
	bufferPages := flag.Int("buffer-pages", godb.DefaultBufferPoolPages, "buffer pool size, in pages")
	flag.Parse()

	db, err := godb.Open(*dir, *bufferPages)
	if err != nil {
		log.Fatalf("open %s: %v", *dir, err)
	}

	rl, err := readline.New("godb> ")
	if err != nil {
		log.Fatalf("readline: %v", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Printf("read error: %v", err)
			return
		}
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}

		run(db, line)
	}
}

func run(db *godb.Database, sql string) {
	op, err := godb.Parse(db, sql)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	tid := godb.NewTID()
	if err := db.BufferPool.BeginTransaction(tid); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	iter, err := op.Iterator(tid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		db.BufferPool.TransactionComplete(tid, false)
		return
	}

	fmt.Println(op.Descriptor().HeaderString())
	for {
		t, err := iter()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			db.BufferPool.TransactionComplete(tid, false)
			return
		}
		if t == nil {
			break
		}
		fmt.Println(t.PrettyPrintString(false))
	}

	if err := db.BufferPool.TransactionComplete(tid, true); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}
