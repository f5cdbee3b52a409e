// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package storage

// Reader defines common read operations on database/table
type Reader interface {
	// return value associate with the key, nil if the key is absent
	Get(key []byte) ([]byte, error)

	// check if the entry associate with key exists
	Has(key []byte) (bool, error)

	// return the keys with specified prefix, in ascending byte order
	KeysWithPrefix(prefix []byte) [][]byte
}

// Writer defines the write operations on database/table
type Writer interface {
	// put the value to entry associate with the key
	Put(key, value []byte) error

	// delete the entry associate with the key
	Del(key []byte) error
}

// Operations defines common data operations on database/table
type Operations interface {
	Reader
	Writer
}

// Batch defines the batch of put, del operations
type Batch interface {
	// put the value to entry associate with the key
	Put(key, value []byte)

	// delete the entry associate with the key
	Del(key []byte)

	// returns the number of updates in the batch
	Count() int

	// atomic writes all enqueued put/delete
	Write() error

	// close the batch, it must be called to close the batch
	Close()
}

// Table defines all methods of database table.
type Table interface {
	Operations

	// create a new write batch
	NewBatch() Batch
}

// Storage defines the data persistence methods
type Storage interface {
	Table

	// Create or Get the table associate with the name
	Table(string) (Table, error)
	DropTable(string) error

	Close() error
}

// Options defines the db options
type Options map[string]interface{}
