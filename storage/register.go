// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package storage

import (
	"sort"

	"github.com/pkg/errors"
)

// newDBFunc defines the function to create a new storage instance.
type newDBFunc func(string, *Options) (Storage, error)

var dbfuncs = make(map[string]newDBFunc)

// Register registers a new DB implementation
func Register(dbname string, fn newDBFunc) {
	dbfuncs[dbname] = fn
}

// Drivers returns the names of the registered implementations.
func Drivers() []string {
	names := make([]string, 0, len(dbfuncs))
	for name := range dbfuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newStorage creates a new storage instance associate with specified dbname
func newStorage(dbname string, dbpath string, o *Options) (Storage, error) {
	if dbfunc, ok := dbfuncs[dbname]; ok {
		return dbfunc(dbpath, o)
	}

	return nil, errors.Wrap(ErrUnknownDriver, dbname)
}
