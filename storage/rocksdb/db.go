// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rocksdb

import (
	"io/ioutil"

	"github.com/BOXFoundation/tzvm/log"
	"github.com/BOXFoundation/tzvm/metrics"
	"github.com/BOXFoundation/tzvm/storage"
	"github.com/tecbot/gorocksdb"
)

var logger = log.NewLogger("rocksdb")

// defaults of the tunables read from the database options
const (
	defaultBloomBits    = 10
	defaultCacheSize    = 256 << 20
	defaultMaxOpenFiles = 512
)

func init() {
	// register rocksdb impl
	storage.Register("rocksdb", NewRocksDB)
}

func prepare(path string) {
	files, err := ioutil.ReadDir(path)
	if err != nil || len(files) == 0 {
		dbpath := gorocksdb.NewDBPath(path, 0)
		defer dbpath.Destroy()
	}
}

// intOption reads an integer tunable, def when absent or malformed.
func intOption(o *storage.Options, name string, def int) int {
	if o == nil {
		return def
	}
	switch v := (*o)[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// NewRocksDB creates a rocksdb instance. The options bloom_bits,
// cache_size and max_open_files tune the table format.
func NewRocksDB(name string, o *storage.Options) (storage.Storage, error) {
	logger.Infof("Creating rocksdb at %s", name)

	options := gorocksdb.NewDefaultOptions()

	blockBasedTableOptions := gorocksdb.NewDefaultBlockBasedTableOptions()
	blockBasedTableOptions.SetFilterPolicy(gorocksdb.NewBloomFilter(intOption(o, "bloom_bits", defaultBloomBits)))
	cache := gorocksdb.NewLRUCache(intOption(o, "cache_size", defaultCacheSize))
	blockBasedTableOptions.SetBlockCache(cache)

	options.SetBlockBasedTableFactory(blockBasedTableOptions)
	options.SetCreateIfMissing(true)
	options.SetCreateIfMissingColumnFamilies(true)
	options.SetMaxOpenFiles(intOption(o, "max_open_files", defaultMaxOpenFiles))

	prepare(name)
	// get all column families
	cfnames, err := gorocksdb.ListColumnFamilies(options, name)
	if err != nil {
		logger.Debug(err)
	}

	var cfhandlers []*gorocksdb.ColumnFamilyHandle
	var db *gorocksdb.DB
	if len(cfnames) == 0 {
		db, err = gorocksdb.OpenDb(options, name)
	} else {
		var cfoptions = make([]*gorocksdb.Options, len(cfnames))
		for i := range cfnames {
			cfoptions[i] = options
		}
		db, cfhandlers, err = gorocksdb.OpenDbColumnFamilies(options, name, cfnames, cfoptions)
	}
	if err != nil {
		return nil, err
	}

	d := &rocksdb{
		db:           db,
		cache:        cache,
		cfs:          map[string]*gorocksdb.ColumnFamilyHandle{},
		dboptions:    options,
		readOptions:  gorocksdb.NewDefaultReadOptions(),
		writeOptions: gorocksdb.NewDefaultWriteOptions(),
		flushOptions: gorocksdb.NewDefaultFlushOptions(),
	}
	d.rtable = &rtable{db: d}
	for i, cfhandler := range cfhandlers {
		d.cfs[cfnames[i]] = cfhandler
	}

	return d, nil
}

// helper function to make memcopy and free object
func data(s *gorocksdb.Slice) []byte {
	defer s.Free()
	if !s.Exists() {
		return nil
	}
	var buf = make([]byte, s.Size())
	copy(buf, s.Data())
	return buf
}

func (db *rocksdb) reportCacheUsage() {
	metrics.StorageCacheGauge.Update(int64(db.cache.GetUsage()))
}
