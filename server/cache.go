// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"container/list"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/googlegenomics/fastadb/faidx"
)

// CacheStores returns a StoreFunc that remembers the Stores built by
// newStore for the size most recently used Authorization headers, so that a
// caller's index is loaded once rather than on every request.  Failures are
// not cached.
func CacheStores(newStore StoreFunc, size int) StoreFunc {
	if size <= 0 {
		size = 1
	}
	c := &storeCache{
		newStore: newStore,
		size:     size,
		ll:       list.New(),
		byKey:    make(map[string]*list.Element, size),
	}
	return c.get
}

type storeCache struct {
	newStore StoreFunc
	size     int
	group    singleflight.Group

	mu    sync.Mutex
	ll    *list.List
	byKey map[string]*list.Element
}

type cachedStore struct {
	key   string
	store *faidx.Store
}

func (c *storeCache) get(req *http.Request) (*faidx.Store, error) {
	key := req.Header.Get("Authorization")
	if store, ok := c.lookup(key); ok {
		return store, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		store, err := c.newStore(req)
		if err != nil {
			return nil, err
		}
		c.add(key, store)
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*faidx.Store), nil
}

func (c *storeCache) lookup(key string) (*faidx.Store, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*cachedStore).store, true
}

func (c *storeCache) add(key string, store *faidx.Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.byKey[key]; ok {
		e.Value.(*cachedStore).store = store
		c.ll.MoveToFront(e)
		return
	}
	c.byKey[key] = c.ll.PushFront(&cachedStore{key, store})
	if c.ll.Len() > c.size {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.byKey, oldest.Value.(*cachedStore).key)
	}
}
