package internal

import (
	"reflect"
	"sync"

	"github.com/srlehn/deskdeco/internal/errors"
)

// Closer runs registered teardown functions in reverse order.
type Closer interface {
	Close() error
	OnClose(onClose func() error)
	AddClosers(closers ...interface{ Close() error })
}

var _ Closer = (*lifoCloser)(nil)

type lifoCloser struct {
	mu           sync.Mutex
	onCloseFuncs []func() error
	initObjs     map[initObjKey]struct{}
}

type initObjKey struct {
	p uintptr
	t string
}

func NewCloser() Closer { return &lifoCloser{} }

// Close runs every function once, last registered first, and joins their
// errors.
func (c *lifoCloser) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	funcs := c.onCloseFuncs
	c.onCloseFuncs = nil
	c.mu.Unlock()

	var errs []error
	for i := len(funcs) - 1; i > -1; i-- {
		if onCloseFunc := funcs[i]; onCloseFunc != nil {
			if err := onCloseFunc(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (c *lifoCloser) OnClose(onClose func() error) {
	if c == nil || onClose == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCloseFuncs = append(c.onCloseFuncs, onClose)
}

// AddClosers registers the Close methods of closers, skipping objects
// already registered.
func (c *lifoCloser) AddClosers(closers ...interface{ Close() error }) {
	if c == nil || len(closers) == 0 {
		return
	}
	c.mu.Lock()
	if c.initObjs == nil {
		c.initObjs = make(map[initObjKey]struct{})
	}
	c.mu.Unlock()
	for _, cl := range closers {
		cl := cl
		if cl == nil {
			continue
		}
		objType := reflect.TypeOf(cl)
		var ptr any = cl
		switch objType.Kind() {
		// don't use slice, map, func as map keys
		case reflect.Slice, reflect.Map, reflect.Func:
			ptr = &cl
		}
		var p uintptr
		if v := reflect.ValueOf(ptr); v.Kind() == reflect.Pointer {
			p = v.Pointer()
		}
		key := initObjKey{p: p, t: objType.String()}
		c.mu.Lock()
		_, alreadyAdded := c.initObjs[key]
		if !alreadyAdded {
			c.initObjs[key] = struct{}{}
		}
		c.mu.Unlock()
		if alreadyAdded {
			continue
		}
		c.OnClose(func() error {
			defer func() {
				c.mu.Lock()
				defer c.mu.Unlock()
				delete(c.initObjs, key)
			}()
			if err := cl.Close(); err != nil {
				return errors.New(err)
			}
			return nil
		})
	}
}
