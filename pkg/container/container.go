// Package container is a small constructor-injection container used to wire
// the registry service in main. Bindings are registered as constructor
// functions; dependencies are resolved by return type, with interface
// satisfaction as a fallback.
package container

import (
	"fmt"
	"reflect"
	"sync"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

type binding struct {
	ctor      reflect.Value
	singleton bool
}

type Container struct {
	mu         sync.RWMutex
	bindings   map[reflect.Type]binding
	singletons map[reflect.Type]reflect.Value
}

func New() *Container {
	return &Container{
		bindings:   make(map[reflect.Type]binding),
		singletons: make(map[reflect.Type]reflect.Value),
	}
}

// Provide registers a constructor returning (T) or (T, error). Constructor
// parameters are resolved from the container when the type is first built.
func (c *Container) Provide(ctor any, singleton bool) error {
	v := reflect.ValueOf(ctor)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("container: constructor must be a function, got %T", ctor)
	}
	ft := v.Type()
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errType {
			return fmt.Errorf("container: second return value must be error")
		}
	default:
		return fmt.Errorf("container: constructor must return (T) or (T, error)")
	}

	out := ft.Out(0)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.bindings[out]; dup {
		return fmt.Errorf("container: duplicate binding for %v", out)
	}
	c.bindings[out] = binding{ctor: v, singleton: singleton}
	return nil
}

// Resolve fills target, which must be a non-nil pointer, with an instance of
// the pointed-to type.
func (c *Container) Resolve(target any) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return fmt.Errorf("container: target must be a non-nil pointer")
	}
	val, err := c.build(ptr.Elem().Type(), map[reflect.Type]bool{})
	if err != nil {
		return err
	}
	ptr.Elem().Set(val)
	return nil
}

// Invoke calls fn with arguments resolved from the container. A trailing
// error return is propagated.
func (c *Container) Invoke(fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("container: Invoke requires a function, got %T", fn)
	}
	ft := v.Type()
	args := make([]reflect.Value, ft.NumIn())
	building := map[reflect.Type]bool{}
	for i := range args {
		val, err := c.build(ft.In(i), building)
		if err != nil {
			return err
		}
		args[i] = val
	}
	outs := v.Call(args)
	if n := len(outs); n > 0 && outs[n-1].Type() == errType && !outs[n-1].IsNil() {
		return outs[n-1].Interface().(error)
	}
	return nil
}

func (c *Container) lookup(t reflect.Type) (binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if b, ok := c.bindings[t]; ok {
		return b, true
	}
	if t.Kind() == reflect.Interface {
		for bt, b := range c.bindings {
			if bt.Implements(t) {
				return b, true
			}
		}
	}
	return binding{}, false
}

func (c *Container) build(t reflect.Type, building map[reflect.Type]bool) (reflect.Value, error) {
	c.mu.RLock()
	if v, ok := c.singletons[t]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	b, ok := c.lookup(t)
	if !ok {
		return reflect.Value{}, fmt.Errorf("container: no binding for %v", t)
	}
	if building[t] {
		return reflect.Value{}, fmt.Errorf("container: dependency cycle at %v", t)
	}
	building[t] = true
	defer delete(building, t)

	ft := b.ctor.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := range args {
		dep, err := c.build(ft.In(i), building)
		if err != nil {
			return reflect.Value{}, err
		}
		args[i] = dep
	}
	outs := b.ctor.Call(args)
	if len(outs) == 2 && !outs[1].IsNil() {
		return reflect.Value{}, outs[1].Interface().(error)
	}
	result := outs[0]

	if b.singleton {
		c.mu.Lock()
		c.singletons[t] = result
		c.mu.Unlock()
	}
	return result, nil
}
