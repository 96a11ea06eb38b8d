package core

import (
	"fmt"

	"github.com/watchcask/allio/pkg/allio/monitoring"
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/registry"
	"github.com/watchcask/allio/pkg/allio/role"
	"github.com/watchcask/allio/pkg/allio/types"
)

// Set writes a value to id. The element's role must be writable and its
// role-derived ValueType must match value's Kind; the platform call itself
// is made with no lock held.
func (c *Core) Set(id types.ElementId, value types.Value) (err error) {
	defer func() { monitoring.GetGlobalMetrics().RecordRegistryOp("set", err == nil) }()
	var handle platform.Handle
	var elemRole role.Role
	var known bool
	c.read(func(r *registry.Registry) {
		elem, ok := r.Element(id)
		if !ok {
			return
		}
		known = true
		handle, elemRole = elem.Handle, elem.Role
	})
	if !known {
		return types.ErrElementNotFound(id)
	}

	if !elemRole.IsWritable() {
		return types.ErrSetValueFailed(fmt.Sprintf("role %s is not writable", elemRole))
	}
	expected := elemRole.ValueType()
	if value.Kind != expected {
		return types.ErrTypeMismatch(expected, value.Kind)
	}

	if err := c.adapter.SetValue(handle, value); err != nil {
		return types.ErrSetValueFailed(err.Error())
	}
	return nil
}

// Perform performs action on id. No role/type validation beyond id
// existing — the platform is the authority on which actions a given
// element actually accepts.
func (c *Core) Perform(id types.ElementId, action types.Action) (err error) {
	defer func() { monitoring.GetGlobalMetrics().RecordRegistryOp("perform", err == nil) }()
	var handle platform.Handle
	var known bool
	c.read(func(r *registry.Registry) {
		elem, ok := r.Element(id)
		if !ok {
			return
		}
		known = true
		handle = elem.Handle
	})
	if !known {
		return types.ErrElementNotFound(id)
	}

	if err := c.adapter.PerformAction(handle, action); err != nil {
		return types.ErrActionFailed(action, err.Error())
	}
	return nil
}
