package engine

import "context"

// Gate is the per-object authorization check applied to every resolved
// id before pagination. Objects the gate rejects are excluded from the
// final id list regardless of sort position.
type Gate interface {
	CanRead(ctx context.Context, className string, id int64) (bool, error)
	CanUpdate(ctx context.Context, className string, id int64) (bool, error)
}

// AllowAll permits everything. The default gate.
type AllowAll struct{}

func (AllowAll) CanRead(context.Context, string, int64) (bool, error)   { return true, nil }
func (AllowAll) CanUpdate(context.Context, string, int64) (bool, error) { return true, nil }

// StaticGate denies explicitly listed objects and permits the rest.
// Zero value permits everything.
type StaticGate struct {
	readDeny   map[string]map[int64]bool
	updateDeny map[string]map[int64]bool
}

// DenyRead marks objects as unreadable (and consequently not updatable:
// update implies read).
func (g *StaticGate) DenyRead(className string, ids ...int64) *StaticGate {
	g.readDeny = deny(g.readDeny, className, ids)
	g.updateDeny = deny(g.updateDeny, className, ids)
	return g
}

// DenyUpdate marks objects as readable but not updatable.
func (g *StaticGate) DenyUpdate(className string, ids ...int64) *StaticGate {
	g.updateDeny = deny(g.updateDeny, className, ids)
	return g
}

func (g *StaticGate) CanRead(_ context.Context, className string, id int64) (bool, error) {
	return !g.readDeny[className][id], nil
}

func (g *StaticGate) CanUpdate(_ context.Context, className string, id int64) (bool, error) {
	return !g.updateDeny[className][id], nil
}

func deny(m map[string]map[int64]bool, className string, ids []int64) map[string]map[int64]bool {
	if m == nil {
		m = make(map[string]map[int64]bool)
	}
	if m[className] == nil {
		m[className] = make(map[int64]bool)
	}
	for _, id := range ids {
		m[className][id] = true
	}
	return m
}
