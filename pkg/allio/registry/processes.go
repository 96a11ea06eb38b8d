package registry

import "github.com/watchcask/allio/pkg/allio/types"

// UpsertProcess registers or replaces the cached state for pid.
func (r *Registry) UpsertProcess(pid types.ProcessId, process *CachedProcess) {
	r.processes[pid] = process
}

// RemoveProcess drops pid's cached state, closing its app-level
// notification subscription.
func (r *Registry) RemoveProcess(pid types.ProcessId) {
	process, ok := r.processes[pid]
	if !ok {
		return
	}
	delete(r.processes, pid)
	if process.AppNotifications != nil {
		_ = process.AppNotifications.Close()
	}
}

// Process looks up pid's cached state.
func (r *Registry) Process(pid types.ProcessId) (*CachedProcess, bool) {
	p, ok := r.processes[pid]
	return p, ok
}

// HasProcess reports whether pid already has cached state.
func (r *Registry) HasProcess(pid types.ProcessId) bool {
	_, ok := r.processes[pid]
	return ok
}
