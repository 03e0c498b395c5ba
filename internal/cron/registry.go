package cron

import "context"

// Job is one unit of scheduled work. Name must be stable across ticks since
// it labels the job's metrics and log lines.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry is the ordered set of jobs a Service drives. Registering a job
// under a name that is already present replaces it in place.
type Registry struct {
	order []Job
	index map[string]int
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{index: make(map[string]int, len(jobs))}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if r.index == nil {
		r.index = map[string]int{}
	}
	if i, ok := r.index[job.Name()]; ok {
		r.order[i] = job
		return
	}
	r.index[job.Name()] = len(r.order)
	r.order = append(r.order, job)
}

// Lookup returns the job registered under name.
func (r *Registry) Lookup(name string) (Job, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.order[i], true
}

func (r *Registry) Len() int { return len(r.order) }

// Jobs returns a snapshot the caller may modify.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.order...)
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, job := range r.order {
		names[i] = job.Name()
	}
	return names
}
