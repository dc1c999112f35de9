package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one task executed on every cron cycle.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in registration order, keyed by unique name.
type Registry struct {
	jobs  []Job
	index map[string]Job
}

// NewRegistry registers jobs in order. Nil jobs and repeated names are dropped.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{index: map[string]Job{}}
	for _, job := range jobs {
		_ = r.Register(job)
	}
	return r
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("nil job")
	}
	name := job.Name()
	if _, dup := r.index[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	r.index[name] = job
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}

// Select narrows the registry to a comma separated list of job names.
// An empty list returns the registry unchanged.
func (r *Registry) Select(list string) (*Registry, error) {
	if strings.TrimSpace(list) == "" {
		return r, nil
	}
	selected := NewRegistry()
	for _, raw := range strings.Split(list, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		job, ok := r.index[name]
		if !ok {
			return nil, fmt.Errorf("unknown job %q (known: %s)", name, strings.Join(r.Names(), ", "))
		}
		if err := selected.Register(job); err != nil {
			return nil, err
		}
	}
	return selected, nil
}
