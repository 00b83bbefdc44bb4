// Package jobfactory is the external collaborator that turns a job detail
// into the descriptive (name, description) tuple shown in queue-state
// events.
package jobfactory

import "github.com/cronforge/jobstore/internal/model"

type Description struct {
	Name        string
	Description string
}

// Factory builds a display description from a job detail. The default
// implementation derives a name from (group, name) and a description from
// the job type, with no I/O — display-only metadata never touches the
// store or an external service.
type Factory interface {
	Describe(detail model.JobDetail) Description
}

type defaultFactory struct{}

func New() Factory { return defaultFactory{} }

func (defaultFactory) Describe(detail model.JobDetail) Description {
	return Description{
		Name:        detail.Group + "." + detail.Name,
		Description: detail.JobType,
	}
}
