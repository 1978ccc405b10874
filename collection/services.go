package collection

import (
	"fmt"

	"github.com/xraph/harvest"
)

// Service names a data source the dispatcher collects from.
type Service string

// The services Harvest knows how to collect from.
const (
	ServiceDirectory     Service = "directory"
	ServiceCourseBuilder Service = "course-builder"
	ServiceAssessment    Service = "assessment"
	ServiceGrading       Service = "grading"
	ServiceEnrollment    Service = "enrollment"
)

// knownServices is the set of recognized service names.
var knownServices = map[Service]struct{}{
	ServiceDirectory:     {},
	ServiceCourseBuilder: {},
	ServiceAssessment:    {},
	ServiceGrading:       {},
	ServiceEnrollment:    {},
}

// DefaultServices returns the services collected when a trigger request
// names none.
func DefaultServices() []Service {
	return []Service{ServiceDirectory, ServiceCourseBuilder, ServiceAssessment}
}

// ParseServices validates a requested service list, preserving order and
// dropping duplicates. A nil or empty input yields the default set; a
// non-empty input with an unrecognized name fails validation.
func ParseServices(names []string) ([]Service, error) {
	if len(names) == 0 {
		return DefaultServices(), nil
	}

	seen := make(map[Service]struct{}, len(names))
	services := make([]Service, 0, len(names))
	for _, name := range names {
		svc := Service(name)
		if _, ok := knownServices[svc]; !ok {
			return nil, fmt.Errorf("%w: unknown service %q", harvest.ErrValidation, name)
		}
		if _, dup := seen[svc]; dup {
			continue
		}
		seen[svc] = struct{}{}
		services = append(services, svc)
	}

	return services, nil
}
