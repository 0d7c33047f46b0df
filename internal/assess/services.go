package assess

import "github.com/nao1215/bannerscan/internal/model"

// ServiceCheck raises one fixed finding for every port of a service.
// The plaintext and remote access rules are all of this shape.
type ServiceCheck struct {
	name        string
	service     string
	findingType string
}

// NewServiceCheck creates a check that raises findingType for service.
func NewServiceCheck(name, service, findingType string) *ServiceCheck {
	return &ServiceCheck{name: name, service: service, findingType: findingType}
}

// Name returns the check name.
func (c *ServiceCheck) Name() string {
	return c.name
}

// Applies reports whether the check covers service.
func (c *ServiceCheck) Applies(service string) bool {
	return service == c.service
}

// Run raises the check's finding, citing the banner's first line.
func (c *ServiceCheck) Run(res model.PortResult) []model.Finding {
	return []model.Finding{newFinding(c.findingType, evidence(res))}
}

// defaultChecks returns the built-in rule set.
func defaultChecks() []Check {
	return []Check{
		NewHeaderCheck(),
		NewServiceCheck("ftp", ServiceFTP, FindingFTPPlaintext),
		NewServiceCheck("smtp", ServiceSMTP, FindingSMTPRelay),
		NewServiceCheck("ssh", ServiceSSH, FindingSSHService),
		NewServiceCheck("telnet", ServiceTelnet, FindingTelnetPlaintext),
		NewServiceCheck("rdp", ServiceRDP, FindingRDPExposed),
	}
}
