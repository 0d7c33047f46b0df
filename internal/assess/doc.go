// Package assess rates the risk of open ports.
//
// The assessment is passive: it works only from the captured banner and the
// port's conventional service name, and sends nothing further. Each open
// port gets a service label. The checks for that label raise findings, and
// the port's risk is the highest finding severity.
//
// Findings are rated from a single catalog (see GetFindingInfo) so that the
// same issue always carries the same severity and advice.
package assess
