package report

import (
	"time"

	"github.com/nao1215/bannerscan/internal/model"
)

// createTestReport creates a report for test.local:20-26 covering every
// port state. Results are handed over out of order on purpose.
func createTestReport() *model.ScanReport {
	report := model.NewScanReport("test.local", 20, 26)
	report.Elapsed = 1500 * time.Millisecond

	target := func(port uint16) model.ScanTarget {
		return model.NewScanTarget("test.local", port)
	}

	report.SetResults([]model.PortResult{
		{
			Target:    target(25),
			State:     model.StateOpen,
			Banner:    "220 test.local ESMTP Postfix (Ubuntu)",
			Service:   &model.ServiceIdentity{Kind: model.ServiceSMTP, Detail: "test.local", Product: "Postfix"},
			WellKnown: "smtp",
		},
		{Target: target(23), State: model.StateClosed, WellKnown: "telnet", Error: "connection refused"},
		{
			Target:    target(21),
			State:     model.StateOpen,
			Banner:    "220 Test FTP Server (vsFTPd 3.0.3) ready.",
			Service:   &model.ServiceIdentity{Kind: model.ServiceFTP, Detail: "Test FTP Server (vsFTPd 3.0.3) ready.", Product: "vsFTPd", Version: "3.0.3"},
			WellKnown: "ftp",
			Extra:     []string{"214-The following commands are recognized.", "214 Help OK."},
		},
		{Target: target(24), State: model.StateTimeout},
		{
			Target:    target(22),
			State:     model.StateOpen,
			Banner:    "SSH-2.0-OpenSSH_9.6",
			Service:   &model.ServiceIdentity{Kind: model.ServiceUnknown},
			WellKnown: "ssh",
		},
		{Target: target(26), State: model.StateError, Error: "network unreachable"},
		{Target: target(20), State: model.StateClosed, WellKnown: "ftp-data"},
	})

	return report
}

// createAssessedReport returns createTestReport with the open ports rated:
// FTP high, SMTP medium and SSH low.
func createAssessedReport() *model.ScanReport {
	report := createTestReport()
	ratings := map[uint16]*model.Assessment{
		21: {
			Service: "FTP",
			Risk:    model.SeverityHigh,
			Findings: []model.Finding{{
				Type:        "ftp_plaintext",
				Title:       "Plaintext FTP Service",
				Severity:    model.SeverityHigh,
				Remediation: "Replace FTP with SFTP or FTPS.",
				Value:       "220 Test FTP Server (vsFTPd 3.0.3) ready.",
			}},
			Recommendations: []string{"Use SFTP | FTPS instead"},
		},
		22: {
			Service: "SSH",
			Risk:    model.SeverityLow,
			Findings: []model.Finding{{
				Type:        "ssh_service",
				Title:       "SSH Service Detected",
				Severity:    model.SeverityLow,
				Remediation: "Restrict access to trusted networks.",
			}},
			Recommendations: []string{"Disable root login and use key-based authentication"},
		},
		25: {
			Service: "SMTP",
			Risk:    model.SeverityMedium,
			Findings: []model.Finding{{
				Type:        "smtp_relay",
				Title:       "SMTP Service Detected",
				Severity:    model.SeverityMedium,
				Remediation: "Verify the server is not an open relay.",
			}},
			Recommendations: []string{"Use SFTP | FTPS instead"},
		},
	}
	for i := range report.Results {
		report.Results[i].Assessment = ratings[report.Results[i].Port()]
	}
	return report
}
