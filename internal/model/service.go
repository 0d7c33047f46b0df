package model

import (
	"encoding/json"
	"strings"
)

// ServiceKind is the application protocol the classifier recognized.
type ServiceKind int

const (
	// ServiceUnknown means no classification rule matched.
	ServiceUnknown ServiceKind = iota

	// ServiceHTTP is a plain HTTP/1.x server.
	ServiceHTTP

	// ServiceFTP is an FTP server (220 greeting mentioning FTP).
	ServiceFTP

	// ServiceSMTP is a mail server (220 greeting mentioning SMTP or ESMTP).
	ServiceSMTP
)

// String returns the lower-case protocol name.
func (k ServiceKind) String() string {
	switch k {
	case ServiceHTTP:
		return "http"
	case ServiceFTP:
		return "ftp"
	case ServiceSMTP:
		return "smtp"
	default:
		return "unknown"
	}
}

// ParseServiceKind converts a protocol name into a ServiceKind.
// Unrecognized names map to ServiceUnknown.
func ParseServiceKind(s string) ServiceKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "http":
		return ServiceHTTP
	case "ftp":
		return ServiceFTP
	case "smtp":
		return ServiceSMTP
	default:
		return ServiceUnknown
	}
}

// MarshalJSON encodes the kind as its name.
func (k ServiceKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name produced by MarshalJSON.
func (k *ServiceKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*k = ParseServiceKind(name)
	return nil
}

// ServiceIdentity is the classifier's best-effort guess at which
// application protocol runs on an open port.
type ServiceIdentity struct {
	// Kind is the recognized protocol.
	Kind ServiceKind `json:"kind"`

	// Detail is free text extracted from the banner: the Server header for
	// HTTP, the greeting text for FTP, the announced hostname for SMTP.
	// Empty means no detail was available.
	Detail string `json:"detail,omitempty"`

	// Product is the normalized server software name when it could be
	// recognized (e.g. "vsFTPd", "Postfix", "nginx").
	Product string `json:"product,omitempty"`

	// Version is the software version stated in the banner, if any.
	Version string `json:"version,omitempty"`
}

// UnknownService returns the identity used when nothing matched.
func UnknownService() ServiceIdentity {
	return ServiceIdentity{Kind: ServiceUnknown}
}

// IsKnown reports whether a classification rule matched.
func (s ServiceIdentity) IsKnown() bool {
	return s.Kind != ServiceUnknown
}

// String renders the identity as "kind", "kind (detail)" or, when the product
// is known and not already part of the detail, "kind (detail) [product version]".
func (s ServiceIdentity) String() string {
	var sb strings.Builder
	sb.WriteString(s.Kind.String())
	if s.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(s.Detail)
		sb.WriteString(")")
	}
	if s.Product != "" && !strings.Contains(s.Detail, s.Product) {
		sb.WriteString(" [")
		sb.WriteString(s.Product)
		if s.Version != "" {
			sb.WriteString(" ")
			sb.WriteString(s.Version)
		}
		sb.WriteString("]")
	}
	return sb.String()
}
