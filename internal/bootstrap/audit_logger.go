package bootstrap

import "context"

// AuditLog is an operational audit event (server lifecycle, not the domain
// audit trail in internal/audit).
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
