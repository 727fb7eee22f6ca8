// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic     SecurityLevel = iota // No authentication
	SecurityAccess                          // Access token required
	SecurityPrivileged                      // Access token with a privileged role required
)

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Operational - Public
	"Health":  SecurityPublic,
	"Metrics": SecurityPublic,

	// Workflow - Access Protected. Approve and reject are further gated on the
	// request capability inside the approval controller.
	"Submit":         SecurityAccess,
	"Resubmit":       SecurityAccess,
	"ListPending":    SecurityAccess,
	"GetPending":     SecurityAccess,
	"ApprovePending": SecurityAccess,
	"RejectPending":  SecurityAccess,

	// Revenue
	"GetAssetRevenue":  SecurityAccess,
	"RecomputeRevenue": SecurityPrivileged,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityPrivileged
}
