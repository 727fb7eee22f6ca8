package domain

type Role string

const (
	RolePrivileged Role = "privileged"
	RoleStandard   Role = "standard"
)

// Capability is the authorization decision for one request. It is computed
// once from the acting identity and handed to every workflow operation.
type Capability struct {
	Actor string `json:"actor"`
	Role  Role   `json:"role"`
}

func (c Capability) Privileged() bool {
	return c.Role == RolePrivileged
}

func PrivilegedActor(actor string) Capability {
	return Capability{Actor: actor, Role: RolePrivileged}
}

func StandardActor(actor string) Capability {
	return Capability{Actor: actor, Role: RoleStandard}
}
