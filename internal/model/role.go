package model

// Role identifies which shell is rendering the shared list.
// Roles only toggle affordances; the server never sees them.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleBeautician Role = "beautician"
	RoleCustomer   Role = "customer"
)

// Capabilities lists the gestures a shell exposes.
type Capabilities struct {
	Create   bool
	EditText bool
	Toggle   bool
	Delete   bool
	Counts   bool
}

// Capabilities returns the affordances available to the role.
func (r Role) Capabilities() Capabilities {
	switch r {
	case RoleAdmin:
		return Capabilities{Toggle: true, Delete: true, Counts: true}
	case RoleBeautician:
		return Capabilities{Create: true, Toggle: true, Delete: true}
	case RoleCustomer:
		return Capabilities{Create: true, EditText: true, Toggle: true, Delete: true}
	default:
		return Capabilities{}
	}
}

// Title is the heading shown at the top of the role's shell.
func (r Role) Title() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleBeautician:
		return "Beautician"
	case RoleCustomer:
		return "Customer"
	default:
		return "Todos"
	}
}
