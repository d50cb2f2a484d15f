package model

// Role names stored in the users.role column and carried in the JWT "role"
// claim.  The role model is fixed: there is no tenant-specific authorization
// beyond these three values.
const (
    RoleAdmin     = "ADMIN"
    RoleOrganiser = "ORGANISER"
    RoleCustomer  = "CUSTOMER"
)
