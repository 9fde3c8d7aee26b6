// Package access quyết định (role, operation) -> allow/deny trước khi request chạm tới lending engine.
package access

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrForbidden is returned when the role may not perform the operation
	ErrForbidden = errors.New("access denied")

	// ErrUnknownRole is returned when a token carries a role we don't know
	ErrUnknownRole = errors.New("unknown role")
)

// Role - vai trò của người gọi, lấy từ JWT claims
type Role string

const (
	RoleBorrower Role = "borrower"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// ParseRole chấp nhận cả tên cũ (student, circulation-staff, administrator)
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "borrower", "student", "user":
		return RoleBorrower, nil
	case "staff", "circulation-staff", "circulation_staff", "librarian":
		return RoleStaff, nil
	case "admin", "administrator":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Operation là một hành động có kiểm soát quyền
type Operation string

const (
	OpIssueCopy       Operation = "loan:issue"
	OpReturnCopy      Operation = "loan:return"
	OpViewLoan        Operation = "loan:view"
	OpViewAnyLoan     Operation = "loan:view_any"
	OpListOwnLoans    Operation = "loan:list_own"
	OpListOverdue     Operation = "loan:list_overdue"
	OpViewCatalog     Operation = "catalog:view"
	OpCreateItem      Operation = "catalog:create"
	OpUpdateItem      Operation = "catalog:update"
	OpAdjustInventory Operation = "catalog:adjust_inventory"
	OpDeleteItem      Operation = "catalog:delete"
	OpExportCatalog   Operation = "catalog:export"
)

var (
	everyone  = []Role{RoleBorrower, RoleStaff, RoleAdmin}
	staffOnly = []Role{RoleStaff, RoleAdmin}
)

// Policy là bảng quyền duy nhất của service
type Policy struct {
	grants map[Operation]map[Role]struct{}
}

// NewPolicy builds a policy from an operation -> roles table
func NewPolicy(table map[Operation][]Role) *Policy {
	p := &Policy{grants: make(map[Operation]map[Role]struct{}, len(table))}
	for op, roles := range table {
		set := make(map[Role]struct{}, len(roles))
		for _, r := range roles {
			set[r] = struct{}{}
		}
		p.grants[op] = set
	}
	return p
}

// DefaultPolicy: borrower chỉ mượn sách và xem dữ liệu của chính mình,
// mọi thao tác quản lý catalog/return thuộc về staff và admin
func DefaultPolicy() *Policy {
	return NewPolicy(map[Operation][]Role{
		OpIssueCopy:       everyone,
		OpViewLoan:        everyone,
		OpListOwnLoans:    everyone,
		OpViewCatalog:     everyone,
		OpReturnCopy:      staffOnly,
		OpViewAnyLoan:     staffOnly,
		OpListOverdue:     staffOnly,
		OpCreateItem:      staffOnly,
		OpUpdateItem:      staffOnly,
		OpAdjustInventory: staffOnly,
		OpDeleteItem:      staffOnly,
		OpExportCatalog:   staffOnly,
	})
}

// Allows reports whether role may perform op; unknown operations are denied
func (p *Policy) Allows(role Role, op Operation) bool {
	roles, ok := p.grants[op]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}

// Authorize returns ErrForbidden when the role may not perform op
func (p *Policy) Authorize(role Role, op Operation) error {
	if !p.Allows(role, op) {
		return fmt.Errorf("%w: role=%s operation=%s", ErrForbidden, role, op)
	}
	return nil
}

// CanViewLoan: chủ loan luôn xem được, người khác cần OpViewAnyLoan
func (p *Policy) CanViewLoan(role Role, callerID, borrowerID uuid.UUID) bool {
	if callerID == borrowerID && p.Allows(role, OpViewLoan) {
		return true
	}
	return p.Allows(role, OpViewAnyLoan)
}
