package access

import (
	"fmt"
	"strings"
)

// Resource identifies a protected entity type. Codes are process-wide and
// persisted in the permissions table, so existing values must never change.
type Resource int32

const (
	SuperAdmin Resource = 1
	// Admin is the override sentinel: a grant on (Admin, Global) allows
	// everything, a grant on (Admin, OnBranch(b)) allows everything on b.
	Admin    Resource = 2
	Branch   Resource = 3
	User     Resource = 4
	Category Resource = 5
	Supplier Resource = 6
	Customer Resource = 7
	Product  Resource = 8
)

var resourceNames = map[Resource]string{
	SuperAdmin: "SUPER_ADMIN",
	Admin:      "ADMIN",
	Branch:     "BRANCH",
	User:       "USER",
	Category:   "CATEGORY",
	Supplier:   "SUPPLIER",
	Customer:   "CUSTOMER",
	Product:    "PRODUCT",
}

// String returns the resource name, or its numeric code when unknown
func (r Resource) String() string {
	if name, ok := resourceNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RESOURCE(%d)", int32(r))
}

// Action is a bitmask of independent operation flags
type Action int32

const (
	Create Action = 1 << iota
	Read
	Update
	Delete
)

// AllActions grants every defined action
const AllActions = Create | Read | Update | Delete

var actionNames = []struct {
	flag Action
	name string
}{
	{Create, "CREATE"},
	{Read, "READ"},
	{Update, "UPDATE"},
	{Delete, "DELETE"},
}

// Has reports whether every bit of required is present in a
func (a Action) Has(required Action) bool {
	return a&required == required
}

// String renders the set flags joined by "|", e.g. "CREATE|READ"
func (a Action) String() string {
	if a == 0 {
		return "NONE"
	}
	var parts []string
	rest := a
	for _, an := range actionNames {
		if a&an.flag != 0 {
			parts = append(parts, an.name)
			rest &^= an.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", int32(rest)))
	}
	return strings.Join(parts, "|")
}
