package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Role is a privilege label granted to an account.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleUser   Role = "USER"
)

// ParseRole normalizes a role label. Labels are compared case-insensitively.
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// Known reports whether r is one of the roles the directory understands.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// RoleSet is an unordered set of roles. The zero value is an empty set.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles, dropping duplicates.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether the set shares at least one role with roles.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Known reports whether every role in the set is a known role.
func (s RoleSet) Known() bool {
	for r := range s {
		if !r.Known() {
			return false
		}
	}
	return true
}

// Slice returns the roles sorted by label.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted role labels.
func (s RoleSet) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// Clone returns an independent copy of the set.
func (s RoleSet) Clone() RoleSet {
	if s == nil {
		return nil
	}
	c := make(RoleSet, len(s))
	for r := range s {
		c[r] = struct{}{}
	}
	return c
}

func (s RoleSet) String() string {
	return strings.Join(s.Strings(), ",")
}

// ParseRoleSet parses a comma separated list of role labels.
func ParseRoleSet(v string) RoleSet {
	s := RoleSet{}
	for _, part := range strings.Split(v, ",") {
		if r := ParseRole(part); r != "" {
			s[r] = struct{}{}
		}
	}
	return s
}

// MarshalJSON encodes the set as a sorted array of labels.
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON accepts an array of labels in any order and case.
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return fmt.Errorf("roles must be an array of strings: %w", err)
	}
	set := make(RoleSet, len(labels))
	for _, l := range labels {
		set[ParseRole(l)] = struct{}{}
	}
	*s = set
	return nil
}

// Value stores the set as a comma separated column.
func (s RoleSet) Value() (driver.Value, error) {
	return s.String(), nil
}

// Scan reads a comma separated column.
func (s *RoleSet) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = RoleSet{}
	case string:
		*s = ParseRoleSet(v)
	case []byte:
		*s = ParseRoleSet(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RoleSet", src)
	}
	return nil
}
