package listing

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"bookingcrm/internal/domain"
)

// RoleSlot places one role in the reporting chain. Rank 0 is the most junior
// role; each role reports to the role with the next higher rank. Field is the
// booking reference field the role fills.
type RoleSlot struct {
	Role  string `json:"role"`
	Rank  int    `json:"rank"`
	Field string `json:"field"`
}

// DefaultRoleSlots is the booking reference chain, junior-most first.
var DefaultRoleSlots = []RoleSlot{
	{Role: "Employee", Rank: 0, Field: "employee"},
	{Role: "Team Leader", Rank: 1, Field: "tlcp"},
	{Role: "AGM", Rank: 2, Field: "agm"},
	{Role: "GM", Rank: 3, Field: "gm"},
	{Role: "AVP", Rank: 4, Field: "avp"},
	{Role: "VP", Rank: 5, Field: "vp"},
	{Role: "AS", Rank: 6, Field: "as"},
	{Role: "Vertical", Rank: 7, Field: "vertical"},
}

// UnknownRoleError is returned for roles outside the configured hierarchy.
type UnknownRoleError struct {
	Role string
}

func (e UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", e.Role)
}

func (e UnknownRoleError) Unwrap() error {
	return domain.ValidationError{Field: "role", Msg: "unknown role " + e.Role}
}

// Hierarchy is an immutable, rank-ordered chain of roles.
type Hierarchy struct {
	slots []RoleSlot
	index map[string]int
}

func NewHierarchy(slots []RoleSlot) (*Hierarchy, error) {
	if len(slots) == 0 {
		return nil, domain.ValidationError{Field: "hierarchy", Msg: "no roles configured"}
	}
	sorted := make([]RoleSlot, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	h := &Hierarchy{slots: sorted, index: make(map[string]int, len(sorted))}
	for i, s := range sorted {
		if strings.TrimSpace(s.Role) == "" {
			return nil, domain.ValidationError{Field: "hierarchy", Msg: "empty role name"}
		}
		if s.Rank < 0 {
			return nil, domain.ValidationError{Field: "hierarchy", Msg: "negative rank for " + s.Role}
		}
		if i > 0 && sorted[i-1].Rank == s.Rank {
			return nil, domain.ValidationError{Field: "hierarchy", Msg: fmt.Sprintf("rank %d used twice", s.Rank)}
		}
		if _, dup := h.index[s.Role]; dup {
			return nil, domain.ValidationError{Field: "hierarchy", Msg: "duplicate role " + s.Role}
		}
		h.index[s.Role] = i
	}
	return h, nil
}

// MustHierarchy panics on an invalid configuration; for package-level defaults.
func MustHierarchy(slots []RoleSlot) *Hierarchy {
	h, err := NewHierarchy(slots)
	if err != nil {
		panic(err)
	}
	return h
}

// DefaultHierarchy is the booking reference chain.
var DefaultHierarchy = MustHierarchy(DefaultRoleSlots)

// Slots returns the chain, junior-most first.
func (h *Hierarchy) Slots() []RoleSlot {
	out := make([]RoleSlot, len(h.slots))
	copy(out, h.slots)
	return out
}

// Has reports whether role is part of the chain.
func (h *Hierarchy) Has(role string) bool {
	_, ok := h.index[role]
	return ok
}

// Rank returns the configured rank of role.
func (h *Hierarchy) Rank(role string) (int, error) {
	i, ok := h.index[role]
	if !ok {
		return 0, UnknownRoleError{Role: role}
	}
	return h.slots[i].Rank, nil
}

// Slot returns the slot configured for role.
func (h *Hierarchy) Slot(role string) (RoleSlot, error) {
	i, ok := h.index[role]
	if !ok {
		return RoleSlot{}, UnknownRoleError{Role: role}
	}
	return h.slots[i], nil
}

// ReportsTo returns the next senior role, or "" at the top of the chain.
func (h *Hierarchy) ReportsTo(role string) (string, error) {
	i, ok := h.index[role]
	if !ok {
		return "", UnknownRoleError{Role: role}
	}
	if i == len(h.slots)-1 {
		return "", nil
	}
	return h.slots[i+1].Role, nil
}

// IsDisabled reports whether candidate is locked once selected was chosen:
// every role ranked below the selection is disabled. An empty or unknown
// selection disables nothing.
func (h *Hierarchy) IsDisabled(candidate, selected string) bool {
	si, ok := h.index[selected]
	if !ok {
		return false
	}
	ci, ok := h.index[candidate]
	if !ok {
		return false
	}
	return h.slots[ci].Rank < h.slots[si].Rank
}

// DisabledBy lists the roles locked by selecting role, junior-most first.
func (h *Hierarchy) DisabledBy(role string) ([]string, error) {
	i, ok := h.index[role]
	if !ok {
		return nil, UnknownRoleError{Role: role}
	}
	out := make([]string, 0, i)
	for _, s := range h.slots[:i] {
		out = append(out, s.Role)
	}
	return out, nil
}

// SlotState is one reference selector as the booking form renders it.
type SlotState struct {
	RoleSlot
	Value    string `json:"value,omitempty"`
	Disabled bool   `json:"disabled"`
}

// Resolver tracks the reference selection of one booking form.
type Resolver struct {
	h *Hierarchy

	mu       sync.Mutex
	selected string
	values   map[string]string
}

func NewResolver(h *Hierarchy) *Resolver {
	if h == nil {
		h = DefaultHierarchy
	}
	return &Resolver{h: h, values: map[string]string{}}
}

// SelectRole records value for role and returns the roles that are now
// disabled. Unknown roles are rejected without touching the state.
func (r *Resolver) SelectRole(role, value string) ([]string, error) {
	disabled, err := r.h.DisabledBy(role)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = role
	r.values[role] = value
	return disabled, nil
}

// Selected returns the last selected role, "" when none.
func (r *Resolver) Selected() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// IsDisabled checks candidate against the current selection.
func (r *Resolver) IsDisabled(candidate string) bool {
	r.mu.Lock()
	selected := r.selected
	r.mu.Unlock()
	return r.h.IsDisabled(candidate, selected)
}

// Reset clears the selection and re-enables every slot.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = ""
	r.values = map[string]string{}
}

// Slots returns the form state of every selector.
func (r *Resolver) Slots() []SlotState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SlotState, 0, len(r.h.slots))
	for _, s := range r.h.slots {
		out = append(out, SlotState{
			RoleSlot: s,
			Value:    r.values[s.Role],
			Disabled: r.h.IsDisabled(s.Role, r.selected),
		})
	}
	return out
}
