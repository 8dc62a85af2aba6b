// Package bounds names the call sites that loop while holding no lock that
// would otherwise bound their iteration count. Each is charged against the
// per-CPU heap budget in package res so that a hostile or buggy user
// request cannot loop forever consuming kernel heap.
package bounds

// / Bound_t identifies a bounded loop for resource accounting.
type Bound_t int

const (
	B_VM_DO_CLAIM_PAGE Bound_t = iota
	B_VM_EVICT_FRAME
	B_SPT_COPY
	B_SPT_KILL
	B_USERDMAP8_INNER
	B_ASPACE_T_K2USER_INNER
	B_USERBUF_T__TX
	B_USERIOVEC_T_IOV_INIT
	B_USERIOVEC_T__TX
)

// / Bounds returns b unchanged; it exists so call sites read as
// / self-documenting tags, matching the convention used across the
// / rest of the resource-accounting call sites.
func Bounds(b Bound_t) Bound_t {
	return b
}
