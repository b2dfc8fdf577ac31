package classify

// Registry records parent classifications for tags, letting a host declare
// that its own error kinds belong to a broader category
// (e.g. "billing.invoice_missing" is a "model.not_found").
//
// A Registry is populated during setup and read-only afterwards; it is not
// safe to Register concurrently with lookups.
type Registry struct {
	parents map[string][]string
}

func NewRegistry() *Registry {
	return &Registry{parents: make(map[string][]string)}
}

// Register adds parents to tag. Registering the same pair twice is harmless.
func (r *Registry) Register(tag string, parents ...string) {
	r.parents[tag] = append(r.parents[tag], parents...)
}

// Ancestors returns tag followed by every tag reachable through registered
// parent links, each exactly once. Cycles are tolerated.
func (r *Registry) Ancestors(tag string) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(string)
	walk = func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
		if r == nil {
			return
		}
		for _, p := range r.parents[t] {
			walk(p)
		}
	}
	walk(tag)
	return out
}

// Lineage returns every classification err satisfies: its own tag, the parents
// declared by errors in its chain, the Go type name of every error in the
// chain, and all registered ancestors of those.
func (r *Registry) Lineage(err error) []string {
	if err == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, root := range roots(err) {
		for _, t := range r.Ancestors(root) {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

func roots(err error) []string {
	out := append([]string{Of(err)}, declaredParents(err)...)
	return append(out, typeNames(err)...)
}

// IsA reports whether err is classified as target or any descendant of it.
func (r *Registry) IsA(err error, target string) bool {
	for _, t := range r.Lineage(err) {
		if t == target {
			return true
		}
	}
	return false
}
