// Package identity resolves authenticated principals into normalized
// application profiles via the role-specific backing tables.
package identity
