// Package domain contains the entities shared across the application: users
// and the anagram checks they request. The types carry no infrastructure
// concerns so storage, transport and workers can all depend on them.
package domain
