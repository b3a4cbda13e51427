// Package repository contains the remote collaborators of the vault core:
// the document collection and the auth backend. Implementations live in
// subpackages (postgres) and classify driver errors into apperr sentinels.
package repository
