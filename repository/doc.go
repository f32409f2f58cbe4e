// Package repository provides a generic repository built on Bun that returns
// entities as plain records: listing, filtered lookup with pagination,
// create/update from column maps, soft-delete aware delete and restore, and
// many-to-many attach/detach through named relations.
package repository
