// Package database provides connection management, migrations, fixture
// seeding, configuration loading, logging, query hooks and metrics, health
// checks, and driver error classification built on top of Bun.
package database
