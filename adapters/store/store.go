// Package store provides in-memory, PostgreSQL and Redis implementations of
// the nonce and wallet-link stores.
package store

import "time"

// purgeGrace is how long an expired challenge is kept before reclamation may
// delete it. Reclamation has no correctness role; expiry is checked at
// consume time.
const purgeGrace = time.Hour
