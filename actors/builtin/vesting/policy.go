package vesting

// Maximum number of grants, live or revoked, that a single holder may carry.
// Every outbound transfer evaluates all of the holder's grants, so the count is bounded.
const MaxGrantsPerAccount = 20
