// Package yggdrasil implements a Yggdrasil-compatible authentication service
// for game clients: username/password login, opaque access tokens bound to a
// client token, profile selection, and signed profile properties.
//
// Token lifecycle:
//   - Tokens carry a TokenStatus that is persisted via Bun. A token starts
//     available, ages into need_refresh once it exceeds the configured
//     need-refresh duration, and becomes invalid either by exceeding the
//     invalid duration on top of that or by falling outside the per-account
//     ceiling of live tokens. Invalid is terminal.
//   - TokenLifecycle centralizes those transitions. Every login and refresh
//     runs a rebalance for the authenticating account inside the same
//     transaction that issues the new token, so the ceiling and aging
//     invariants hold under concurrent requests without in-process locks.
//
// Sessions:
//   - SessionService owns the login, refresh, validate, invalidate, and
//     signout transactions. All of them execute through
//     RepositoryManager.RunInTx; any error rolls the whole transaction back.
//
// Presentation:
//   - ProfilePresenter converts stored profiles (plus their skin/cape
//     textures) into the wire representation, encoding the textures payload
//     as a base64 property. Signer attaches RSA signatures to property
//     values when a private key is configured and degrades to unsigned
//     output when it is not.
package yggdrasil
