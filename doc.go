// Package identity is the account and access-control core for multi-tenant
// backends: signup, invite-based signup, email confirmation, credential
// verification, password lifecycle, session token issuance, and policy-based
// authorization decisions.
//
// Account lifecycle:
//   - Accounts are created fully formed (Signup) or as invite placeholders
//     (InviteSignup) that hold no usable password until AcceptInvite runs.
//     Email confirmation and password reset flows consume opaque single-use
//     tokens that are cleared the moment they are redeemed.
//   - Manager owns every state transition and its validation order. All
//     failures are typed go-errors values; callers translate them into
//     whatever transport they speak.
//
// Authorization:
//   - Authorizer evaluates a per-action Rule tree (And/Or combinators over
//     IsAuthenticated, HasRole, and resource ownership) against the principal
//     resolved from a bearer token. Policy failure never reaches the guarded
//     operation.
//
// Persistence is abstracted behind RepositoryManager; a Bun-backed
// implementation ships in this package, but any store satisfying the
// interfaces works.
package identity
