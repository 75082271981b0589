// Package localjwt is a self-contained IdentityProvider: identity tokens
// are JWTs verified against a shared HMAC key or a JWKS endpoint, and
// session artifacts are HMAC-signed JWTs minted locally. Revocation works
// through a pluggable store holding a revoked-at watermark per subject;
// artifacts issued before the watermark fail verification when the
// revocation check is enabled.
//
// It exists so the session layer can run in development, tests, and
// single-tenant deployments without a vendor SDK, while production setups
// swap in their own provider behind the same interface.
package localjwt
