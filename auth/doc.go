// Package auth implements the credential and session programs of mailroom.
//
// Passwords are never stored and never logged. Registration stretches the
// password with Argon2id over a fresh random salt and keeps only salt and
// digest next to the identity. Login recomputes the digest with the stored
// salt and compares it in constant time, so the timing of a rejection says
// nothing about where the digests diverge.
//
// Login failures are deliberately uniform: an unknown email and a wrong
// password produce the same error, otherwise the login endpoint doubles as
// a user-enumeration oracle.
//
// Successful logins mint a random bearer token which is kept in a TokenStore.
// Tokens are held in memory only: they are lost when the process restarts,
// when the user logs out, and nowhere else. If the token is lost the user
// logs in again to obtain a new one.
package auth
