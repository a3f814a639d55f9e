// Package secrets resolves ${secret:name} references in credential
// configuration fields.
//
// A configuration can name a secret instead of embedding it:
//
//	cache:
//	  postgres:
//	    dsn: "postgres://mdast:${secret:pg-password}@db:5432/mdast"
//
// Providers are tried in order. The file provider reads mounted secret
// files (e.g. /run/secrets/pg-password); the environment provider reads
// MDAST_SECRET_PG_PASSWORD and acts as the fallback.
package secrets
