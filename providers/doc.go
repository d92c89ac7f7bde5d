// Package providers contains the shared OAuth2 adapter and the built-in
// provider packages that configure it.
package providers
