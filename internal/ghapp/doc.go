// Package ghapp talks to GitHub as a GitHub App installation.
//
// AppAuth signs a short-lived RS256 JWT with the App's private key and
// exchanges it for an installation token; Client wraps go-github with that
// token to read repository files and post commit and pull-request
// comments.
package ghapp
