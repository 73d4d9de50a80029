// Package textutil turns league ids, league names, and titles into safe
// filesystem path segments and URL slugs.
package textutil
