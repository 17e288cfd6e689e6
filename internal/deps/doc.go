// Package deps inventories the external binaries the render pipeline shells
// out to and reports their availability.
package deps
