// Package services holds the error taxonomy shared by pipeline components
// and the clients for external capabilities in its subpackages.
package services
