// Package provider defines the external identity provider capability
// set and its implementations: the hosted REST identity service used
// in production and an in-memory local provider for development and
// tests.
package provider
