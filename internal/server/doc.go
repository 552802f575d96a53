// Package server hosts the Fiber HTTP surface in front of the registry store.
// It wires a request-id middleware, structured request logging and JSON error
// bodies around three package routes (metadata, contents, publish) and leaves
// diagnostic routes under /-/ to the routes subpackage. Handlers depend on the
// narrow Resolver/Publisher interfaces so tests can inject fakes.
package server
