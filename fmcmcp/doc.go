// Package fmcmcp exposes read-only FMC data over the Model Context
// Protocol.
//
// The package is a thin adapter: resource and tool payloads are built by
// plain functions over the fmc.API interface, and Server wires them onto
// a github.com/modelcontextprotocol/go-sdk server with a stdio
// transport. All controller-facing behavior (auth, rate limiting,
// pagination, retries) lives in the fmc package.
package fmcmcp
