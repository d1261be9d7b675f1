// Package fmc provides a read-only client for the Cisco Secure Firewall
// Management Center (FMC) REST API.
//
// The client owns the full request lifecycle:
//
//   - Token bootstrap over HTTP Basic auth, with in-place refresh on 401
//     and a hard ceiling of three consecutive refreshes before a full
//     re-authentication
//   - A token-bucket rate limiter sized from the configured
//     requests-per-minute budget
//   - A connection governor bounding simultaneous in-flight requests
//   - Offset/limit pagination that aggregates every page of a listing
//
// Retries are strictly single-shot per failure category: one refresh and
// retry on 401, one Retry-After backoff and retry on 429. Transport
// failures are never retried.
//
// # Usage
//
//	client := fmc.NewClient(cfg.FMC, logger)
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	devices, err := client.Devices(ctx)
package fmc
