// Copyright (c) Oratio Labs.
// Licensed under the MIT License.

/*
Package server wraps net/http.Server with lifecycle management: a
non-blocking Start, a Wait that ties the server to a context, and a
graceful Shutdown bounded by a configurable timeout.
*/
package server
