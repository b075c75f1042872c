// Copyright (c) Oratio Labs.
// Licensed under the MIT License.

/*
Package mongodb wraps the MongoDB driver with a process-scoped connection
handle: connected once at startup, verified with a ping, dependency-injected
into the vector search layer, and closed by the shutdown hook.
*/
package mongodb
