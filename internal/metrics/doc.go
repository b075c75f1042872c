// Copyright (c) Oratio Labs.
// Licensed under the MIT License.

/*
Package metrics collects Prometheus instruments for the answer service:
HTTP request counts and latency, LLM call counts and latency by pipeline
operation, and retrieval fan-out and document-count histograms.

A nil *Collector is a valid no-op, so components take metrics as an
optional dependency without guarding every call site.
*/
package metrics
